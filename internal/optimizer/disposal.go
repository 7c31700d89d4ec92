package optimizer

import "wasteroute/pkg/domain"

// reinsertDisposals walks the optimised pickup-only sequence (depot,
// pickups, depot) and rebuilds the full waypoint list, inserting a disposal
// stop whenever the next pickup would overflow capacity, choosing between
// the facility nearest the current position and the facility nearest the
// next pickup by comparing total detour cost (spec §4.4 (f)).
func reinsertDisposals(seq []*domain.Location, disposals []*domain.Location, capacity float64, dist distanceFunc) []domain.Waypoint {
	n := len(seq)
	waypoints := make([]domain.Waypoint, 0, n+len(disposals))
	if n == 0 {
		return waypoints
	}

	depot := seq[0]
	waypoints = append(waypoints, domain.Waypoint{Location: depot, Role: domain.RoleStart})

	load := 0.0
	current := depot

	for i := 1; i < n-1; i++ {
		next := seq[i]

		if load+next.Volume > capacity+domain.Epsilon && load > 0 && len(disposals) > 0 {
			facility := chooseDisposal(current, next, disposals, dist)
			waypoints = append(waypoints, domain.Waypoint{Location: facility, Role: domain.RoleUnload})
			current = facility
			load = 0
		}

		waypoints = append(waypoints, domain.Waypoint{Location: next, Role: domain.RolePickup})
		current = next
		load += next.Volume
	}

	if load > 0 {
		if facility, _, ok := nearestFacility(current, disposals, dist); ok {
			waypoints = append(waypoints, domain.Waypoint{Location: facility, Role: domain.RoleUnload})
		}
	}

	waypoints = append(waypoints, domain.Waypoint{Location: depot, Role: domain.RoleEnd})
	return waypoints
}

// chooseDisposal picks between the facility closest to the current position
// and the facility closest to the upcoming pickup, by total detour cost
// (spec §4.4 (f)).
func chooseDisposal(current, next *domain.Location, disposals []*domain.Location, dist distanceFunc) *domain.Location {
	byCurrent, _, _ := nearestFacility(current, disposals, dist)
	byNext, _, _ := nearestFacility(next, disposals, dist)

	costByCurrent := dist(current, byCurrent) + dist(byCurrent, next)
	costByNext := dist(current, byNext) + dist(byNext, next)

	if costByNext < costByCurrent-domain.Epsilon {
		return byNext
	}
	return byCurrent
}

// waypointsToLocations extracts the location sequence from a waypoint list,
// preserving disposal stops (the inverse of extractPickupSequence).
func waypointsToLocations(waypoints []domain.Waypoint) []*domain.Location {
	out := make([]*domain.Location, len(waypoints))
	for i, wp := range waypoints {
		out[i] = wp.Location
	}
	return out
}
