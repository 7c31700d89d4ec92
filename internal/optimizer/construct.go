package optimizer

import (
	"sort"

	"wasteroute/pkg/domain"
)

// preassignPoints allocates collection points to vehicles, ignoring
// residual capacity (spec §4.4 "Point-to-vehicle allocation (pre-phase)").
// Points are visited in descending-volume, ascending-id order; each goes to
// the accessible vehicle minimising Euclidean(depot, point) + fixedCost.
// Vehicles that receive no points are simply absent from the returned map.
func preassignPoints(depot *domain.Location, points []*domain.Location, vehicles []domain.Vehicle) map[int64][]*domain.Location {
	ordered := make([]*domain.Location, len(points))
	copy(ordered, points)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Volume != ordered[j].Volume {
			return ordered[i].Volume > ordered[j].Volume
		}
		return ordered[i].ID < ordered[j].ID
	})

	sortedVehicles := make([]domain.Vehicle, len(vehicles))
	copy(sortedVehicles, vehicles)
	sort.Slice(sortedVehicles, func(i, j int) bool { return sortedVehicles[i].ID < sortedVehicles[j].ID })

	byVehicle := make(map[int64][]*domain.Location)
	for _, p := range ordered {
		bestID := int64(0)
		bestCost := domain.Infinity
		found := false
		for _, v := range sortedVehicles {
			if !v.CanAccess(p.ID) {
				continue
			}
			c := depot.Distance(p) + v.FixedCost
			if c < bestCost-domain.Epsilon {
				bestCost = c
				bestID = v.ID
				found = true
			}
		}
		if found {
			byVehicle[bestID] = append(byVehicle[bestID], p)
		}
	}

	return byVehicle
}

// constructInitialTour builds the nearest-neighbour tour with opportunistic
// disposal insertion (spec §4.4 (a)). It returns the tour as a flat waypoint
// sequence (depot, pickups and unloads interleaved, depot).
func constructInitialTour(depot *domain.Location, points []*domain.Location, disposals []*domain.Location, capacity float64, dist distanceFunc) []domain.Waypoint {
	remaining := make([]*domain.Location, len(points))
	copy(remaining, points)

	waypoints := []domain.Waypoint{{Location: depot, Role: domain.RoleStart}}
	current := depot
	load := 0.0

	for len(remaining) > 0 {
		bestIdx := -1
		bestLookAhead := domain.Infinity

		for i, p := range remaining {
			var lookAhead float64
			if load+p.Volume <= capacity+domain.Epsilon {
				lookAhead = dist(current, p)
			} else if facility, _, ok := nearestFacility(current, disposals, dist); ok {
				lookAhead = dist(current, facility) + dist(facility, p)
			} else {
				// No facility to route through: fall back to direct
				// distance so the point is still eventually visited
				// (spec §4.4 "Edge cases": no disposals means capacity
				// constraints are advisory only).
				lookAhead = dist(current, p)
			}
			if lookAhead < bestLookAhead-domain.Epsilon {
				bestLookAhead = lookAhead
				bestIdx = i
			}
		}

		next := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)

		if load > 0 && load+next.Volume > capacity+domain.Epsilon {
			if facility, _, ok := nearestFacility(current, disposals, dist); ok {
				waypoints = append(waypoints, domain.Waypoint{Location: facility, Role: domain.RoleUnload})
				current = facility
				load = 0
			}
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

// extractPickupSequence pulls the depot-pickups-depot sub-sequence out of a
// full waypoint list, discarding any disposal stops (spec §4.4 (b): "Extract
// the sub-sequence [D, pickups…, D]").
func extractPickupSequence(waypoints []domain.Waypoint) []*domain.Location {
	seq := make([]*domain.Location, 0, len(waypoints))
	for _, wp := range waypoints {
		if wp.Role == domain.RoleUnload {
			continue
		}
		seq = append(seq, wp.Location)
	}
	return seq
}
