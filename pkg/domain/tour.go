package domain

// WaypointRole distinguishes the four roles a tour stop can play (spec §3).
type WaypointRole int

const (
	RoleStart WaypointRole = iota
	RolePickup
	RoleUnload
	RoleEnd
)

func (r WaypointRole) String() string {
	switch r {
	case RoleStart:
		return "start"
	case RolePickup:
		return "pickup"
	case RoleUnload:
		return "unload"
	default:
		return "end"
	}
}

// Waypoint is one stop of a Tour.
type Waypoint struct {
	Location *Location
	Role     WaypointRole
}

// Tour is one vehicle's closed route: it starts and ends at the depot, and
// the running load between consecutive unloads never exceeds the vehicle's
// capacity (spec §3).
type Tour struct {
	VehicleID int64
	Capacity  float64
	Waypoints []Waypoint
}

// TotalCollected sums the volume of every pickup waypoint in the tour.
func (t *Tour) TotalCollected() float64 {
	var total float64
	for _, wp := range t.Waypoints {
		if wp.Role == RolePickup {
			total += wp.Location.Volume
		}
	}
	return total
}

// DisposalVisits counts unload waypoints.
func (t *Tour) DisposalVisits() int {
	count := 0
	for _, wp := range t.Waypoints {
		if wp.Role == RoleUnload {
			count++
		}
	}
	return count
}

// ValidateCapacity walks the tour incrementing running load at each pickup
// and resetting it at each unload, returning false the moment load would
// exceed capacity (spec §8, "Tour capacity").
func (t *Tour) ValidateCapacity() bool {
	load := 0.0
	for _, wp := range t.Waypoints {
		switch wp.Role {
		case RolePickup:
			load += wp.Location.Volume
			if load > t.Capacity+Epsilon {
				return false
			}
		case RoleUnload:
			load = 0
		}
	}
	return true
}

// Length sums the Euclidean distance between consecutive waypoints.
func (t *Tour) Length() float64 {
	var total float64
	for i := 0; i+1 < len(t.Waypoints); i++ {
		total += t.Waypoints[i].Location.Distance(t.Waypoints[i+1].Location)
	}
	return total
}
