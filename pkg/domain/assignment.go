package domain

// Vehicle is a capacitated collector (spec §3). AllowedZones being empty
// means universal access. Fields are immutable inputs to a run; running
// load during optimisation is transient state kept by the caller, never on
// this value.
type Vehicle struct {
	ID             int64
	Capacity       float64
	FixedCost      float64
	AllowedZones   map[int64]bool // nil/empty == universal access
	InitialX       float64
	InitialY       float64
	HasInitialPos  bool
}

// CanAccess reports whether the vehicle may serve the given zone id.
func (v *Vehicle) CanAccess(zoneID int64) bool {
	if len(v.AllowedZones) == 0 {
		return true
	}
	return v.AllowedZones[zoneID]
}

// Zone is a named group of collection points (spec §3). Centre and Volume
// are derived from the member points by the caller and stored here, not
// recomputed by L2.
type Zone struct {
	ID        int64
	PointIDs  []int64
	Volume    float64
	Centre    Point
	Priority  Priority
	Frequency int
}

// IncompatiblePair is an unordered pair of zone ids that must never share a
// vehicle.
type IncompatiblePair struct {
	A, B int64
}

// VehicleAssignment is one vehicle's outcome from L2: the zones assigned to
// it, in insertion order, plus the derived load and cost figures.
type VehicleAssignment struct {
	VehicleID       int64
	ZoneIDs         []int64
	TotalLoad       float64
	EstimatedCost   float64
	UtilisationPct  float64
}

// AssignmentResult is the output of L2: a mapping vehicle -> ordered zones,
// plus the zones nobody could take and summary statistics (spec §3, §4.2).
// Once produced it is read-only; rebalancing returns a new value rather than
// mutating this one in place.
type AssignmentResult struct {
	Vehicles   []VehicleAssignment
	Unassigned []int64

	VehiclesUsed     int
	MeanLoad         float64
	StdevLoad        float64
	TotalCost        float64
	MeanUtilisation  float64
}

// ZoneIDsFor returns the zone ids assigned to the given vehicle, or nil if
// the vehicle received none.
func (r *AssignmentResult) ZoneIDsFor(vehicleID int64) []int64 {
	for _, va := range r.Vehicles {
		if va.VehicleID == vehicleID {
			return va.ZoneIDs
		}
	}
	return nil
}
