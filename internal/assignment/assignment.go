// Package assignment implements L2: the bipartite greedy assignment of
// zones to vehicles with capacity, access and incompatibility constraints,
// followed by a load-balancing refinement pass (spec §4.2).
package assignment

import (
	"context"
	"math"
	"sort"
	"strconv"

	"wasteroute/pkg/apperror"
	"wasteroute/pkg/domain"
)

// Config tunes the cost model and load-balancing thresholds. A zero Config
// falls back to the spec's defaults (domain.DefaultCostPerKM etc).
type Config struct {
	CostPerKM                float64
	CostPerKG                float64
	LoadBalanceStdevFraction float64
	OverloadedFactor         float64
	UnderloadedFactor        float64
	LoadBalanceMaxRounds     int
}

// WithDefaults returns c with every zero field replaced by the spec's
// published default (spec §4.2), for callers outside this package that need
// to compute cost(v, z) the same way Assign does.
func (c Config) WithDefaults() Config {
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.CostPerKM == 0 {
		c.CostPerKM = domain.DefaultCostPerKM
	}
	if c.CostPerKG == 0 {
		c.CostPerKG = domain.DefaultCostPerKG
	}
	if c.LoadBalanceStdevFraction == 0 {
		c.LoadBalanceStdevFraction = domain.LoadBalanceStdevFraction
	}
	if c.OverloadedFactor == 0 {
		c.OverloadedFactor = domain.OverloadedFactor
	}
	if c.UnderloadedFactor == 0 {
		c.UnderloadedFactor = domain.UnderloadedFactor
	}
	if c.LoadBalanceMaxRounds == 0 {
		c.LoadBalanceMaxRounds = domain.LoadBalanceMaxRounds
	}
	return c
}

// Input is L2's full request.
type Input struct {
	Depot        domain.Location
	Vehicles     []domain.Vehicle
	Zones        []domain.Zone
	Disposals    []domain.Location
	Incompatible []domain.IncompatiblePair
	Config       Config
}

// incompatibilitySet answers "are zones a and b incompatible?" in O(1).
type incompatibilitySet map[int64]map[int64]bool

func buildIncompatibilitySet(pairs []domain.IncompatiblePair) incompatibilitySet {
	set := make(incompatibilitySet)
	add := func(a, b int64) {
		if set[a] == nil {
			set[a] = make(map[int64]bool)
		}
		set[a][b] = true
	}
	for _, p := range pairs {
		add(p.A, p.B)
		add(p.B, p.A)
	}
	return set
}

func (s incompatibilitySet) conflicts(a, b int64) bool {
	return s[a] != nil && s[a][b]
}

// vehicleState is the mutable per-vehicle working set the greedy pass and
// the rebalancer both operate on. It is discarded once Assign returns; the
// spec's "deep copying of assignment maps during balancing becomes an
// immutable-update pattern" is honoured at the boundary (each call to
// Assign produces a brand-new AssignmentResult).
type vehicleState struct {
	vehicle *domain.Vehicle
	zoneIDs []int64
	load    float64
}

func (vs *vehicleState) hasIncompatibleMember(zoneID int64, incompat incompatibilitySet) bool {
	for _, existing := range vs.zoneIDs {
		if incompat.conflicts(existing, zoneID) {
			return true
		}
	}
	return false
}

// nearestFacility returns the closest disposal facility to point p, and the
// distance to it. ok is false when disposals is empty.
func nearestFacility(p domain.Point, disposals []domain.Location) (domain.Location, float64, bool) {
	best := -1
	bestDist := domain.Infinity
	for i, d := range disposals {
		dist := domain.Euclidean(p.X, p.Y, d.X, d.Y)
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	if best < 0 {
		return domain.Location{}, 0, false
	}
	return disposals[best], bestDist, true
}

// Cost computes cost(v, z) per spec §4.2, exported so callers reporting the
// bipartite candidate graph can reuse the exact cost model Assign uses.
// Infinity means v cannot serve z.
func Cost(depot domain.Location, v *domain.Vehicle, z *domain.Zone, disposals []domain.Location, cfg Config) float64 {
	return cost(depot, v, z, disposals, cfg)
}

// cost computes cost(v, z) per spec §4.2. Infinity means v cannot serve z.
func cost(depot domain.Location, v *domain.Vehicle, z *domain.Zone, disposals []domain.Location, cfg Config) float64 {
	if !v.CanAccess(z.ID) {
		return domain.Infinity
	}

	depotToZone := domain.Euclidean(depot.X, depot.Y, z.Centre.X, z.Centre.Y)

	var zoneToFacility, facilityToDepot float64
	if facility, distToFacility, ok := nearestFacility(z.Centre, disposals); ok {
		zoneToFacility = distToFacility
		facilityToDepot = domain.Euclidean(facility.X, facility.Y, depot.X, depot.Y)
	} else {
		// No disposal facility: direct return leg, per spec §4.2 and
		// confirmed by niveau2/src/affectateur_biparti.py.
		zoneToFacility = 0
		facilityToDepot = depotToZone
	}

	return cfg.CostPerKM*(depotToZone+zoneToFacility+facilityToDepot) + cfg.CostPerKG*z.Volume + v.FixedCost
}

// sortZones orders zones by (priority asc, volume desc, id asc) — the
// comparator shared by L2 and L3 (spec §4.2, §4.3).
func sortZones(zones []domain.Zone) []domain.Zone {
	sorted := make([]domain.Zone, len(zones))
	copy(sorted, zones)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		if sorted[i].Volume != sorted[j].Volume {
			return sorted[i].Volume > sorted[j].Volume
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// Assign runs the greedy bipartite assignment followed by load-balancing
// refinement (spec §4.2). Warnings list each zone that could not be placed
// on any vehicle; Assign never returns an error for that condition (it is
// the "infeasible" category, non-fatal per spec §7).
func Assign(ctx context.Context, in Input) (*domain.AssignmentResult, []string, error) {
	cfg := in.Config.withDefaults()

	if err := validate(in); err != nil {
		return nil, nil, err
	}

	incompat := buildIncompatibilitySet(in.Incompatible)

	states := make([]*vehicleState, len(in.Vehicles))
	for i := range in.Vehicles {
		v := &in.Vehicles[i]
		states[i] = &vehicleState{vehicle: v}
	}

	zoneByID := make(map[int64]*domain.Zone, len(in.Zones))
	for i := range in.Zones {
		zoneByID[in.Zones[i].ID] = &in.Zones[i]
	}

	var warnings []string
	var unassigned []int64

	for _, z := range sortZones(in.Zones) {
		zone := zoneByID[z.ID]
		best := pickVehicle(in.Depot, states, zone, in.Disposals, incompat, cfg)
		if best == nil {
			unassigned = append(unassigned, zone.ID)
			warnings = append(warnings, "zone "+strconv.FormatInt(zone.ID, 10)+" could not be assigned to any vehicle")
			continue
		}
		best.zoneIDs = append(best.zoneIDs, zone.ID)
		best.load += zone.Volume
	}

	rebalance(in.Depot, states, zoneByID, in.Disposals, incompat, cfg)

	result, verifyWarnings := buildResult(in.Depot, states, zoneByID, in.Disposals, unassigned, incompat, cfg)
	warnings = append(warnings, verifyWarnings...)

	select {
	case <-ctx.Done():
		return result, warnings, apperror.ErrBudgetExceeded
	default:
	}

	return result, warnings, nil
}

// pickVehicle finds the cheapest feasible vehicle for zone among states,
// tie-broken by ascending vehicle id (spec §4.2 step 2).
func pickVehicle(depot domain.Location, states []*vehicleState, zone *domain.Zone, disposals []domain.Location, incompat incompatibilitySet, cfg Config) *vehicleState {
	var best *vehicleState
	bestCost := domain.Infinity

	ordered := make([]*vehicleState, len(states))
	copy(ordered, states)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].vehicle.ID < ordered[j].vehicle.ID })

	for _, st := range ordered {
		if st.load+zone.Volume > st.vehicle.Capacity+domain.Epsilon {
			continue
		}
		if st.hasIncompatibleMember(zone.ID, incompat) {
			continue
		}
		c := cost(depot, st.vehicle, zone, disposals, cfg)
		if c >= domain.Infinity {
			continue
		}
		if c < bestCost-domain.Epsilon {
			bestCost = c
			best = st
		}
	}
	return best
}

// rebalance iteratively moves zones from overloaded to underloaded vehicles
// while the load stdev exceeds the configured fraction of the mean, for at
// most cfg.LoadBalanceMaxRounds rounds, stopping early at the first round
// that makes no move (spec §4.2 "Load-balancing refinement"). Only vehicles carrying at least one
// zone participate in the mean/stdev computation: an idle vehicle is not
// "underloaded" in the sense the spec's overloaded/underloaded language
// describes, it simply was not selected by the greedy pass (see DESIGN.md).
func rebalance(depot domain.Location, states []*vehicleState, zoneByID map[int64]*domain.Zone, disposals []domain.Location, incompat incompatibilitySet, cfg Config) {
	for round := 0; round < cfg.LoadBalanceMaxRounds; round++ {
		active := activeStates(states)
		if len(active) < 2 {
			return
		}
		mean, stdev := loadStats(active)
		if mean == 0 || stdev <= cfg.LoadBalanceStdevFraction*mean+domain.Epsilon {
			return
		}

		moved := attemptOneMove(active, mean, zoneByID, incompat, cfg)
		if !moved {
			return
		}
	}
}

func activeStates(states []*vehicleState) []*vehicleState {
	var active []*vehicleState
	for _, st := range states {
		if len(st.zoneIDs) > 0 {
			active = append(active, st)
		}
	}
	return active
}

func loadStats(states []*vehicleState) (mean, stdev float64) {
	var sum float64
	for _, st := range states {
		sum += st.load
	}
	mean = sum / float64(len(states))

	var variance float64
	for _, st := range states {
		d := st.load - mean
		variance += d * d
	}
	variance /= float64(len(states))
	return mean, math.Sqrt(variance)
}

// attemptOneMove finds the first feasible zone move from an overloaded
// vehicle to an underloaded one, in ascending (vehicle id, zone id) order,
// and applies it. It reports whether a move was made.
func attemptOneMove(states []*vehicleState, mean float64, zoneByID map[int64]*domain.Zone, incompat incompatibilitySet, cfg Config) bool {
	sorted := make([]*vehicleState, len(states))
	copy(sorted, states)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].vehicle.ID < sorted[j].vehicle.ID })

	var overloaded, underloaded []*vehicleState
	for _, st := range sorted {
		switch {
		case st.load > cfg.OverloadedFactor*mean:
			overloaded = append(overloaded, st)
		case st.load < cfg.UnderloadedFactor*mean:
			underloaded = append(underloaded, st)
		}
	}

	for _, from := range overloaded {
		zoneIDs := append([]int64(nil), from.zoneIDs...)
		sort.Slice(zoneIDs, func(i, j int) bool { return zoneIDs[i] < zoneIDs[j] })

		for _, zoneID := range zoneIDs {
			zone := zoneByID[zoneID]
			for _, to := range underloaded {
				if to == from {
					continue
				}
				if !to.vehicle.CanAccess(zone.ID) {
					continue
				}
				if to.load+zone.Volume > to.vehicle.Capacity+domain.Epsilon {
					continue
				}
				if to.hasIncompatibleMember(zone.ID, incompat) {
					continue
				}
				// Apply the move.
				from.zoneIDs = removeZone(from.zoneIDs, zoneID)
				from.load -= zone.Volume
				to.zoneIDs = append(to.zoneIDs, zoneID)
				to.load += zone.Volume
				return true
			}
		}
	}
	return false
}

func removeZone(zoneIDs []int64, target int64) []int64 {
	out := make([]int64, 0, len(zoneIDs))
	for _, id := range zoneIDs {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// buildResult assembles the final AssignmentResult plus any verification
// warnings (spec §4.2 step 3: "Verify constraints ... report each
// violation"). Under normal operation this verification never fires since
// the greedy pass and rebalancer only ever make feasible moves; it exists
// as a last-line invariant check.
func buildResult(depot domain.Location, states []*vehicleState, zoneByID map[int64]*domain.Zone, disposals []domain.Location, unassigned []int64, incompat incompatibilitySet, cfg Config) (*domain.AssignmentResult, []string) {
	var warnings []string

	sorted := make([]*vehicleState, len(states))
	copy(sorted, states)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].vehicle.ID < sorted[j].vehicle.ID })

	result := &domain.AssignmentResult{
		Unassigned: append([]int64(nil), unassigned...),
	}

	var totalLoad, totalCost, totalUtil float64
	vehiclesUsed := 0

	for _, st := range sorted {
		if len(st.zoneIDs) == 0 {
			continue
		}
		vehiclesUsed++

		if st.load > st.vehicle.Capacity+domain.Epsilon {
			warnings = append(warnings, "vehicle "+strconv.FormatInt(st.vehicle.ID, 10)+" exceeds capacity after assignment")
		}
		for i := 0; i < len(st.zoneIDs); i++ {
			for j := i + 1; j < len(st.zoneIDs); j++ {
				if incompat.conflicts(st.zoneIDs[i], st.zoneIDs[j]) {
					warnings = append(warnings, "vehicle "+strconv.FormatInt(st.vehicle.ID, 10)+" carries incompatible zones")
				}
			}
			if !st.vehicle.CanAccess(st.zoneIDs[i]) {
				warnings = append(warnings, "vehicle "+strconv.FormatInt(st.vehicle.ID, 10)+" carries an inaccessible zone")
			}
		}

		var zoneCost float64
		for _, zid := range st.zoneIDs {
			zoneCost += cost(depot, st.vehicle, zoneByID[zid], disposals, cfg)
		}

		util := 0.0
		if st.vehicle.Capacity > 0 {
			util = st.load / st.vehicle.Capacity * 100
		}

		result.Vehicles = append(result.Vehicles, domain.VehicleAssignment{
			VehicleID:      st.vehicle.ID,
			ZoneIDs:        append([]int64(nil), st.zoneIDs...),
			TotalLoad:      st.load,
			EstimatedCost:  zoneCost,
			UtilisationPct: util,
		})

		totalLoad += st.load
		totalCost += zoneCost
		totalUtil += util
	}

	result.VehiclesUsed = vehiclesUsed
	result.TotalCost = totalCost
	if vehiclesUsed > 0 {
		result.MeanLoad = totalLoad / float64(vehiclesUsed)
		result.MeanUtilisation = totalUtil / float64(vehiclesUsed)

		var variance float64
		for _, va := range result.Vehicles {
			d := va.TotalLoad - result.MeanLoad
			variance += d * d
		}
		result.StdevLoad = math.Sqrt(variance / float64(vehiclesUsed))
	}

	return result, warnings
}

func validate(in Input) error {
	if len(in.Vehicles) == 0 {
		return apperror.New(apperror.CodeInvalidArgument, "at least one vehicle is required").WithField("vehicles")
	}
	seenVehicle := make(map[int64]bool)
	for _, v := range in.Vehicles {
		if v.Capacity <= 0 {
			return apperror.NewWithField(apperror.CodeNegativeCapacity, "vehicle capacity must be positive", "vehicles.capacity").WithDetails("vehicleId", v.ID)
		}
		if seenVehicle[v.ID] {
			return apperror.NewWithField(apperror.CodeDuplicateID, "duplicate vehicle id", "vehicles.id").WithDetails("vehicleId", v.ID)
		}
		seenVehicle[v.ID] = true
	}

	seenZone := make(map[int64]bool)
	for _, z := range in.Zones {
		if z.Volume < 0 {
			return apperror.NewWithField(apperror.CodeNegativeVolume, "zone volume must be non-negative", "zones.volume").WithDetails("zoneId", z.ID)
		}
		if seenZone[z.ID] {
			return apperror.NewWithField(apperror.CodeDuplicateID, "duplicate zone id", "zones.id").WithDetails("zoneId", z.ID)
		}
		seenZone[z.ID] = true
	}

	for _, p := range in.Incompatible {
		if !seenZone[p.A] || !seenZone[p.B] {
			return apperror.New(apperror.CodeUnknownVertex, "incompatible-zone pair references unknown zone id").WithDetails("pair", p)
		}
	}

	return nil
}
