// Package optimizer implements L4, the route optimiser: the core of this
// repository. It converts an assignment of collection points to vehicles
// into one closed, capacity-feasible, crossing-free tour per vehicle,
// running a fixed pipeline of construction and local-search operators per
// vehicle (spec §4.4).
//
// The optimiser is single-threaded per request and holds no package-level
// mutable state: every field a run needs lives on a value constructed for
// that run and discarded when Optimize returns (spec §5, §9).
package optimizer

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"wasteroute/pkg/apperror"
	"wasteroute/pkg/domain"
)

// Input is L4's full request (spec §6 "L4: route optimisation").
type Input struct {
	Depot     domain.Location
	Points    []domain.Location
	Disposals []domain.Location
	Vehicles  []domain.Vehicle
	Oracle    DistanceOracle
	Seed      int64
	Config    Config
	Budget    time.Duration
}

// StepDetail is one waypoint of a VehicleRoute annotated with its running
// load, for the wire contract's stepDetails list.
type StepDetail struct {
	Order       int
	LocationID  int64
	Kind        domain.LocationKind
	Action      string
	VolumeDelta float64
	LoadAfter   float64
}

// VehicleRoute is one vehicle's optimised tour plus quality figures.
type VehicleRoute struct {
	VehicleID       int64
	Capacity        float64
	Waypoints       []domain.Waypoint
	TotalDistance   float64
	TotalCollected  float64
	DisposalVisits  int
	StepDetails     []StepDetail
	CrossingsBefore int
	CrossingsAfter  int
	LowerBoundKM    float64
	GapPct          float64
}

// GlobalStats summarises every vehicle route produced by one Optimize call.
type GlobalStats struct {
	TotalDistance          float64
	TotalCollected         float64
	VehiclesUsed           int
	DisposalTotal          int
	MeanDistancePerVehicle float64
	StdDistance            float64
	LowerBoundKM           float64
	GapPct                 float64
}

// Result is L4's full response.
type Result struct {
	Routes      []VehicleRoute
	GlobalStats GlobalStats
	Depot       domain.Location
	Disposals   []domain.Location
	Partial     bool
}

// Optimize runs the route optimiser over in (spec §4.4). It never returns
// an infeasible-category error: a vehicle that receives no points simply
// produces no route, and without disposal facilities every pickup is still
// toured whatever the vehicle's capacity, with no warning about it.
// A budget-exceeded condition yields the best tours built so far, flagged
// with Result.Partial.
func Optimize(ctx context.Context, in Input) (*Result, []string, error) {
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}

	cfg := in.Config.withDefaults()
	dist := buildDistanceFunc(in.Oracle)
	rng := rand.New(rand.NewSource(in.Seed))

	if in.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.Budget)
		defer cancel()
	}

	depot := in.Depot
	points := toPointerSlice(in.Points)
	disposals := toPointerSlice(in.Disposals)

	byVehicle := preassignPoints(&depot, points, in.Vehicles)

	vehicles := make([]domain.Vehicle, len(in.Vehicles))
	copy(vehicles, in.Vehicles)
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })

	var warnings []string
	var routes []VehicleRoute
	partial := false

	for _, v := range vehicles {
		assigned, ok := byVehicle[v.ID]
		if !ok || len(assigned) == 0 {
			continue
		}

		select {
		case <-ctx.Done():
			partial = true
			warnings = append(warnings, "wall-clock budget exceeded before every vehicle was optimised")
		default:
		}

		route, err := optimizeVehicle(ctx, &depot, assigned, disposals, v, dist, cfg, rng)
		if err != nil {
			if apperror.Is(err, apperror.CodeBudgetExceeded) {
				partial = true
				warnings = append(warnings, "vehicle "+strconv.FormatInt(v.ID, 10)+" optimisation truncated by wall-clock budget")
			} else {
				return nil, warnings, err
			}
		}
		routes = append(routes, route)
	}

	result := &Result{
		Routes:    routes,
		Depot:     depot,
		Disposals: in.Disposals,
		Partial:   partial,
	}
	result.GlobalStats = computeGlobalStats(routes)

	return result, warnings, nil
}

// optimizeVehicle runs the full per-vehicle pipeline of spec §4.4 (a)-(g):
// construction, 2-opt, 3-opt, 2-opt, Or-opt, simulated annealing, 2-opt,
// disposal reinsertion, crossing elimination.
func optimizeVehicle(ctx context.Context, depot *domain.Location, points []*domain.Location, disposals []*domain.Location, vehicle domain.Vehicle, dist distanceFunc, cfg Config, rng *rand.Rand) (VehicleRoute, error) {
	initial := constructInitialTour(depot, points, disposals, vehicle.Capacity, dist)
	crossingsBefore := len(countCrossings(waypointsToLocations(initial)))
	pickupSeq := extractPickupSequence(initial)

	numPickups := len(pickupSeq) - 2

	optimized := pickupSeq
	if numPickups >= 4 {
		if budgetExceeded(ctx) {
			return finalizeRoute(depot, optimized, disposals, vehicle, dist, crossingsBefore), apperror.ErrBudgetExceeded
		}
		optimized = applyLocalSearch(optimized, dist, cfg, rng, numPickups)
	}

	if budgetExceeded(ctx) {
		return finalizeRoute(depot, optimized, disposals, vehicle, dist, crossingsBefore), apperror.ErrBudgetExceeded
	}

	route := finalizeRoute(depot, optimized, disposals, vehicle, dist, crossingsBefore)
	return route, nil
}

// applyLocalSearch runs the bounded-iteration operator sequence of spec
// §4.4 (b)-(e) over the pickup-only sequence.
func applyLocalSearch(seq []*domain.Location, dist distanceFunc, cfg Config, rng *rand.Rand, numPickups int) []*domain.Location {
	twoOptIters := twoOptMaxIterations(numPickups)
	threeOptIters := threeOptMaxIterations(numPickups)

	if cfg.TwoOptEnabled {
		seq = twoOptSweep(seq, dist, twoOptIters)
	}
	if cfg.ThreeOptEnabled {
		seq = threeOptSweep(seq, dist, threeOptIters)
	}
	if cfg.TwoOptEnabled {
		seq = twoOptSweep(seq, dist, twoOptIters)
	}
	if cfg.OrOptEnabled {
		seq = orOptSweep(seq, dist, cfg.OrOptMaxSegment)
	}

	seq = simulatedAnnealing(seq, dist, cfg, rng)

	if cfg.TwoOptEnabled {
		seq = twoOptSweep(seq, dist, twoOptIters)
	}

	return seq
}

// finalizeRoute performs disposal reinsertion (spec §4.4 (f)) and the
// crossing-elimination pass (spec §4.4 (g)), then assembles the reported
// VehicleRoute including its before/after crossing counts and MST gap.
func finalizeRoute(depot *domain.Location, pickupSeq []*domain.Location, disposals []*domain.Location, vehicle domain.Vehicle, dist distanceFunc, crossingsBefore int) VehicleRoute {
	withDisposals := reinsertDisposals(pickupSeq, disposals, vehicle.Capacity, dist)
	fullSeq := waypointsToLocations(withDisposals)

	capacityOK := func(candidate []*domain.Location) bool {
		return capacityValid(candidate, vehicle.Capacity)
	}
	cleaned := eliminateCrossings(fullSeq, dist, capacityOK)
	crossingsAfter := len(countCrossings(cleaned))

	waypoints := locationsToWaypoints(cleaned)
	tour := &domain.Tour{VehicleID: vehicle.ID, Capacity: vehicle.Capacity, Waypoints: waypoints}

	pickupOnly := stripDisposals(cleaned)
	lowerBound := mstLowerBound(depot, onlyPickupLocations(pickupOnly), dist)

	length := sequenceLength(cleaned, dist)
	gapPct := 0.0
	if lowerBound > domain.Epsilon {
		gapPct = (length - lowerBound) / lowerBound * 100
	}

	return VehicleRoute{
		VehicleID:       vehicle.ID,
		Capacity:        vehicle.Capacity,
		Waypoints:       waypoints,
		TotalDistance:   length,
		TotalCollected:  tour.TotalCollected(),
		DisposalVisits:  tour.DisposalVisits(),
		StepDetails:     buildStepDetails(tour),
		CrossingsBefore: crossingsBefore,
		CrossingsAfter:  crossingsAfter,
		LowerBoundKM:    lowerBound,
		GapPct:          gapPct,
	}
}

func capacityValid(seq []*domain.Location, capacity float64) bool {
	load := 0.0
	for _, loc := range seq {
		switch loc.Kind {
		case domain.KindDisposal:
			load = 0
		case domain.KindCollection:
			load += loc.Volume
			if load > capacity+domain.Epsilon {
				return false
			}
		}
	}
	return true
}

func locationsToWaypoints(seq []*domain.Location) []domain.Waypoint {
	waypoints := make([]domain.Waypoint, len(seq))
	for i, loc := range seq {
		var role domain.WaypointRole
		switch {
		case i == 0:
			role = domain.RoleStart
		case i == len(seq)-1:
			role = domain.RoleEnd
		case loc.Kind == domain.KindDisposal:
			role = domain.RoleUnload
		default:
			role = domain.RolePickup
		}
		waypoints[i] = domain.Waypoint{Location: loc, Role: role}
	}
	return waypoints
}

func stripDisposals(seq []*domain.Location) []*domain.Location {
	out := make([]*domain.Location, 0, len(seq))
	for _, loc := range seq {
		if loc.Kind != domain.KindDisposal {
			out = append(out, loc)
		}
	}
	return out
}

func onlyPickupLocations(seq []*domain.Location) []*domain.Location {
	out := make([]*domain.Location, 0, len(seq))
	for _, loc := range seq {
		if loc.Kind == domain.KindCollection {
			out = append(out, loc)
		}
	}
	return out
}

func buildStepDetails(tour *domain.Tour) []StepDetail {
	steps := make([]StepDetail, len(tour.Waypoints))
	load := 0.0
	for i, wp := range tour.Waypoints {
		delta := 0.0
		switch wp.Role {
		case domain.RolePickup:
			delta = wp.Location.Volume
			load += delta
		case domain.RoleUnload:
			delta = -load
			load = 0
		}
		steps[i] = StepDetail{
			Order:       i,
			LocationID:  wp.Location.ID,
			Kind:        wp.Location.Kind,
			Action:      wp.Role.String(),
			VolumeDelta: delta,
			LoadAfter:   load,
		}
	}
	return steps
}

func computeGlobalStats(routes []VehicleRoute) GlobalStats {
	var stats GlobalStats
	if len(routes) == 0 {
		return stats
	}

	var distances []float64
	for _, r := range routes {
		stats.TotalDistance += r.TotalDistance
		stats.TotalCollected += r.TotalCollected
		stats.DisposalTotal += r.DisposalVisits
		stats.LowerBoundKM += r.LowerBoundKM
		distances = append(distances, r.TotalDistance)
	}
	stats.VehiclesUsed = len(routes)
	stats.MeanDistancePerVehicle = stats.TotalDistance / float64(len(routes))

	var variance float64
	for _, d := range distances {
		diff := d - stats.MeanDistancePerVehicle
		variance += diff * diff
	}
	stats.StdDistance = math.Sqrt(variance / float64(len(routes)))

	if stats.LowerBoundKM > domain.Epsilon {
		stats.GapPct = (stats.TotalDistance - stats.LowerBoundKM) / stats.LowerBoundKM * 100
	}

	return stats
}

func budgetExceeded(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func toPointerSlice(locs []domain.Location) []*domain.Location {
	out := make([]*domain.Location, len(locs))
	for i := range locs {
		out[i] = &locs[i]
	}
	return out
}

func validateInput(in Input) error {
	if in.Depot.Kind != domain.KindUnspecified && in.Depot.Kind != domain.KindDepot {
		return apperror.New(apperror.CodeInvalidArgument, "depot location must have kind depot").WithField("depot.kind")
	}
	for _, p := range in.Points {
		if p.Volume < 0 {
			return apperror.NewWithField(apperror.CodeNegativeVolume, "collection point volume must be non-negative", "points.volume").WithDetails("pointId", p.ID)
		}
	}
	seen := make(map[int64]bool)
	for _, v := range in.Vehicles {
		if v.Capacity <= 0 {
			return apperror.NewWithField(apperror.CodeNegativeCapacity, "vehicle capacity must be positive", "vehicles.capacity").WithDetails("vehicleId", v.ID)
		}
		if seen[v.ID] {
			return apperror.NewWithField(apperror.CodeDuplicateID, "duplicate vehicle id", "vehicles.id").WithDetails("vehicleId", v.ID)
		}
		seen[v.ID] = true
	}
	return nil
}
