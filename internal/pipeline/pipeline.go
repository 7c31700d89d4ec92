package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"wasteroute/internal/assignment"
	"wasteroute/internal/optimizer"
	"wasteroute/internal/planner"
	"wasteroute/internal/roadgraph"
	"wasteroute/pkg/apperror"
	"wasteroute/pkg/cache"
	"wasteroute/pkg/config"
	"wasteroute/pkg/domain"
	"wasteroute/pkg/logger"
	"wasteroute/pkg/metrics"
	"wasteroute/pkg/telemetry"
)

// Pipeline wires L1 (internal/roadgraph) through L4 (internal/optimizer)
// behind the four wire-shaped functions of spec §6. A zero-value Pipeline
// runs with every default and no distance-matrix cache; New attaches a
// tuned config and an optional cache.
type Pipeline struct {
	Config      config.OptimizerConfig
	MatrixCache *cache.MatrixCache
}

// New builds a Pipeline from a tuned optimizer config and an optional
// distance-matrix cache (nil disables L1 caching).
func New(cfg config.OptimizerConfig, matrixCache *cache.MatrixCache) *Pipeline {
	return &Pipeline{Config: cfg, MatrixCache: matrixCache}
}

func (p *Pipeline) matrixBuilder() *roadgraph.CachingMatrixBuilder {
	if p == nil {
		return roadgraph.NewCachingMatrixBuilder(nil)
	}
	return roadgraph.NewCachingMatrixBuilder(p.MatrixCache)
}

func (p *Pipeline) assignmentConfig() assignment.Config {
	if p == nil {
		return assignment.Config{}
	}
	return assignment.Config{
		CostPerKM:                p.Config.CostPerKM,
		CostPerKG:                p.Config.CostPerKG,
		LoadBalanceStdevFraction: p.Config.LoadBalanceStdevFraction,
		OverloadedFactor:         p.Config.OverloadedFactor,
		UnderloadedFactor:        p.Config.UnderloadedFactor,
		LoadBalanceMaxRounds:     p.Config.LoadBalanceMaxRounds,
	}
}

func (p *Pipeline) optimizerConfig() optimizer.Config {
	if p == nil {
		return optimizer.Config{}
	}
	return optimizer.Config{
		TwoOptEnabled:      p.Config.TwoOptEnabled,
		ThreeOptEnabled:    p.Config.ThreeOptEnabled,
		OrOptEnabled:       p.Config.OrOptEnabled,
		OrOptMaxSegment:    p.Config.OrOptMaxSegment,
		InitialTemperature: p.Config.InitialTemperature,
		CoolingRate:        p.Config.CoolingRate,
		MinTemperature:     p.Config.MinTemperature,
		MaxIterations:      p.Config.MaxIterations,
		MaxIterationsSmall: p.Config.MaxIterationsSmall,
		SmallInstanceSize:  p.Config.SmallInstanceSize,
	}
}

func (p *Pipeline) wallClockBudget() time.Duration {
	if p == nil {
		return 0
	}
	return p.Config.WallClockBudget
}

func newRunID() string {
	return uuid.NewString()
}

func recordPhase(phase string, start time.Time) {
	metrics.Get().RecordPhase(phase, time.Since(start))
}

// --- L1: DistanceQuery ---

// DistanceQuery runs the road-graph phase with package defaults (spec §6).
func DistanceQuery(ctx context.Context, req DistanceQueryRequest) (*DistanceQueryResponse, error) {
	return (&Pipeline{}).DistanceQuery(ctx, req)
}

// DistanceQuery builds the road graph from req, returning the all-pairs
// distance matrix, the shortest path for every unordered vertex pair and
// the ascending vertex-id ordering the matrix's rows/columns follow.
//
// The spec leaves "which pairs get a path entry" unspecified; this
// implementation reports one entry per unordered pair (i<j) in ascending id
// order, mirroring the matrix's own upper triangle (documented in
// DESIGN.md).
func (p *Pipeline) DistanceQuery(ctx context.Context, req DistanceQueryRequest) (*DistanceQueryResponse, error) {
	runID := newRunID()
	log := logger.WithRunID(runID).WithPhase("roadgraph.build")
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "roadgraph.build", telemetry.WithAttributes(telemetry.RunAttributes(runID, "roadgraph.build")...))
	defer span.End()
	defer recordPhase("roadgraph.build", start)

	g := roadgraph.New()
	locations := make([]*domain.Location, 0, len(req.Points)+len(req.Disposals))

	for _, pt := range req.Points {
		loc := &domain.Location{ID: pt.ID, X: pt.X, Y: pt.Y, Name: pt.Name, Kind: domain.KindCollection}
		g.AddVertex(loc)
		locations = append(locations, loc)
	}
	for _, d := range req.Disposals {
		loc := &domain.Location{
			ID: d.ID, X: d.X, Y: d.Y, Name: d.Name, Kind: domain.KindDisposal,
			Capacity: d.Capacity, AcceptedWaste: d.Accepted, Schedule: d.Schedule,
		}
		g.AddVertex(loc)
		locations = append(locations, loc)
	}

	edges := make([]domain.Edge, 0, len(req.Connections))
	for _, c := range req.Connections {
		if err := g.AddEdge(c.From, c.To, c.Distance); err != nil {
			telemetry.SetError(ctx, err)
			log.Warn("rejected connection", "from", c.From, "to", c.To, "error", err)
			return nil, err
		}
		w, _ := g.EdgeWeight(c.From, c.To)
		edges = append(edges, domain.Edge{A: c.From, B: c.To, Distance: w})
	}

	depotID := int64(0)
	telemetry.SetAttributes(ctx, telemetry.GraphAttributes(g.VertexCount(), len(edges), depotID)...)

	orderedIDs, floatMatrix, hit, err := p.matrixBuilder().Build(ctx, g, locations, edges)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	paths := buildPairPaths(ctx, g, orderedIDs)

	log.Info("road graph built", "vertices", g.VertexCount(), "edges", len(edges), "cache_hit", hit)

	return &DistanceQueryResponse{
		Matrix:     toWireMatrix(floatMatrix),
		Paths:      paths,
		OrderedIDs: orderedIDs,
		RunID:      runID,
	}, nil
}

// buildPairPaths reconstructs the shortest path for every unordered pair of
// ordered ids with i<j.
func buildPairPaths(ctx context.Context, g *roadgraph.Graph, orderedIDs []int64) []PathResult {
	var paths []PathResult
	for i := 0; i < len(orderedIDs); i++ {
		for j := i + 1; j < len(orderedIDs); j++ {
			d, path, err := roadgraph.ShortestPath(ctx, g, orderedIDs[i], orderedIDs[j])
			if err != nil || d >= domain.Infinity {
				continue
			}
			paths = append(paths, PathResult{From: orderedIDs[i], To: orderedIDs[j], Distance: d, Path: path})
		}
	}
	return paths
}

func toWireMatrix(matrix [][]float64) [][]*float64 {
	out := make([][]*float64, len(matrix))
	for i, row := range matrix {
		out[i] = make([]*float64, len(row))
		for j, v := range row {
			if v >= domain.Infinity {
				out[i][j] = nil
				continue
			}
			val := v
			out[i][j] = &val
		}
	}
	return out
}

// --- L2: AssignZones ---

// AssignZones runs the zone-assignment phase with package defaults (spec §6).
func AssignZones(ctx context.Context, req AssignZonesRequest) (*AssignZonesResponse, error) {
	return (&Pipeline{}).AssignZones(ctx, req)
}

// AssignZones assigns zones to vehicles and reports the bipartite candidate
// graph the greedy pass considered.
func (p *Pipeline) AssignZones(ctx context.Context, req AssignZonesRequest) (*AssignZonesResponse, error) {
	runID := newRunID()
	log := logger.WithRunID(runID).WithPhase("assignment.run")
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "assignment.run", telemetry.WithAttributes(telemetry.RunAttributes(runID, "assignment.run")...))
	defer span.End()
	defer recordPhase("assignment.run", start)

	depot := findDepot(req.Points, req.Disposals)

	vehicles := make([]domain.Vehicle, len(req.Vehicles))
	for i, v := range req.Vehicles {
		vehicles[i] = toDomainVehicle(v)
	}

	zones := make([]domain.Zone, len(req.Zones))
	for i, z := range req.Zones {
		zones[i] = domain.Zone{
			ID:        z.ID,
			PointIDs:  append([]int64(nil), z.Points...),
			Volume:    z.Volume,
			Centre:    domain.Point{X: z.Centre.X, Y: z.Centre.Y},
			Priority:  domain.ParsePriority(z.Priority),
			Frequency: z.Frequency,
		}
	}

	disposals := make([]domain.Location, len(req.Disposals))
	for i, d := range req.Disposals {
		disposals[i] = domain.Location{ID: d.ID, X: d.X, Y: d.Y, Name: d.Name, Kind: domain.KindDisposal, Capacity: d.Capacity}
	}

	incompatible := make([]domain.IncompatiblePair, len(req.IncompatibleZones))
	for i, pair := range req.IncompatibleZones {
		incompatible[i] = domain.IncompatiblePair{A: pair[0], B: pair[1]}
	}

	in := assignment.Input{
		Depot:        depot,
		Vehicles:     vehicles,
		Zones:        zones,
		Disposals:    disposals,
		Incompatible: incompatible,
		Config:       p.assignmentConfig(),
	}

	result, warnings, err := assignment.Assign(ctx, in)
	if err != nil && !apperror.Is(err, apperror.CodeBudgetExceeded) {
		telemetry.SetError(ctx, err)
		log.Warn("assignment rejected", "error", err)
		return nil, err
	}

	bipartite := buildBipartite(depot, vehicles, zones, disposals, p.assignmentConfig())

	telemetry.SetAttributes(ctx, telemetry.AssignmentAttributes(len(zones), result.VehiclesUsed, len(result.Unassigned), loadStdevFraction(result))...)
	metrics.Get().RecordAssignment(runID, result.VehiclesUsed, loadStdevFraction(result), len(result.Unassigned))

	log.Info("zone assignment complete", "vehicles_used", result.VehiclesUsed, "unassigned", len(result.Unassigned))

	resp := &AssignZonesResponse{
		Assignment: toAssignmentOutputs(result.Vehicles),
		Statistics: AssignmentStatistics{
			VehiclesUsed:       result.VehiclesUsed,
			MeanLoad:           result.MeanLoad,
			StdLoad:            result.StdevLoad,
			Unassigned:         append([]int64(nil), result.Unassigned...),
			TotalCost:          result.TotalCost,
			MeanUtilisationPct: result.MeanUtilisation,
		},
		Bipartite: bipartite,
		RunID:     runID,
		Warnings:  warnings,
	}
	return resp, nil
}

func loadStdevFraction(r *domain.AssignmentResult) float64 {
	if r.MeanLoad == 0 {
		return 0
	}
	return r.StdevLoad / r.MeanLoad
}

func toAssignmentOutputs(vas []domain.VehicleAssignment) []VehicleAssignmentOutput {
	out := make([]VehicleAssignmentOutput, len(vas))
	for i, va := range vas {
		out[i] = VehicleAssignmentOutput{
			VehicleID:      va.VehicleID,
			Zones:          append([]int64(nil), va.ZoneIDs...),
			TotalLoad:      va.TotalLoad,
			EstimatedCost:  va.EstimatedCost,
			UtilisationPct: va.UtilisationPct,
		}
	}
	return out
}

// buildBipartite reports every feasible (vehicle, zone) candidate edge the
// greedy pass could have considered, with its cost, for observability (spec
// §6's bipartite view).
func buildBipartite(depot domain.Location, vehicles []domain.Vehicle, zones []domain.Zone, disposals []domain.Location, cfg assignment.Config) BipartiteGraph {
	cfg = cfg.WithDefaults()
	var edges []BipartiteEdge
	for _, v := range vehicles {
		for _, z := range zones {
			c := assignment.Cost(depot, &v, &z, disposals, cfg)
			if c >= domain.Infinity {
				continue
			}
			edges = append(edges, BipartiteEdge{Vehicle: v.ID, Zone: z.ID, Cost: c})
		}
	}
	return BipartiteGraph{VehicleNodes: len(vehicles), ZoneNodes: len(zones), Edges: edges}
}

func toDomainVehicle(v VehicleInput) domain.Vehicle {
	dv := domain.Vehicle{ID: v.ID, Capacity: v.Capacity, FixedCost: v.FixedCost}
	if len(v.AllowedZones) > 0 {
		dv.AllowedZones = make(map[int64]bool, len(v.AllowedZones))
		for _, z := range v.AllowedZones {
			dv.AllowedZones[z] = true
		}
	}
	if v.InitialPosition != nil {
		dv.InitialX = v.InitialPosition.X
		dv.InitialY = v.InitialPosition.Y
		dv.HasInitialPos = true
	}
	return dv
}

// findDepot resolves the depot location for L2/L3, whose wire requests (spec
// §6) carry no dedicated depot field: only L4's request does. Per the
// convention fixed in DESIGN.md, the depot is the point with id 0 if one is
// present, else the point with the lowest id, else the origin.
func findDepot(points []PointInput, disposals []DisposalInput) domain.Location {
	if len(points) == 0 {
		return domain.Location{Kind: domain.KindDepot}
	}
	best := points[0]
	for _, p := range points[1:] {
		if p.ID == 0 {
			best = p
			break
		}
		if p.ID < best.ID {
			best = p
		}
	}
	return domain.Location{ID: best.ID, X: best.X, Y: best.Y, Name: best.Name, Kind: domain.KindDepot}
}

// --- L3: PlanSchedule ---

// PlanSchedule runs the temporal-planning phase with package defaults (spec §6).
func PlanSchedule(ctx context.Context, req PlanScheduleRequest) (*PlanScheduleResponse, error) {
	return (&Pipeline{}).PlanSchedule(ctx, req)
}

// PlanSchedule assigns L2-style vehicle/zone assignments into time slots.
// Since this wire entry point receives vehicles and zones directly rather
// than an upstream AssignmentResult, it first derives one via AssignZones
// using the same request's vehicle/zone/disposal data (spec §6 lists the
// same shared fields on both the L2 and L3 requests for this reason).
func (p *Pipeline) PlanSchedule(ctx context.Context, req PlanScheduleRequest) (*PlanScheduleResponse, error) {
	runID := newRunID()
	log := logger.WithRunID(runID).WithPhase("planner.run")
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "planner.run", telemetry.WithAttributes(telemetry.RunAttributes(runID, "planner.run")...))
	defer span.End()
	defer recordPhase("planner.run", start)

	assignResp, err := p.AssignZones(ctx, AssignZonesRequest{
		Vehicles:          req.Vehicles,
		Zones:             req.Zones,
		IncompatibleZones: req.IncompatibleZones,
		Points:            req.Points,
		Connections:       req.Connections,
		Disposals:         req.Disposals,
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	assignmentResult := &domain.AssignmentResult{
		Unassigned:      assignResp.Statistics.Unassigned,
		VehiclesUsed:    assignResp.Statistics.VehiclesUsed,
		MeanLoad:        assignResp.Statistics.MeanLoad,
		StdevLoad:       assignResp.Statistics.StdLoad,
		TotalCost:       assignResp.Statistics.TotalCost,
		MeanUtilisation: assignResp.Statistics.MeanUtilisationPct,
	}
	for _, a := range assignResp.Assignment {
		assignmentResult.Vehicles = append(assignmentResult.Vehicles, domain.VehicleAssignment{
			VehicleID:      a.VehicleID,
			ZoneIDs:        a.Zones,
			TotalLoad:      a.TotalLoad,
			EstimatedCost:  a.EstimatedCost,
			UtilisationPct: a.UtilisationPct,
		})
	}

	zones := make([]domain.Zone, len(req.Zones))
	for i, z := range req.Zones {
		zones[i] = domain.Zone{
			ID:        z.ID,
			PointIDs:  append([]int64(nil), z.Points...),
			Volume:    z.Volume,
			Centre:    domain.Point{X: z.Centre.X, Y: z.Centre.Y},
			Priority:  domain.ParsePriority(z.Priority),
			Frequency: z.Frequency,
		}
	}

	slots := make([]domain.TimeSlot, len(req.Slots))
	for i, s := range req.Slots {
		startMin, errS := parseHHMM(s.Start)
		endMin, errE := parseHHMM(s.End)
		if errS != nil || errE != nil {
			err := apperror.NewWithField(apperror.CodeMalformedTime, "slot time must be HH:MM", "slots.start").WithDetails("slotId", s.ID)
			telemetry.SetError(ctx, err)
			return nil, err
		}
		slots[i] = domain.TimeSlot{ID: s.ID, Day: s.Day, Start: startMin, End: endMin, Congestion: s.Congestion}
	}

	constraints, err := toTemporalConstraints(req.Constraints)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	plan, warnings, err := planner.Run(ctx, planner.Input{
		Assignment:  assignmentResult,
		Zones:       zones,
		Slots:       slots,
		Constraints: constraints,
		HorizonDays: req.HorizonDays,
	})
	if err != nil && !apperror.Is(err, apperror.CodeBudgetExceeded) {
		telemetry.SetError(ctx, err)
		log.Warn("planning rejected", "error", err)
		return nil, err
	}

	entries := 0
	for _, v := range plan.Days {
		entries += len(v)
	}
	telemetry.SetAttributes(ctx, telemetry.PlannerAttributes(entries, len(warnings), 0, plan.ScheduleRespectPct/100)...)

	log.Info("temporal plan complete", "entries", entries, "occupancy_pct", plan.OccupancyPct)

	return &PlanScheduleResponse{
		Plan: toPlanOutput(plan.Days),
		Indicators: PlanIndicators{
			OccupancyPct:       plan.OccupancyPct,
			ScheduleRespectPct: plan.ScheduleRespectPct,
			CongestionAverage:  plan.CongestionAverage,
			MeanDelay:          plan.MeanDelay,
		},
		RunID:    runID,
		Warnings: warnings,
	}, nil
}

func toTemporalConstraints(c ConstraintsInput) (domain.TemporalConstraints, error) {
	tc := domain.TemporalConstraints{
		Windows:        make(map[int64]domain.Window, len(c.Windows)),
		Breaks:         make(map[int64][]domain.Break, len(c.Breaks)),
		NightForbidden: make(map[int64]bool, len(c.NightForbidden)),
	}

	for _, w := range c.Windows {
		open, err := parseHHMM(w.Open)
		if err != nil {
			return tc, apperror.NewWithField(apperror.CodeMalformedTime, "window open must be HH:MM", "constraints.windows.open").WithDetails("zoneId", w.ZoneID)
		}
		close_, err := parseHHMM(w.Close)
		if err != nil {
			return tc, apperror.NewWithField(apperror.CodeMalformedTime, "window close must be HH:MM", "constraints.windows.close").WithDetails("zoneId", w.ZoneID)
		}
		tc.Windows[w.ZoneID] = domain.Window{Open: open, Close: close_}
	}

	for _, b := range c.Breaks {
		startMin, err := parseHHMM(b.Start)
		if err != nil {
			return tc, apperror.NewWithField(apperror.CodeMalformedTime, "break start must be HH:MM", "constraints.breaks.start").WithDetails("vehicleId", b.VehicleID)
		}
		endMin := startMin + int(b.Hours*60)
		tc.Breaks[b.VehicleID] = append(tc.Breaks[b.VehicleID], domain.Break{Start: startMin, End: endMin})
	}

	for _, id := range c.NightForbidden {
		tc.NightForbidden[id] = true
	}

	if len(c.Durations) > 0 {
		tc.Durations = make(map[int64]int, len(c.Durations))
		for k, v := range c.Durations {
			zoneID, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return tc, apperror.NewWithField(apperror.CodeInvalidArgument, "duration key must be a zone id", "constraints.durations")
			}
			tc.Durations[zoneID] = v
		}
	}

	return tc, nil
}

func toPlanOutput(days map[string][]domain.PlanEntry) map[string][]PlanEntryOutput {
	out := make(map[string][]PlanEntryOutput, len(days))
	for day, entries := range days {
		list := make([]PlanEntryOutput, len(entries))
		for i, e := range entries {
			tasks := make([]TaskOutput, len(e.Tasks))
			for j, t := range e.Tasks {
				tasks[j] = TaskOutput{PointID: t.PointID, Order: t.Order, EstimatedTime: formatHHMM(t.EstimatedTime)}
			}
			list[i] = PlanEntryOutput{
				VehicleID: e.VehicleID,
				ZoneID:    e.ZoneID,
				Slot:      SlotSummary{Day: e.Slot.Day, Start: formatHHMM(e.Slot.Start), End: formatHHMM(e.Slot.End)},
				SlotID:    e.Slot.ID,
				Duration:  e.Duration,
				Tasks:     tasks,
			}
		}
		out[day] = list
	}
	return out
}

// --- L4: OptimizeRoutes ---

// OptimizeRoutes runs the route-optimisation phase with package defaults
// (spec §6).
func OptimizeRoutes(ctx context.Context, req OptimizeRoutesRequest) (*OptimizeRoutesResponse, error) {
	return (&Pipeline{}).OptimizeRoutes(ctx, req)
}

// OptimizeRoutes builds one optimised tour per vehicle from req.
func (p *Pipeline) OptimizeRoutes(ctx context.Context, req OptimizeRoutesRequest) (*OptimizeRoutesResponse, error) {
	runID := newRunID()
	log := logger.WithRunID(runID).WithPhase("optimizer.run")
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "optimizer.run", telemetry.WithAttributes(telemetry.RunAttributes(runID, "optimizer.run")...))
	defer span.End()
	defer recordPhase("optimizer.run", start)

	depot := domain.Location{ID: req.Depot.ID, X: req.Depot.X, Y: req.Depot.Y, Name: req.Depot.Name, Kind: domain.KindDepot}

	points := make([]domain.Location, len(req.Points))
	for i, pt := range req.Points {
		points[i] = domain.Location{ID: pt.ID, X: pt.X, Y: pt.Y, Name: pt.Name, Kind: domain.KindCollection, Volume: pt.Volume}
	}

	disposals := make([]domain.Location, len(req.Disposals))
	for i, d := range req.Disposals {
		disposals[i] = domain.Location{ID: d.ID, X: d.X, Y: d.Y, Name: d.Name, Kind: domain.KindDisposal}
	}

	vehicles := make([]domain.Vehicle, len(req.Vehicles))
	for i, v := range req.Vehicles {
		vehicles[i] = toDomainVehicle(VehicleInput{ID: v.ID, Capacity: v.Capacity, FixedCost: v.FixedCost, AllowedZones: v.AllowedZones})
	}

	oracle, err := toDistanceOracle(req.DistanceMatrix)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	in := optimizer.Input{
		Depot:     depot,
		Points:    points,
		Disposals: disposals,
		Vehicles:  vehicles,
		Oracle:    oracle,
		Seed:      req.Seed,
		Config:    p.optimizerConfig(),
		Budget:    p.wallClockBudget(),
	}

	result, warnings, err := optimizer.Optimize(ctx, in)
	if err != nil {
		telemetry.SetError(ctx, err)
		log.Warn("optimisation rejected", "error", err)
		return nil, err
	}

	routes := make([]VehicleRouteOutput, len(result.Routes))
	for i, r := range result.Routes {
		routes[i] = toRouteOutput(r)
		metrics.Get().RecordTourQuality(strconv.FormatInt(r.VehicleID, 10), r.TotalDistance, r.CrossingsAfter, r.GapPct)
		telemetry.AddEvent(ctx, "vehicle.route.optimised", telemetry.OptimizerAttributes("full-pipeline", 0, r.TotalDistance, r.CrossingsAfter, r.GapPct)...)
	}

	log.Info("route optimisation complete", "vehicles", len(routes), "partial", result.Partial)

	return &OptimizeRoutesResponse{
		Routes: routes,
		GlobalStats: GlobalStatsOutput{
			TotalDistance:          result.GlobalStats.TotalDistance,
			TotalCollected:         result.GlobalStats.TotalCollected,
			VehiclesUsed:           result.GlobalStats.VehiclesUsed,
			DisposalTotal:          result.GlobalStats.DisposalTotal,
			MeanDistancePerVehicle: result.GlobalStats.MeanDistancePerVehicle,
			StdDistance:            result.GlobalStats.StdDistance,
			LowerBoundKm:           result.GlobalStats.LowerBoundKM,
			GapPct:                 result.GlobalStats.GapPct,
		},
		Depot:     req.Depot,
		Disposals: req.Disposals,
		RunID:     runID,
		Partial:   result.Partial,
		Warnings:  warnings,
	}, nil
}

func toRouteOutput(r optimizer.VehicleRoute) VehicleRouteOutput {
	waypoints := make([]WaypointOutput, len(r.Waypoints))
	for i, wp := range r.Waypoints {
		out := WaypointOutput{ID: wp.Location.ID, X: wp.Location.X, Y: wp.Location.Y, Kind: wp.Location.Kind.String()}
		if wp.Role == domain.RolePickup {
			v := wp.Location.Volume
			out.Volume = &v
		}
		waypoints[i] = out
	}

	steps := make([]StepDetailOutput, len(r.StepDetails))
	for i, s := range r.StepDetails {
		steps[i] = StepDetailOutput{
			Order:       s.Order,
			PointID:     s.LocationID,
			Kind:        s.Kind.String(),
			Action:      s.Action,
			VolumeDelta: s.VolumeDelta,
			LoadAfter:   s.LoadAfter,
		}
	}

	eliminatedPct := 0.0
	if r.CrossingsBefore > 0 {
		eliminatedPct = float64(r.CrossingsBefore-r.CrossingsAfter) / float64(r.CrossingsBefore) * 100
	}

	return VehicleRouteOutput{
		VehicleID:      r.VehicleID,
		Capacity:       r.Capacity,
		Waypoints:      waypoints,
		TotalDistance:  r.TotalDistance,
		TotalCollected: r.TotalCollected,
		DisposalVisits: r.DisposalVisits,
		StepDetails:    steps,
		Crossings: CrossingsOutput{
			Before:        r.CrossingsBefore,
			After:         r.CrossingsAfter,
			EliminatedPct: eliminatedPct,
		},
	}
}

// toDistanceOracle parses a wire distanceMatrix keyed by canonical pair keys
// in the form domain.EdgeKey.String() produces ("<a><->b>").
func toDistanceOracle(wire map[string]float64) (optimizer.DistanceOracle, error) {
	if len(wire) == 0 {
		return nil, nil
	}
	oracle := make(optimizer.DistanceOracle, len(wire))
	for key, km := range wire {
		var a, b int64
		if _, err := fmt.Sscanf(key, "%d<->%d", &a, &b); err != nil {
			return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "distanceMatrix key must be \"<id><->id>\"", "distanceMatrix").WithDetails("key", key)
		}
		oracle[domain.NewEdgeKey(a, b)] = km
	}
	return oracle, nil
}

// parseHHMM parses a 24-hour "HH:MM" string into minutes since midnight.
func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// formatHHMM formats minutes since midnight as a 24-hour "HH:MM" string,
// wrapping values outside [0,1440) into that range.
func formatHHMM(minutes int) string {
	minutes = ((minutes % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
