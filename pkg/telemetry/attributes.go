package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Standard span/event attribute keys, one group per pipeline phase.
const (
	// L1 road graph.
	AttrGraphNodes  = "graph.nodes"
	AttrGraphEdges  = "graph.edges"
	AttrGraphDepots = "graph.depot_id"

	// Shared across phases.
	AttrRunID = "pipeline.run_id"
	AttrPhase = "pipeline.phase"

	// L2 zone assignment.
	AttrAssignmentZones          = "assignment.zones"
	AttrAssignmentVehicles       = "assignment.vehicles_used"
	AttrAssignmentUnassigned     = "assignment.unassigned_zones"
	AttrAssignmentLoadStdevPct   = "assignment.load_stdev_pct"
	AttrAssignmentRebalanceRound = "assignment.rebalance_rounds"

	// L3 temporal planner.
	AttrPlannerEntries       = "planner.entries"
	AttrPlannerUnplaceable   = "planner.unplaceable_slots"
	AttrPlannerPenaltyTotal  = "planner.penalty_total"
	AttrPlannerFeasibleRatio = "planner.feasible_ratio"

	// L4 route optimiser.
	AttrOptimizerAlgorithm     = "optimizer.operator"
	AttrOptimizerIterations    = "optimizer.iterations"
	AttrOptimizerTourLengthKM  = "optimizer.tour_length_km"
	AttrOptimizerCrossings     = "optimizer.crossings_after"
	AttrOptimizerGapPct        = "optimizer.optimality_gap_pct"
	AttrOptimizerVehicleCount  = "optimizer.vehicle_count"
	AttrOptimizerWallClockUsed = "optimizer.wall_clock_used_ms"

	// Validation, shared by every phase's input checks.
	AttrValidationLevel  = "validation.level"
	AttrValidationErrors = "validation.errors"
	AttrValidationPassed = "validation.passed"
)

// GraphAttributes describes the road graph a pipeline run was built from.
func GraphAttributes(nodes, edges int, depotID int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.Int64(AttrGraphDepots, depotID),
	}
}

// RunAttributes correlates a span with a pipeline run and phase.
func RunAttributes(runID, phase string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrPhase, phase),
	}
}

// AssignmentAttributes describes the outcome of an L2 assignment run.
func AssignmentAttributes(zones, vehiclesUsed, unassigned int, loadStdevPct float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrAssignmentZones, zones),
		attribute.Int(AttrAssignmentVehicles, vehiclesUsed),
		attribute.Int(AttrAssignmentUnassigned, unassigned),
		attribute.Float64(AttrAssignmentLoadStdevPct, loadStdevPct),
	}
}

// PlannerAttributes describes the outcome of an L3 planning run.
func PlannerAttributes(entries, unplaceable int, penaltyTotal, feasibleRatio float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrPlannerEntries, entries),
		attribute.Int(AttrPlannerUnplaceable, unplaceable),
		attribute.Float64(AttrPlannerPenaltyTotal, penaltyTotal),
		attribute.Float64(AttrPlannerFeasibleRatio, feasibleRatio),
	}
}

// OptimizerAttributes describes the outcome of an L4 route-optimisation run.
func OptimizerAttributes(operator string, iterations int, tourLengthKM float64, crossings int, gapPct float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrOptimizerAlgorithm, operator),
		attribute.Int(AttrOptimizerIterations, iterations),
		attribute.Float64(AttrOptimizerTourLengthKM, tourLengthKM),
		attribute.Int(AttrOptimizerCrossings, crossings),
		attribute.Float64(AttrOptimizerGapPct, gapPct),
	}
}

// ValidationAttributes describes an input-validation pass.
func ValidationAttributes(level string, errorsCount int, passed bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrValidationLevel, level),
		attribute.Int(AttrValidationErrors, errorsCount),
		attribute.Bool(AttrValidationPassed, passed),
	}
}
