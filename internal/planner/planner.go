// Package planner implements L3: the tripartite temporal planner that
// places each (vehicle, zone) pair from L2's assignment into a weekly time
// slot, respecting opening windows, driver breaks, night bans and
// congestion-adjusted duration (spec §4.3).
package planner

import (
	"context"
	"sort"
	"strconv"

	"wasteroute/pkg/apperror"
	"wasteroute/pkg/domain"
)

// Input is L3's full request: the assignment produced by L2, the slot pool
// and the policy constraints that govern feasibility.
type Input struct {
	Assignment  *domain.AssignmentResult
	Zones       []domain.Zone
	Slots       []domain.TimeSlot
	Constraints domain.TemporalConstraints
	HorizonDays []string // ordered day names; nil means "use every day seen in Slots"
}

// Plan is L3's output: a per-day list of placements plus aggregate
// indicators (spec §4.3 "Outputs").
type Plan struct {
	Days map[string][]domain.PlanEntry

	OccupancyPct       float64
	CongestionAverage  float64
	ScheduleRespectPct float64
	MeanDelay          float64
}

// Run runs the tripartite temporal planner over in (spec §4.3). Zones
// that cannot be placed in any slot are skipped with a warning, never a
// hard error (spec §7: "infeasible" is folded into the response).
func Run(ctx context.Context, in Input) (*Plan, []string, error) {
	if in.Assignment == nil {
		return nil, nil, apperror.New(apperror.CodeNilInput, "assignment result is required").WithField("assignment")
	}

	zoneByID := make(map[int64]*domain.Zone, len(in.Zones))
	zonePointCount := make(map[int64]int, len(in.Zones))
	for i := range in.Zones {
		z := &in.Zones[i]
		zoneByID[z.ID] = z
		zonePointCount[z.ID] = len(z.PointIDs)
	}

	plan := &Plan{Days: make(map[string][]domain.PlanEntry)}
	var warnings []string

	takenByVehicle := make(map[int64][]domain.TimeSlot)

	totalSlotCongestion := 0.0
	for _, s := range in.Slots {
		totalSlotCongestion += s.Congestion
	}

	placed := 0
	slotCount := len(in.Slots)
	vehicleCount := len(in.Assignment.Vehicles)

	for _, va := range orderedVehicleAssignments(in.Assignment.Vehicles) {
		zones := zonesFor(va.ZoneIDs, zoneByID)
		sortZones(zones)

		for _, zone := range zones {
			select {
			case <-ctx.Done():
				return plan, warnings, apperror.ErrBudgetExceeded
			default:
			}

			duration := in.Constraints.EstimateDuration(zone.ID, zonePointCount[zone.ID])
			slot, ok := selectSlot(va.VehicleID, zone.ID, duration, in.Slots, takenByVehicle[va.VehicleID], in.Constraints)
			if !ok {
				warnings = append(warnings, "zone "+strconv.FormatInt(zone.ID, 10)+" could not be scheduled for vehicle "+strconv.FormatInt(va.VehicleID, 10))
				continue
			}

			takenByVehicle[va.VehicleID] = append(takenByVehicle[va.VehicleID], slot)
			entry := domain.PlanEntry{
				VehicleID: va.VehicleID,
				ZoneID:    zone.ID,
				Slot:      slot,
				Duration:  duration,
				Tasks:     buildTasks(zone, slot),
			}
			plan.Days[slot.Day] = append(plan.Days[slot.Day], entry)
			placed++
		}
	}

	if slotCount > 0 && vehicleCount > 0 {
		plan.OccupancyPct = float64(placed) / float64(slotCount*vehicleCount) * 100
	}
	if slotCount > 0 {
		plan.CongestionAverage = totalSlotCongestion / float64(slotCount)
	}
	// Every placement in plan.Days already satisfies the window/break/night/
	// duration feasibility checks by construction, so schedule-respect is
	// always 100% and mean delay is always 0 (spec §4.3 "Outputs").
	plan.ScheduleRespectPct = 100
	plan.MeanDelay = 0

	return plan, warnings, nil
}

func orderedVehicleAssignments(vas []domain.VehicleAssignment) []domain.VehicleAssignment {
	sorted := make([]domain.VehicleAssignment, len(vas))
	copy(sorted, vas)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].VehicleID < sorted[j].VehicleID })
	return sorted
}

func zonesFor(ids []int64, zoneByID map[int64]*domain.Zone) []domain.Zone {
	zones := make([]domain.Zone, 0, len(ids))
	for _, id := range ids {
		if z, ok := zoneByID[id]; ok {
			zones = append(zones, *z)
		}
	}
	return zones
}

// sortZones orders zones the same way L2 does: (priority asc, volume desc,
// id asc) (spec §4.3 "Zone ordering inside each vehicle").
func sortZones(zones []domain.Zone) {
	sort.Slice(zones, func(i, j int) bool {
		if zones[i].Priority != zones[j].Priority {
			return zones[i].Priority < zones[j].Priority
		}
		if zones[i].Volume != zones[j].Volume {
			return zones[i].Volume > zones[j].Volume
		}
		return zones[i].ID < zones[j].ID
	})
}

// selectSlot filters the pool by feasibility and non-overlap with the
// vehicle's already-taken slots, then picks the lowest-penalty survivor,
// ties broken by ascending slot id (spec §4.3 "Slot selection").
func selectSlot(vehicleID, zoneID int64, duration int, pool []domain.TimeSlot, taken []domain.TimeSlot, constraints domain.TemporalConstraints) (domain.TimeSlot, bool) {
	var bestSlot domain.TimeSlot
	bestPenalty := domain.Infinity
	found := false

	candidates := make([]domain.TimeSlot, len(pool))
	copy(candidates, pool)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	for _, slot := range candidates {
		if reason := constraints.Feasible(vehicleID, zoneID, slot, duration); reason != "" {
			continue
		}
		if overlapsAny(slot, taken) {
			continue
		}
		penalty := domain.Penalty(slot)
		if penalty < bestPenalty-domain.Epsilon {
			bestPenalty = penalty
			bestSlot = slot
			found = true
		}
	}

	return bestSlot, found
}

func overlapsAny(slot domain.TimeSlot, taken []domain.TimeSlot) bool {
	for _, t := range taken {
		if slot.Overlaps(t) {
			return true
		}
	}
	return false
}

// buildTasks lays out one estimated-time task per member point of the zone,
// at the legacy 5-minute-per-point cadence starting at the slot's start
// time (spec §4.3 "Outputs").
func buildTasks(zone domain.Zone, slot domain.TimeSlot) []domain.Task {
	tasks := make([]domain.Task, len(zone.PointIDs))
	for i, pointID := range zone.PointIDs {
		tasks[i] = domain.Task{
			PointID:       pointID,
			Order:         i,
			EstimatedTime: slot.Start + i*5,
		}
	}
	return tasks
}
