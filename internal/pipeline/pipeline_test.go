package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceQueryBuildsSymmetricMatrixAndPaths(t *testing.T) {
	req := DistanceQueryRequest{
		Points: []PointInput{
			{ID: 1, X: 0, Y: 0},
			{ID: 2, X: 3, Y: 0},
			{ID: 3, X: 3, Y: 4},
		},
		Connections: []ConnectionInput{
			{From: 1, To: 2},
			{From: 2, To: 3},
		},
	}

	resp, err := DistanceQuery(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Matrix, 3)

	for i := range resp.Matrix {
		require.Len(t, resp.Matrix[i], 3)
		require.NotNil(t, resp.Matrix[i][i])
		assert.InDelta(t, 0, *resp.Matrix[i][i], 1e-9)
	}
	for i := range resp.Matrix {
		for j := range resp.Matrix {
			if resp.Matrix[i][j] == nil || resp.Matrix[j][i] == nil {
				continue
			}
			assert.InDelta(t, *resp.Matrix[i][j], *resp.Matrix[j][i], 1e-9)
		}
	}

	require.NotEmpty(t, resp.Paths)
	for _, p := range resp.Paths {
		assert.Less(t, p.From, p.To)
		assert.NotEmpty(t, p.Path)
	}
}

func TestDistanceQueryRejectsUnknownConnectionEndpoint(t *testing.T) {
	req := DistanceQueryRequest{
		Points: []PointInput{{ID: 1, X: 0, Y: 0}},
		Connections: []ConnectionInput{
			{From: 1, To: 99},
		},
	}

	_, err := DistanceQuery(context.Background(), req)
	assert.Error(t, err)
}

func TestAssignZonesProducesAssignmentsAndBipartiteGraph(t *testing.T) {
	req := AssignZonesRequest{
		Points: []PointInput{
			{ID: 0, X: 0, Y: 0},
		},
		Vehicles: []VehicleInput{
			{ID: 1, Capacity: 1000, FixedCost: 10},
		},
		Zones: []ZoneInput{
			{ID: 10, Volume: 100, Centre: PointXY{X: 5, Y: 0}},
			{ID: 11, Volume: 200, Centre: PointXY{X: 10, Y: 0}},
		},
	}

	resp, err := AssignZones(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Assignment, 1)
	assert.ElementsMatch(t, []int64{10, 11}, resp.Assignment[0].Zones)
	assert.Empty(t, resp.Statistics.Unassigned)

	require.NotEmpty(t, resp.Bipartite.Edges)
	assert.Equal(t, 1, resp.Bipartite.VehicleNodes)
	assert.Equal(t, 2, resp.Bipartite.ZoneNodes)
}

func TestPlanSchedulePlacesZonesIntoSlots(t *testing.T) {
	req := PlanScheduleRequest{
		Points: []PointInput{{ID: 0, X: 0, Y: 0}},
		Vehicles: []VehicleInput{
			{ID: 1, Capacity: 1000},
		},
		Zones: []ZoneInput{
			{ID: 10, Volume: 100, Centre: PointXY{X: 5, Y: 0}},
		},
		Slots: []SlotInput{
			{ID: 1, Day: "monday", Start: "08:00", End: "12:00"},
		},
		Constraints: ConstraintsInput{},
	}

	resp, err := PlanSchedule(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.RunID)

	total := 0
	for _, entries := range resp.Plan {
		total += len(entries)
	}
	assert.Greater(t, total, 0)
}

func TestOptimizeRoutesGridFiveProducesCrossingFreeTour(t *testing.T) {
	req := OptimizeRoutesRequest{
		Depot: LocationInput{ID: 0, X: 0, Y: 0},
		Points: []CollectionPointInput{
			{ID: 1, X: 10, Y: 0, Volume: 10},
			{ID: 2, X: 10, Y: 10, Volume: 10},
			{ID: 3, X: 0, Y: 10, Volume: 10},
			{ID: 4, X: 5, Y: 10, Volume: 10},
			{ID: 5, X: 5, Y: 0, Volume: 10},
		},
		Vehicles: []VehicleOptInput{
			{ID: 1, Capacity: 1000},
		},
		Seed: 42,
	}

	resp, err := OptimizeRoutes(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, 0, resp.Routes[0].Crossings.After)
	assert.False(t, resp.Partial)
}

func TestOptimizeRoutesUsesSuppliedDistanceMatrix(t *testing.T) {
	req := OptimizeRoutesRequest{
		Depot: LocationInput{ID: 0, X: 0, Y: 0},
		Points: []CollectionPointInput{
			{ID: 1, X: 1, Y: 0, Volume: 5},
			{ID: 2, X: 2, Y: 0, Volume: 5},
		},
		Vehicles: []VehicleOptInput{
			{ID: 1, Capacity: 1000},
		},
		DistanceMatrix: map[string]float64{
			"0<->1": 1,
			"0<->2": 2,
			"1<->2": 1,
		},
		Seed: 1,
	}

	resp, err := OptimizeRoutes(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Routes, 1)
	assert.Greater(t, resp.Routes[0].TotalDistance, 0.0)
}
