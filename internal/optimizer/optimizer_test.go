package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasteroute/pkg/domain"
)

func depot() domain.Location {
	return domain.Location{ID: 0, X: 0, Y: 0, Kind: domain.KindDepot}
}

func collectionPoint(id int64, x, y, volume float64) domain.Location {
	return domain.Location{ID: id, X: x, Y: y, Kind: domain.KindCollection, Volume: volume}
}

func disposalFacility(id int64, x, y float64) domain.Location {
	return domain.Location{ID: id, X: x, Y: y, Kind: domain.KindDisposal}
}

// gridFivePoints lays 5 collection points on the perimeter of a 10x10
// square whose remaining corner is the depot at the origin, so the optimal
// closed tour walks the perimeter and has length 40 (a variant of spec §8's
// "Grid-5" scenario).
func gridFivePoints() []domain.Location {
	return []domain.Location{
		collectionPoint(1, 10, 0, 10),
		collectionPoint(2, 10, 10, 10),
		collectionPoint(3, 0, 10, 10),
		collectionPoint(4, 5, 10, 10),
		collectionPoint(5, 5, 0, 10),
	}
}

func TestOptimizeGridFiveProducesShortCrossingFreeTour(t *testing.T) {
	in := Input{
		Depot:  depot(),
		Points: gridFivePoints(),
		Vehicles: []domain.Vehicle{
			{ID: 1, Capacity: 1000},
		},
		Seed: 42,
	}

	result, warnings, err := Optimize(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, result.Routes, 1)

	route := result.Routes[0]
	assert.Equal(t, 0, route.CrossingsAfter)
	assert.GreaterOrEqual(t, route.TotalDistance, route.LowerBoundKM-1e-6)
}

func TestOptimizeForcedUnloadNeverExceedsCapacity(t *testing.T) {
	points := []domain.Location{
		collectionPoint(1, 1, 0, 300),
		collectionPoint(2, 2, 0, 300),
		collectionPoint(3, 3, 0, 300),
		collectionPoint(4, 4, 0, 300),
	}
	in := Input{
		Depot:     depot(),
		Points:    points,
		Disposals: []domain.Location{disposalFacility(100, 2, 1)},
		Vehicles: []domain.Vehicle{
			{ID: 1, Capacity: 500},
		},
		Seed: 7,
	}

	result, _, err := Optimize(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)

	route := result.Routes[0]
	tour := &domain.Tour{VehicleID: route.VehicleID, Capacity: route.Capacity, Waypoints: route.Waypoints}
	assert.True(t, tour.ValidateCapacity())
	assert.Greater(t, route.DisposalVisits, 0)
}

func TestOptimizeCrossingsNeverIncrease(t *testing.T) {
	points := []domain.Location{
		collectionPoint(1, 0, 10, 5),
		collectionPoint(2, 10, 10, 5),
		collectionPoint(3, 0, 0, 5),
		collectionPoint(4, 10, 0, 5),
		collectionPoint(5, 5, 5, 5),
	}
	in := Input{
		Depot:  depot(),
		Points: points,
		Vehicles: []domain.Vehicle{
			{ID: 1, Capacity: 1000},
		},
		Seed: 1,
	}

	result, _, err := Optimize(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)

	route := result.Routes[0]
	assert.LessOrEqual(t, route.CrossingsAfter, route.CrossingsBefore)
}

func TestOptimizeTourLengthRespectsLowerBound(t *testing.T) {
	points := gridFivePoints()
	points = append(points, collectionPoint(6, 3, 7, 10), collectionPoint(7, 8, 2, 10))

	in := Input{
		Depot:  depot(),
		Points: points,
		Vehicles: []domain.Vehicle{
			{ID: 1, Capacity: 1000},
		},
		Seed: 99,
	}

	result, _, err := Optimize(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)

	route := result.Routes[0]
	assert.GreaterOrEqual(t, route.TotalDistance, route.LowerBoundKM-1e-6)
}

func TestOptimizeOracleDistancesDriveReportedLength(t *testing.T) {
	points := gridFivePoints()
	allLocs := append([]domain.Location{depot()}, points...)

	// Scale every pairwise distance by 10x Euclidean, so a reported length
	// computed against the Euclidean metric instead of the oracle would be
	// off by an order of magnitude and could even undercut the (oracle-based)
	// MST lower bound.
	oracle := make(DistanceOracle)
	for i := range allLocs {
		for j := i + 1; j < len(allLocs); j++ {
			a, b := &allLocs[i], &allLocs[j]
			oracle[domain.NewEdgeKey(a.ID, b.ID)] = a.Distance(b) * 10
		}
	}

	in := Input{
		Depot:  depot(),
		Points: points,
		Vehicles: []domain.Vehicle{
			{ID: 1, Capacity: 1000},
		},
		Oracle: oracle,
		Seed:   42,
	}

	result, _, err := Optimize(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)

	route := result.Routes[0]
	assert.GreaterOrEqual(t, route.TotalDistance, route.LowerBoundKM-1e-6)
	assert.GreaterOrEqual(t, route.GapPct, -1e-6)
}

func TestOptimizeIsDeterministicForFixedSeed(t *testing.T) {
	points := gridFivePoints()
	vehicles := []domain.Vehicle{{ID: 1, Capacity: 1000}}

	in := Input{Depot: depot(), Points: points, Vehicles: vehicles, Seed: 123}

	first, _, err := Optimize(context.Background(), in)
	require.NoError(t, err)
	second, _, err := Optimize(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, first.Routes, 1)
	require.Len(t, second.Routes, 1)
	assert.Equal(t, first.Routes[0].TotalDistance, second.Routes[0].TotalDistance)

	firstIDs := make([]int64, len(first.Routes[0].Waypoints))
	for i, wp := range first.Routes[0].Waypoints {
		firstIDs[i] = wp.Location.ID
	}
	secondIDs := make([]int64, len(second.Routes[0].Waypoints))
	for i, wp := range second.Routes[0].Waypoints {
		secondIDs[i] = wp.Location.ID
	}
	assert.Equal(t, firstIDs, secondIDs)
}

func TestOptimizeSkipsVehicleWithNoAssignedPoints(t *testing.T) {
	in := Input{
		Depot: depot(),
		Points: []domain.Location{
			collectionPoint(1, 1, 0, 5),
		},
		Vehicles: []domain.Vehicle{
			{ID: 1, Capacity: 1000},
			{ID: 2, Capacity: 1000, AllowedZones: map[int64]bool{999: true}},
		},
		Seed: 5,
	}

	result, _, err := Optimize(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, int64(1), result.Routes[0].VehicleID)
}

func TestOptimizeRejectsNegativeVolume(t *testing.T) {
	in := Input{
		Depot: depot(),
		Points: []domain.Location{
			collectionPoint(1, 1, 0, -5),
		},
		Vehicles: []domain.Vehicle{{ID: 1, Capacity: 1000}},
	}

	_, _, err := Optimize(context.Background(), in)
	assert.Error(t, err)
}

func TestOptimizeRejectsNonPositiveCapacity(t *testing.T) {
	in := Input{
		Depot:    depot(),
		Points:   []domain.Location{collectionPoint(1, 1, 0, 5)},
		Vehicles: []domain.Vehicle{{ID: 1, Capacity: 0}},
	}

	_, _, err := Optimize(context.Background(), in)
	assert.Error(t, err)
}

func TestOptimizeDegenerateSmallInstanceSkipsLocalSearch(t *testing.T) {
	points := []domain.Location{
		collectionPoint(1, 1, 0, 5),
		collectionPoint(2, 2, 0, 5),
	}
	in := Input{
		Depot:    depot(),
		Points:   points,
		Vehicles: []domain.Vehicle{{ID: 1, Capacity: 1000}},
		Seed:     3,
	}

	result, _, err := Optimize(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, 0, result.Routes[0].CrossingsAfter)
}
