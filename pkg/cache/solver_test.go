package cache

import (
	"context"
	"testing"
	"time"

	"wasteroute/pkg/domain"
)

func testLocations() []*domain.Location {
	return []*domain.Location{
		{ID: 1, X: 0, Y: 0, Kind: domain.KindDepot},
		{ID: 2, X: 1, Y: 0, Kind: domain.KindCollection},
		{ID: 3, X: 2, Y: 0, Kind: domain.KindDisposal},
	}
}

func testEdges() []domain.Edge {
	return []domain.Edge{
		{A: 1, B: 2, Distance: 1},
		{A: 2, B: 3, Distance: 1},
	}
}

func TestMatrixCache_SetGet(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	locs := testLocations()
	edges := testEdges()
	orderedIDs := []int64{1, 2, 3}
	matrix := [][]float64{
		{0, 1, 2},
		{1, 0, 1},
		{2, 1, 0},
	}

	if err := matrixCache.Set(ctx, locs, edges, orderedIDs, matrix, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	cached, found, err := matrixCache.Get(ctx, locs, edges)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() should find the cached matrix")
	}

	if len(cached.OrderedIDs) != 3 {
		t.Errorf("OrderedIDs length = %d, want 3", len(cached.OrderedIDs))
	}

	decoded := cached.ToFloatMatrix()
	if decoded[0][1] != 1 {
		t.Errorf("decoded[0][1] = %v, want 1", decoded[0][1])
	}
}

func TestMatrixCache_Miss(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()
	matrixCache := NewMatrixCache(memCache, 0)

	_, found, err := matrixCache.Get(context.Background(), testLocations(), testEdges())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() should not find an entry that was never set")
	}
}

func TestMatrixCache_UnreachableCellsRoundTrip(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()
	matrixCache := NewMatrixCache(memCache, 0)

	ctx := context.Background()
	locs := testLocations()[:2]
	matrix := [][]float64{
		{0, domain.Infinity},
		{domain.Infinity, 0},
	}

	if err := matrixCache.Set(ctx, locs, nil, []int64{1, 2}, matrix, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	cached, found, err := matrixCache.Get(ctx, locs, nil)
	if err != nil || !found {
		t.Fatalf("Get() error = %v, found = %v", err, found)
	}

	decoded := cached.ToFloatMatrix()
	if decoded[0][1] != domain.Infinity {
		t.Errorf("decoded[0][1] = %v, want +Inf", decoded[0][1])
	}
}

func TestMatrixCache_Invalidate(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()
	matrixCache := NewMatrixCache(memCache, 0)

	ctx := context.Background()
	locs := testLocations()
	edges := testEdges()

	if err := matrixCache.Set(ctx, locs, edges, []int64{1, 2, 3}, [][]float64{{0}}, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := matrixCache.Invalidate(ctx, locs, edges); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	_, found, err := matrixCache.Get(ctx, locs, edges)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() should not find an invalidated entry")
	}
}

func TestMatrixCache_InvalidateAll(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()
	matrixCache := NewMatrixCache(memCache, 0)

	ctx := context.Background()
	locs := testLocations()
	edges := testEdges()

	if err := matrixCache.Set(ctx, locs, edges, []int64{1, 2, 3}, [][]float64{{0}}, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	n, err := matrixCache.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("InvalidateAll() error = %v", err)
	}
	if n != 1 {
		t.Errorf("InvalidateAll() = %d, want 1", n)
	}
}
