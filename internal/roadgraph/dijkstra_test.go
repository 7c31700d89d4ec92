package roadgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"wasteroute/pkg/domain"
)

func buildLineGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	g.AddVertex(&domain.Location{ID: 1, Kind: domain.KindDepot})
	g.AddVertex(&domain.Location{ID: 2, Kind: domain.KindCollection})
	g.AddVertex(&domain.Location{ID: 3, Kind: domain.KindCollection})
	g.AddVertex(&domain.Location{ID: 4, Kind: domain.KindDisposal})

	d12, d23, d34 := 5.0, 2.0, 7.0
	if err := g.AddEdge(1, 2, &d12); err != nil {
		t.Fatalf("AddEdge(1,2): %v", err)
	}
	if err := g.AddEdge(2, 3, &d23); err != nil {
		t.Fatalf("AddEdge(2,3): %v", err)
	}
	if err := g.AddEdge(3, 4, &d34); err != nil {
		t.Fatalf("AddEdge(3,4): %v", err)
	}
	return g
}

func TestShortestPathAlongLine(t *testing.T) {
	g := buildLineGraph(t)

	dist, path, err := ShortestPath(context.Background(), g, 1, 4)
	assert.NoError(t, err)
	assert.InDelta(t, 14.0, dist, domain.Epsilon)
	assert.Equal(t, []int64{1, 2, 3, 4}, path)
}

func TestShortestPathSameNode(t *testing.T) {
	g := buildLineGraph(t)

	dist, path, err := ShortestPath(context.Background(), g, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dist != 0 {
		t.Errorf("expected distance 0, got %v", dist)
	}
	if len(path) != 1 || path[0] != 2 {
		t.Errorf("expected path [2], got %v", path)
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	g := New()
	g.AddVertex(&domain.Location{ID: 1})
	g.AddVertex(&domain.Location{ID: 2})

	dist, path, err := ShortestPath(context.Background(), g, 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, domain.Infinity, dist)
	assert.Nil(t, path)
}

func TestShortestPathUnknownVertex(t *testing.T) {
	g := buildLineGraph(t)

	dist, path, err := ShortestPath(context.Background(), g, 1, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dist != domain.Infinity {
		t.Errorf("expected +Inf, got %v", dist)
	}
	if path != nil {
		t.Errorf("expected nil path, got %v", path)
	}
}

func TestDistanceMatrixShape(t *testing.T) {
	g := buildLineGraph(t)

	ids, matrix, err := DistanceMatrix(context.Background(), g)
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)

	for i := range matrix {
		if matrix[i][i] != 0 {
			t.Errorf("diagonal[%d] = %v, want 0", i, matrix[i][i])
		}
	}

	for i := range matrix {
		for j := range matrix {
			assert.InDelta(t, matrix[i][j], matrix[j][i], domain.Epsilon)
		}
	}

	assert.InDelta(t, 14.0, matrix[0][3], domain.Epsilon)
}

func TestShortestPathContextCancelled(t *testing.T) {
	g := buildLineGraph(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ShortestPath(ctx, g, 1, 4)
	if err == nil {
		t.Log("small graph may finish before the first poll; not a failure")
	}
}
