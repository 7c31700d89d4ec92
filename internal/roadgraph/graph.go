// Package roadgraph implements L1: the undirected, non-negative weighted
// road graph over depot/collection/disposal locations, single-source
// shortest paths and full all-pairs distance matrices.
package roadgraph

import (
	"sort"
	"sync"

	"wasteroute/pkg/apperror"
	"wasteroute/pkg/domain"
)

// Graph is an undirected weighted graph whose vertices are locations and
// whose edges carry an explicit distance or a Euclidean fallback. It carries
// no flow-network state: this core never computes a max flow.
type Graph struct {
	mu       sync.RWMutex
	nodes    map[int64]*domain.Location
	edges    map[domain.EdgeKey]float64
	adjacent map[int64][]int64 // node -> neighbour ids, insertion order
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[int64]*domain.Location),
		edges:    make(map[domain.EdgeKey]float64),
		adjacent: make(map[int64][]int64),
	}
}

// AddVertex inserts or replaces a location, keyed by id (spec §4.1: add
// vertex is idempotent on id, replacing attributes on a duplicate id).
func (g *Graph) AddVertex(loc *domain.Location) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[loc.ID] = loc
}

// AddEdge inserts an undirected edge between a and b. If distance is nil,
// the Euclidean distance between the endpoints is used. A self-loop (a==b)
// is silently ignored, matching spec §4.1. Unknown endpoints are reported as
// an input-invalid apperror.
func (g *Graph) AddEdge(a, b int64, distance *float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if a == b {
		return nil
	}

	na, ok := g.nodes[a]
	if !ok {
		return apperror.NewWithField(apperror.CodeUnknownVertex, "edge references unknown vertex", "from").WithDetails("id", a)
	}
	nb, ok := g.nodes[b]
	if !ok {
		return apperror.NewWithField(apperror.CodeUnknownVertex, "edge references unknown vertex", "to").WithDetails("id", b)
	}

	d := 0.0
	if distance != nil {
		d = *distance
	} else {
		d = na.Distance(nb)
	}

	key := domain.NewEdgeKey(a, b)
	if _, exists := g.edges[key]; !exists {
		g.adjacent[a] = append(g.adjacent[a], b)
		g.adjacent[b] = append(g.adjacent[b], a)
	}
	g.edges[key] = d

	return nil
}

// Vertex returns the location stored for id.
func (g *Graph) Vertex(id int64) (*domain.Location, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.nodes[id]
	return loc, ok
}

// EdgeWeight returns the stored distance between a and b, if an edge exists.
func (g *Graph) EdgeWeight(a, b int64) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.edges[domain.NewEdgeKey(a, b)]
	return d, ok
}

// Neighbors returns the neighbour ids of node, in insertion order.
func (g *Graph) Neighbors(node int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.adjacent[node]
}

// OrderedIDs returns every vertex id in ascending order (spec §4.1: "rows/
// columns ordered by ascending vertex id").
func (g *Graph) OrderedIDs() []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// VertexCount returns the number of vertices in the graph.
func (g *Graph) VertexCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}
