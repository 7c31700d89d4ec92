package roadgraph

import (
	"container/heap"
	"context"

	"wasteroute/pkg/domain"
)

// checkInterval bounds how often ShortestPath polls ctx between heap pops,
// the same cadence the teacher's solver used for its Dijkstra loop.
const checkInterval = 100

// pqItem is one entry of the shortest-path priority queue.
type pqItem struct {
	node     int64
	distance float64
	index    int
}

// priorityQueue implements container/heap.Interface, ordered by distance and
// tie-broken by ascending node id for determinism.
type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].node < pq[j].node
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// ShortestPath runs Dijkstra's algorithm from source to target over g's
// non-negative edge weights, returning the distance and the ordered vertex
// path. If target is unreachable it returns (+Inf, nil, nil), matching
// spec §4.1. Every checkInterval heap pops the context is polled for
// cancellation.
func ShortestPath(ctx context.Context, g *Graph, source, target int64) (float64, []int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[source]; !ok {
		return domain.Infinity, nil, nil
	}
	if _, ok := g.nodes[target]; !ok {
		return domain.Infinity, nil, nil
	}

	dist := make(map[int64]float64, len(g.nodes))
	prev := make(map[int64]int64, len(g.nodes))
	visited := make(map[int64]bool, len(g.nodes))
	for id := range g.nodes {
		dist[id] = domain.Infinity
	}
	dist[source] = 0

	pq := make(priorityQueue, 0, len(g.nodes))
	heap.Init(&pq)
	heap.Push(&pq, &pqItem{node: source, distance: 0})

	iterations := 0
	for pq.Len() > 0 {
		iterations++
		if iterations%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			default:
			}
		}

		current := heap.Pop(&pq).(*pqItem)
		u := current.node
		if visited[u] {
			continue
		}
		if current.distance > dist[u]+domain.Epsilon {
			continue
		}
		visited[u] = true

		if u == target {
			break
		}

		for _, v := range g.adjacent[u] {
			if visited[v] {
				continue
			}
			w, ok := g.edges[domain.NewEdgeKey(u, v)]
			if !ok {
				continue
			}
			alt := dist[u] + w
			if alt < dist[v]-domain.Epsilon {
				dist[v] = alt
				prev[v] = u
				heap.Push(&pq, &pqItem{node: v, distance: alt})
			}
		}
	}

	if dist[target] >= domain.Infinity {
		return domain.Infinity, nil, nil
	}

	path := []int64{target}
	for cur := target; cur != source; {
		p, ok := prev[cur]
		if !ok {
			return domain.Infinity, nil, nil
		}
		path = append(path, p)
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return dist[target], path, nil
}

// distancesFrom runs Dijkstra from source to every reachable vertex of g and
// returns the full distance map, without the single-target early exit
// ShortestPath uses — the caller wants every row entry, not one cell.
func distancesFrom(ctx context.Context, g *Graph, source int64) (map[int64]float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	dist := make(map[int64]float64, len(g.nodes))
	visited := make(map[int64]bool, len(g.nodes))
	for id := range g.nodes {
		dist[id] = domain.Infinity
	}
	dist[source] = 0

	pq := make(priorityQueue, 0, len(g.nodes))
	heap.Init(&pq)
	heap.Push(&pq, &pqItem{node: source, distance: 0})

	iterations := 0
	for pq.Len() > 0 {
		iterations++
		if iterations%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		current := heap.Pop(&pq).(*pqItem)
		u := current.node
		if visited[u] {
			continue
		}
		if current.distance > dist[u]+domain.Epsilon {
			continue
		}
		visited[u] = true

		for _, v := range g.adjacent[u] {
			if visited[v] {
				continue
			}
			w, ok := g.edges[domain.NewEdgeKey(u, v)]
			if !ok {
				continue
			}
			alt := dist[u] + w
			if alt < dist[v]-domain.Epsilon {
				dist[v] = alt
				heap.Push(&pq, &pqItem{node: v, distance: alt})
			}
		}
	}

	return dist, nil
}

// DistanceMatrix returns the full NxN matrix of shortest-path distances
// between every vertex pair, rows and columns ordered by ascending vertex
// id, diagonal exactly 0, unreachable cells +Inf (spec §4.1). Each row is
// filled by a single Dijkstra run from its source rather than one run per
// cell, mirroring the original's per-source matrix construction.
func DistanceMatrix(ctx context.Context, g *Graph) ([]int64, [][]float64, error) {
	ids := g.OrderedIDs()
	n := len(ids)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i, src := range ids {
		rowDist, err := distancesFrom(ctx, g, src)
		if err != nil {
			return nil, nil, err
		}
		for j, dst := range ids {
			matrix[i][j] = rowDist[dst]
		}
	}

	return ids, matrix, nil
}
