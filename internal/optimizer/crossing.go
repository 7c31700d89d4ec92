package optimizer

import (
	"sort"

	"wasteroute/pkg/domain"
)

// crossingPair identifies two non-adjacent edges of a waypoint sequence
// that properly intersect.
type crossingPair struct {
	i, j int // edge (i,i+1) and edge (j,j+1), i+1 < j
}

// countCrossings returns every pair of non-adjacent, non-depot-spanning
// edges of seq that properly cross, per the CCW test in domain.SegmentsCross
// (spec §4.4 (g)).
func countCrossings(seq []*domain.Location) []crossingPair {
	var pairs []crossingPair
	n := len(seq)
	for i := 0; i+1 < n; i++ {
		for j := i + 2; j+1 < n; j++ {
			if i == 0 && j+1 == n-1 {
				continue // both ends of the tour
			}
			p1 := toPoint(seq[i])
			p2 := toPoint(seq[i+1])
			p3 := toPoint(seq[j])
			p4 := toPoint(seq[j+1])
			if domain.SegmentsCross(p1, p2, p3, p4) {
				pairs = append(pairs, crossingPair{i: i, j: j})
			}
		}
	}
	return pairs
}

func toPoint(loc *domain.Location) domain.Point {
	return domain.Point{X: loc.X, Y: loc.Y}
}

// eliminateCrossings repeatedly resolves geometric crossings of seq (the
// full tour sequence, disposal stops included) via capacity-preserving
// 2-opt reversals and, failing that, pairwise swaps, bounded at 200 outer
// iterations (spec §4.4 (g)). capacityOK reports whether a candidate
// sequence still respects the vehicle's capacity invariant.
func eliminateCrossings(seq []*domain.Location, dist distanceFunc, capacityOK func([]*domain.Location) bool) []*domain.Location {
	current := make([]*domain.Location, len(seq))
	copy(current, seq)

	for outer := 0; outer < 200; outer++ {
		pairs := countCrossings(current)
		if len(pairs) == 0 {
			break
		}

		resolved := false
		for _, pr := range pairs {
			if tryResolveCrossing(current, pr, dist, capacityOK) {
				resolved = true
				break
			}
		}

		if !resolved {
			if !trySwapResolve(current, pairs, dist, capacityOK) {
				break
			}
		}
	}

	return current
}

// tryResolveCrossing attempts the two candidate 2-opt reversals for one
// crossing pair, accepting the first that both shortens the tour beyond
// 1e-4 and preserves capacity feasibility.
func tryResolveCrossing(seq []*domain.Location, pr crossingPair, dist distanceFunc, capacityOK func([]*domain.Location) bool) bool {
	baseline := sequenceLength(seq, dist)

	// Primary candidate: reverse [i+1 .. j].
	candidate := reversedCopy(seq, pr.i+1, pr.j)
	if sequenceLength(candidate, dist) < baseline-1e-4 && capacityOK(candidate) {
		copy(seq, candidate)
		return true
	}

	// Alternative candidate: reverse [i .. j].
	if pr.i >= 1 {
		alt := reversedCopy(seq, pr.i, pr.j)
		if sequenceLength(alt, dist) < baseline-1e-4 && capacityOK(alt) {
			copy(seq, alt)
			return true
		}
	}

	return false
}

// trySwapResolve attempts pairwise swaps of the non-depot points involved in
// any reported crossing, accepting the first swap that strictly reduces the
// total crossing count while preserving capacity feasibility.
func trySwapResolve(seq []*domain.Location, pairs []crossingPair, dist distanceFunc, capacityOK func([]*domain.Location) bool) bool {
	involved := involvedIndices(seq, pairs)
	before := len(pairs)

	for _, a := range involved {
		for _, b := range involved {
			if a >= b {
				continue
			}
			candidate := make([]*domain.Location, len(seq))
			copy(candidate, seq)
			candidate[a], candidate[b] = candidate[b], candidate[a]

			if !capacityOK(candidate) {
				continue
			}
			if len(countCrossings(candidate)) < before {
				copy(seq, candidate)
				return true
			}
		}
	}
	return false
}

// involvedIndices collects the distinct non-depot waypoint indices
// appearing in any crossing edge, ascending.
func involvedIndices(seq []*domain.Location, pairs []crossingPair) []int {
	seen := make(map[int]bool)
	for _, pr := range pairs {
		for _, idx := range []int{pr.i, pr.i + 1, pr.j, pr.j + 1} {
			if idx > 0 && idx < len(seq)-1 {
				seen[idx] = true
			}
		}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// mstLowerBound computes the Prim's-algorithm minimum spanning tree cost
// over {depot} ∪ points, the lower bound reported alongside the optimised
// tour's gap percentage (spec §4.4 "Quality reporting").
func mstLowerBound(depot *domain.Location, points []*domain.Location, dist distanceFunc) float64 {
	nodes := make([]*domain.Location, 0, len(points)+1)
	nodes = append(nodes, depot)
	nodes = append(nodes, points...)

	n := len(nodes)
	if n < 2 {
		return 0
	}

	inTree := make([]bool, n)
	minEdge := make([]float64, n)
	for i := range minEdge {
		minEdge[i] = domain.Infinity
	}
	minEdge[0] = 0

	var total float64
	for count := 0; count < n; count++ {
		u := -1
		best := domain.Infinity
		for v := 0; v < n; v++ {
			if !inTree[v] && minEdge[v] < best {
				best = minEdge[v]
				u = v
			}
		}
		if u < 0 {
			break
		}
		inTree[u] = true
		total += best

		for v := 0; v < n; v++ {
			if inTree[v] {
				continue
			}
			d := dist(nodes[u], nodes[v])
			if d < minEdge[v] {
				minEdge[v] = d
			}
		}
	}

	return total
}
