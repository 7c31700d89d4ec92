package optimizer

import "wasteroute/pkg/domain"

// orOptSweep relocates contiguous blocks of 1 to maxSegment consecutive
// pickups to other positions in the sequence whenever the combined
// remove+insert delta strictly improves the tour beyond 1e-3, rejecting any
// move that would increase the number of geometric crossings (spec §4.4
// (d)).
func orOptSweep(seq []*domain.Location, dist distanceFunc, maxSegment int) []*domain.Location {
	n := len(seq)
	if n < 5 {
		return seq
	}

	current := make([]*domain.Location, n)
	copy(current, seq)

	improved := true
	for improved {
		improved = false

		for segLen := 1; segLen <= maxSegment; segLen++ {
			for start := 1; start+segLen < len(current)-1; start++ {
				candidate, delta, ok := bestRelocation(current, start, segLen, dist)
				if !ok || delta >= -1e-3 {
					continue
				}
				if len(countCrossings(candidate)) > len(countCrossings(current)) {
					continue
				}
				current = candidate
				improved = true
			}
		}
	}

	return current
}

// bestRelocation finds the cheapest insertion point for the segment
// current[start:start+segLen] elsewhere in the sequence, returning the
// candidate sequence, its length delta versus current, and whether any
// valid destination exists.
func bestRelocation(current []*domain.Location, start, segLen int, dist distanceFunc) ([]*domain.Location, float64, bool) {
	n := len(current)
	segment := append([]*domain.Location(nil), current[start:start+segLen]...)

	before := sequenceLength(current, dist)

	withoutSeg := make([]*domain.Location, 0, n-segLen)
	withoutSeg = append(withoutSeg, current[:start]...)
	withoutSeg = append(withoutSeg, current[start+segLen:]...)

	bestDelta := domain.Infinity
	var best []*domain.Location

	// Candidate insertion points: between every adjacent pair of the
	// reduced sequence, excluding before/after the depot end anchors.
	for pos := 1; pos < len(withoutSeg); pos++ {
		candidate := make([]*domain.Location, 0, n)
		candidate = append(candidate, withoutSeg[:pos]...)
		candidate = append(candidate, segment...)
		candidate = append(candidate, withoutSeg[pos:]...)

		length := sequenceLength(candidate, dist)
		delta := length - before
		if delta < bestDelta {
			bestDelta = delta
			best = candidate
		}
	}

	if best == nil {
		return nil, 0, false
	}
	return best, bestDelta, true
}
