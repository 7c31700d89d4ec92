package optimizer

import "wasteroute/pkg/domain"

// threeOptWindow bounds how far apart the three cut points may be, keeping
// the search tractable on larger instances (spec §4.4 (c): "i,j,k windows
// bounded by 12").
const threeOptWindow = 12

// threeOptSweep considers the five segment-reconnection patterns named in
// spec §4.4 (c) at every (i, j, k) cut within threeOptWindow of each other,
// accepting the first improving reconnection found, for up to
// maxIterations outer passes.
func threeOptSweep(seq []*domain.Location, dist distanceFunc, maxIterations int) []*domain.Location {
	n := len(seq)
	if n < 6 {
		return seq
	}

	current := make([]*domain.Location, n)
	copy(current, seq)

	for iter := 0; iter < maxIterations; iter++ {
		improved := false

	search:
		for i := 1; i < n-4; i++ {
			jMax := i + threeOptWindow
			if jMax > n-3 {
				jMax = n - 3
			}
			for j := i + 1; j <= jMax; j++ {
				kMax := j + threeOptWindow
				if kMax > n-2 {
					kMax = n - 2
				}
				for k := j + 1; k <= kMax; k++ {
					if applyBestReconnection(current, i, j, k, dist) {
						improved = true
						break search
					}
				}
			}
		}

		if !improved {
			break
		}
	}

	return current
}

// applyBestReconnection tries the four non-identity reconnection patterns
// for cut points (i, j, k), in order, and applies in place the first one
// that shortens the sequence by more than 1e-3, reporting whether a move
// was made.
func applyBestReconnection(seq []*domain.Location, i, j, k int, dist distanceFunc) bool {
	a := seq[:i+1]      // segment A, prefix incl depot
	b := seq[i+1 : j+1] // segment B
	c := seq[j+1 : k+1] // segment C
	d := seq[k+1:]      // segment D, suffix incl depot

	baseline := sequenceLength(seq, dist)

	candidates := [][]([]*domain.Location){
		{reverseSeg(b), c},
		{b, reverseSeg(c)},
		{reverseSeg(b), reverseSeg(c)},
		{c, b},
	}

	bestDelta := -1e-3
	var bestSeq []*domain.Location

	for _, pair := range candidates {
		candidate := concat(a, pair[0], pair[1], d)
		length := sequenceLength(candidate, dist)
		delta := length - baseline
		if delta < bestDelta {
			bestDelta = delta
			bestSeq = candidate
			break
		}
	}

	if bestSeq == nil {
		return false
	}
	copy(seq, bestSeq)
	return true
}

func reverseSeg(seg []*domain.Location) []*domain.Location {
	out := make([]*domain.Location, len(seg))
	for i, loc := range seg {
		out[len(seg)-1-i] = loc
	}
	return out
}

func concat(parts ...[]*domain.Location) []*domain.Location {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]*domain.Location, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
