package optimizer

import "wasteroute/pkg/domain"

// twoOptSweep repeatedly scans all (i, j) reversals of the pickup-only
// sequence [D, pickups…, D] and applies every improving reversal as it is
// found during a pass, stopping once a pass makes no move or maxIterations
// passes have run (spec §4.4 (b)).
func twoOptSweep(seq []*domain.Location, dist distanceFunc, maxIterations int) []*domain.Location {
	n := len(seq)
	if n < 4 {
		return seq
	}

	current := make([]*domain.Location, n)
	copy(current, seq)

	for iter := 0; iter < maxIterations; iter++ {
		improved := false

		for i := 1; i < n-2; i++ {
			for j := i + 1; j < n-1; j++ {
				delta := twoOptDelta(current, i, j, dist)
				if delta < -1e-4 {
					reverseInPlace(current, i, j)
					improved = true
				}
			}
		}

		if !improved {
			break
		}
	}

	return current
}

// twoOptDelta returns the length change of reversing seq[i..j] inclusive:
// negative means improvement.
func twoOptDelta(seq []*domain.Location, i, j int, dist distanceFunc) float64 {
	a, b := seq[i-1], seq[i]
	c, d := seq[j], seq[j+1]
	before := dist(a, b) + dist(c, d)
	after := dist(a, c) + dist(b, d)
	return after - before
}

func reverseInPlace(seq []*domain.Location, i, j int) {
	for i < j {
		seq[i], seq[j] = seq[j], seq[i]
		i++
		j--
	}
}

// reversedCopy returns a defensive copy of seq with segment [i..j]
// reversed, without mutating seq.
func reversedCopy(seq []*domain.Location, i, j int) []*domain.Location {
	out := make([]*domain.Location, len(seq))
	copy(out, seq)
	reverseInPlace(out, i, j)
	return out
}
