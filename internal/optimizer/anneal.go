package optimizer

import (
	"math"
	"math/rand"

	"wasteroute/pkg/domain"
)

// simulatedAnnealing explores random 2-opt neighbours of seq, always
// accepting improving moves and accepting degrading ones with probability
// exp(-delta/T), cooling T by the configured rate each iteration and
// keeping the best solution seen (spec §4.4 (e)).
func simulatedAnnealing(seq []*domain.Location, dist distanceFunc, cfg Config, rng *rand.Rand) []*domain.Location {
	n := len(seq)
	if n < 4 {
		return seq
	}

	current := make([]*domain.Location, n)
	copy(current, seq)
	currentLength := sequenceLength(current, dist)

	best := make([]*domain.Location, n)
	copy(best, current)
	bestLength := currentLength

	temperature := cfg.InitialTemperature
	maxIterations := annealingMaxIterations(cfg, n-2)

	for iter := 0; iter < maxIterations && temperature > cfg.MinTemperature; iter++ {
		i, j := randomSegment(rng, n)
		candidate := reversedCopy(current, i, j)
		candidateLength := sequenceLength(candidate, dist)

		delta := candidateLength - currentLength
		if delta < 0 || rng.Float64() < math.Exp(-delta/temperature) {
			current = candidate
			currentLength = candidateLength

			if currentLength < bestLength {
				best = make([]*domain.Location, n)
				copy(best, current)
				bestLength = currentLength
			}
		}

		temperature *= cfg.CoolingRate
	}

	return best
}

// randomSegment picks a uniformly random reversal segment [i, j] with
// 1 <= i < j <= n-2 (excluding the depot anchors at both ends).
func randomSegment(rng *rand.Rand, n int) (int, int) {
	if n < 4 {
		return 1, 1
	}
	i := 1 + rng.Intn(n-3)
	j := i + 1 + rng.Intn(n-2-i)
	return i, j
}
