package optimizer

import "wasteroute/pkg/domain"

// DistanceOracle is an optional, pre-built point-to-point distance table
// (spec §4.4 "Inputs": "an optional pre-built distance oracle M"). It is a
// plain record of values rather than a callback into a service, so the
// optimiser stays a pure function of its inputs (spec §9, "Distance oracle
// injection").
type DistanceOracle map[domain.EdgeKey]float64

// distanceFunc resolves the travel distance between two locations,
// consulting the oracle first and falling back to the Euclidean distance
// between their coordinates (spec §4.4 "Inputs": "If M is absent, distances
// are Euclidean").
type distanceFunc func(a, b *domain.Location) float64

func buildDistanceFunc(oracle DistanceOracle) distanceFunc {
	return func(a, b *domain.Location) float64 {
		if a.ID == b.ID {
			return 0
		}
		if oracle != nil {
			if d, ok := oracle[domain.NewEdgeKey(a.ID, b.ID)]; ok {
				return d
			}
		}
		return a.Distance(b)
	}
}

// nearestFacility returns the closest disposal facility to from, by dist.
// ok is false when disposals is empty.
func nearestFacility(from *domain.Location, disposals []*domain.Location, dist distanceFunc) (*domain.Location, float64, bool) {
	best := -1
	bestDist := domain.Infinity
	for i, d := range disposals {
		dd := dist(from, d)
		if dd < bestDist {
			bestDist = dd
			best = i
		}
	}
	if best < 0 {
		return nil, 0, false
	}
	return disposals[best], bestDist, true
}

// sequenceLength sums the distance between consecutive waypoints of a sequence
// of locations under dist.
func sequenceLength(seq []*domain.Location, dist distanceFunc) float64 {
	var total float64
	for i := 0; i+1 < len(seq); i++ {
		total += dist(seq[i], seq[i+1])
	}
	return total
}
