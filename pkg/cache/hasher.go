package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"wasteroute/pkg/domain"
)

// PointSetHash computes a cache key for an all-pairs distance-matrix build:
// a stable hash of the vertex set and edge set that fed L1's graph, so two
// requests describing the same road network hit the same cache entry
// regardless of input ordering.
func PointSetHash(locations []*domain.Location, edges []domain.Edge) string {
	if len(locations) == 0 {
		return ""
	}

	data := graphToCanonical(locations, edges)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// graphToCanonical builds a deterministic byte representation of a graph's
// vertex and edge sets, independent of input order.
func graphToCanonical(locations []*domain.Location, edges []domain.Edge) []byte {
	sortedLocs := make([]*domain.Location, len(locations))
	copy(sortedLocs, locations)
	sort.Slice(sortedLocs, func(i, j int) bool {
		return sortedLocs[i].ID < sortedLocs[j].ID
	})

	sortedEdges := make([]domain.Edge, len(edges))
	copy(sortedEdges, edges)
	sort.Slice(sortedEdges, func(i, j int) bool {
		ki, kj := sortedEdges[i].Key(), sortedEdges[j].Key()
		if ki.A != kj.A {
			return ki.A < kj.A
		}
		return ki.B < kj.B
	})

	var result []byte
	for _, loc := range sortedLocs {
		result = append(result, []byte(fmt.Sprintf("n:%d:%d:%.6f:%.6f;", loc.ID, loc.Kind, loc.X, loc.Y))...)
	}
	for _, e := range sortedEdges {
		k := e.Key()
		result = append(result, []byte(fmt.Sprintf("e:%d:%d:%.6f;", k.A, k.B, e.Distance))...)
	}

	return result
}

// BuildMatrixKey builds the cache key for a computed all-pairs distance
// matrix over a point-set hash.
func BuildMatrixKey(pointSetHash string) string {
	return fmt.Sprintf("matrix:%s", pointSetHash)
}

// QuickHash is a general-purpose SHA-256 hash of arbitrary bytes.
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash is a truncated (16 hex char) SHA-256 hash of arbitrary bytes.
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
