package cache

import (
	"context"
	"encoding/json"
	"time"

	"wasteroute/pkg/domain"
)

// MatrixCache is a specialised cache for L1's all-pairs distance matrices,
// the dominant O(n^2) memory cost of the pipeline (spec.md §5). Keying by
// the point-set hash lets repeated requests over the same road network (a
// common case: the same depot/collection-point/disposal layout re-planned
// across days) skip Dijkstra entirely.
type MatrixCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedMatrix is a cached all-pairs distance matrix, serialisable to JSON.
// Infinite (unreachable) cells are represented as a nil pointer, mirroring
// the wire contract's `null` encoding (spec.md §6).
type CachedMatrix struct {
	OrderedIDs []int64      `json:"ordered_ids"`
	Matrix     [][]*float64 `json:"matrix"`
	ComputedAt time.Time    `json:"computed_at"`
}

// NewMatrixCache creates a cache for distance matrices, with the given
// default TTL (10 minutes if zero or negative).
func NewMatrixCache(cache Cache, defaultTTL time.Duration) *MatrixCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &MatrixCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a cached matrix for the given point set, if present.
func (mc *MatrixCache) Get(ctx context.Context, locations []*domain.Location, edges []domain.Edge) (*CachedMatrix, bool, error) {
	key := BuildMatrixKey(PointSetHash(locations, edges))

	data, err := mc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedMatrix
	if err := json.Unmarshal(data, &result); err != nil {
		_ = mc.cache.Delete(ctx, key) //nolint:errcheck // best-effort cleanup of a corrupt entry
		return nil, false, nil
	}

	return &result, true, nil
}

// Set stores a computed matrix, encoding +Inf cells as nil.
func (mc *MatrixCache) Set(ctx context.Context, locations []*domain.Location, edges []domain.Edge, orderedIDs []int64, matrix [][]float64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = mc.defaultTTL
	}

	key := BuildMatrixKey(PointSetHash(locations, edges))

	result := &CachedMatrix{
		OrderedIDs: orderedIDs,
		Matrix:     encodeMatrix(matrix),
		ComputedAt: time.Now(),
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return mc.cache.Set(ctx, key, data, ttl)
}

// Invalidate removes the cached matrix for a point set.
func (mc *MatrixCache) Invalidate(ctx context.Context, locations []*domain.Location, edges []domain.Edge) error {
	key := BuildMatrixKey(PointSetHash(locations, edges))
	return mc.cache.Delete(ctx, key)
}

// InvalidateAll removes every cached matrix.
func (mc *MatrixCache) InvalidateAll(ctx context.Context) (int64, error) {
	return mc.cache.DeleteByPattern(ctx, "matrix:*")
}

// ToFloatMatrix decodes a CachedMatrix back into the [][]float64 shape
// used by internal/roadgraph, restoring +Inf for nil cells.
func (r *CachedMatrix) ToFloatMatrix() [][]float64 {
	out := make([][]float64, len(r.Matrix))
	for i, row := range r.Matrix {
		out[i] = make([]float64, len(row))
		for j, cell := range row {
			if cell == nil {
				out[i][j] = domain.Infinity
			} else {
				out[i][j] = *cell
			}
		}
	}
	return out
}

func encodeMatrix(matrix [][]float64) [][]*float64 {
	out := make([][]*float64, len(matrix))
	for i, row := range matrix {
		out[i] = make([]*float64, len(row))
		for j, v := range row {
			if v >= domain.Infinity {
				out[i][j] = nil
				continue
			}
			val := v
			out[i][j] = &val
		}
	}
	return out
}
