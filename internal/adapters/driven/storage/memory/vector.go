package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory append-only vector store with exhaustive
// inner-product search, partitioned by subject slug. Ids are append
// positions. Staged appends become visible to Count-after-restart
// semantics only on Flush; in memory there is no restart, but the
// staged/committed split is tracked so service tests exercise the same
// contract as the file-backed index.
type VectorIndex struct {
	mu         sync.RWMutex
	partitions map[string]*partition
}

type partition struct {
	vectors   [][]float32
	committed int
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{partitions: make(map[string]*partition)}
}

// Append adds a vector to a subject's partition and returns its id.
func (x *VectorIndex) Append(_ context.Context, subject string, vector []float32) (int64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	part := x.partition(subject)
	if len(part.vectors) > 0 && len(part.vectors[0]) != len(vector) {
		return 0, domain.ErrDimensionMismatch
	}

	id := int64(len(part.vectors))
	part.vectors = append(part.vectors, vector)
	return id, nil
}

// RollbackLast discards the most recently staged vector.
func (x *VectorIndex) RollbackLast(_ context.Context, subject string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	part := x.partition(subject)
	if len(part.vectors) == part.committed {
		return domain.ErrInvalidInput
	}
	part.vectors = part.vectors[:len(part.vectors)-1]
	return nil
}

// Search returns up to k hits ordered by descending inner product.
func (x *VectorIndex) Search(_ context.Context, subject string, query []float32, k int) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	part := x.partition(subject)
	if len(part.vectors) > 0 && len(query) != len(part.vectors[0]) {
		return nil, domain.ErrDimensionMismatch
	}

	hits := make([]driven.VectorHit, 0, len(part.vectors))
	for i, vec := range part.vectors {
		var score float64
		for j := range vec {
			score += float64(vec[j]) * float64(query[j])
		}
		hits = append(hits, driven.VectorHit{ID: int64(i), Score: score})
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of vectors in a subject's partition.
func (x *VectorIndex) Count(_ context.Context, subject string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.partition(subject).vectors), nil
}

// Flush commits the staged tail.
func (x *VectorIndex) Flush(_ context.Context, subject string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	part := x.partition(subject)
	part.committed = len(part.vectors)
	return nil
}

// Reset removes a subject's partition.
func (x *VectorIndex) Reset(_ context.Context, subject string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.partitions, domain.Slug(subject))
	return nil
}

// Close releases resources.
func (x *VectorIndex) Close() error {
	return nil
}

// partition returns (creating if needed) the subject's partition.
// Callers hold the lock.
func (x *VectorIndex) partition(subject string) *partition {
	slug := domain.Slug(subject)
	part, ok := x.partitions[slug]
	if !ok {
		part = &partition{}
		x.partitions[slug] = part
	}
	return part
}
