package driven

import "context"

// VectorIndex is the vector half of the dual-store index: an
// append-only, per-subject store of unit-normalized embeddings.
// Ids are the append positions, so they increase monotonically and are
// never reused. Exhaustive inner-product search is the correctness
// baseline; because vectors are normalized, inner product equals
// cosine similarity.
type VectorIndex interface {
	// Append adds a normalized vector to a subject's partition and
	// returns its assigned id. The write is staged: it becomes durable
	// and crash-safe only after Flush.
	Append(ctx context.Context, subject string, vector []float32) (int64, error)

	// RollbackLast discards the most recently staged vector for a
	// subject. Used to undo the vector half of a failed dual-write.
	RollbackLast(ctx context.Context, subject string) error

	// Search returns up to k hits ordered by descending inner product.
	Search(ctx context.Context, subject string, query []float32, k int) ([]VectorHit, error)

	// Count returns the number of vectors in a subject's partition.
	Count(ctx context.Context, subject string) (int, error)

	// Flush makes all staged writes for a subject durable. Ingestion
	// must not report success before Flush returns.
	Flush(ctx context.Context, subject string) error

	// Reset removes a subject's partition. Explicit full reset only.
	Reset(ctx context.Context, subject string) error

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ID is the matched record id.
	ID int64

	// Score is the inner product with the query, in [-1, 1] for
	// unit-normalized vectors.
	Score float64
}
