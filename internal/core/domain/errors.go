package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyText indicates a question record with no text was rejected.
	ErrEmptyText = errors.New("question text is empty")

	// ErrSourceUnavailable indicates a source could not be fetched or
	// transcribed. Per-source failures are local: the affected source is
	// skipped and the rest of the ingestion run continues.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrIngestInProgress indicates an ingestion is already running for
	// the subject. At most one ingestion per subject may be in flight.
	ErrIngestInProgress = errors.New("ingestion in progress")

	// ErrRegistryCorrupt indicates the registry entry for a subject could
	// not be decoded. Fatal for that subject only; requires an explicit reset.
	ErrRegistryCorrupt = errors.New("registry entry corrupt")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Both indexing and retrieval require embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRefinerUnavailable indicates the refinement service is not
	// configured. Extraction degrades to heuristics-only output.
	ErrRefinerUnavailable = errors.New("refinement service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector of the wrong size was
	// offered to an index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnsupportedType indicates an unknown source type.
	ErrUnsupportedType = errors.New("unsupported source type")
)
