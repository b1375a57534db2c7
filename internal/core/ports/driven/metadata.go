package driven

import (
	"context"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

// MetadataStore persists question records keyed by (subject, id).
// It is the metadata half of the dual-store index and shares its id
// space with the vector index: after any completed operation the two
// stores hold exactly the same ids for a subject.
type MetadataStore interface {
	// Put stores a record under the given id. Writing an id twice is an
	// error unless the record is byte-for-byte the same, so that a
	// failed dual-write can be retried idempotently with the same id.
	Put(ctx context.Context, subject string, id int64, record domain.QuestionRecord) error

	// Get retrieves the record for an id.
	// Returns domain.ErrNotFound for unknown ids.
	Get(ctx context.Context, subject string, id int64) (*domain.QuestionRecord, error)

	// GetBatch retrieves records for multiple ids, preserving input
	// order. Missing ids yield nil entries.
	GetBatch(ctx context.Context, subject string, ids []int64) ([]*domain.QuestionRecord, error)

	// Count returns the number of records stored for a subject.
	Count(ctx context.Context, subject string) (int, error)

	// PruneAbove removes records with id >= minID and returns how many
	// were removed. A crash between a metadata write and the vector
	// flush leaves rows above the committed vector count; ingestion
	// prunes them before appending so their ids can be reallocated.
	PruneAbove(ctx context.Context, subject string, minID int64) (int, error)

	// Reset removes all records for a subject. Explicit full reset only.
	Reset(ctx context.Context, subject string) error
}
