package driven

import (
	"context"
	"time"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

// RegistryStore persists per-subject bookkeeping. It must be
// independently loadable after a restart with no dependency on the
// vector or metadata stores: an absent entry means "never indexed",
// not a fatal error.
type RegistryStore interface {
	// Get retrieves the registry entry for a subject.
	// Returns domain.ErrNotFound when the subject was never indexed and
	// domain.ErrRegistryCorrupt when the stored entry cannot be decoded.
	Get(ctx context.Context, subject string) (*domain.RegistryEntry, error)

	// Upsert creates or additively updates a subject's entry. Counts are
	// deltas (never overwrite with a smaller total) and LastIndexedAt is
	// always set to now. Returns the updated entry.
	Upsert(ctx context.Context, subject string, sources domain.SourceCounts, questions int, now time.Time) (*domain.RegistryEntry, error)

	// List returns all registry entries.
	List(ctx context.Context) ([]domain.RegistryEntry, error)

	// Reset removes a subject's entry. Part of an explicit full reset only.
	Reset(ctx context.Context, subject string) error
}
