package driving

import (
	"context"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

// SubjectService manages the per-subject registry.
type SubjectService interface {
	// List returns the registry entries for all indexed subjects.
	List(ctx context.Context) ([]domain.RegistryEntry, error)

	// Reset removes a subject's registry entry and both halves of its
	// index. This is the only way question records are ever removed.
	Reset(ctx context.Context, subject string) error
}
