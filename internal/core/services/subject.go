package services

import (
	"context"
	"fmt"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
	"github.com/askedlabs/asked-cli/internal/core/ports/driving"
	"github.com/askedlabs/asked-cli/internal/logger"
)

// Ensure SubjectsService implements the interface.
var _ driving.SubjectService = (*SubjectsService)(nil)

// SubjectsService manages registry entries and full subject resets.
type SubjectsService struct {
	registry driven.RegistryStore
	meta     driven.MetadataStore
	vectors  driven.VectorIndex
}

// NewSubjectsService creates a subjects service.
func NewSubjectsService(registry driven.RegistryStore, meta driven.MetadataStore, vectors driven.VectorIndex) *SubjectsService {
	return &SubjectsService{registry: registry, meta: meta, vectors: vectors}
}

// List returns all registry entries.
func (s *SubjectsService) List(ctx context.Context) ([]domain.RegistryEntry, error) {
	entries, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}
	return entries, nil
}

// Reset removes everything known about a subject: registry entry,
// metadata records and the vector partition. The only path that ever
// deletes question records. Failures stay isolated to this subject;
// other subjects' partitions are untouched.
func (s *SubjectsService) Reset(ctx context.Context, subject string) error {
	logger.Info("Resetting subject %q", subject)

	if err := s.vectors.Reset(ctx, subject); err != nil {
		return fmt.Errorf("reset vector index: %w", err)
	}
	if err := s.meta.Reset(ctx, subject); err != nil {
		return fmt.Errorf("reset metadata: %w", err)
	}
	if err := s.registry.Reset(ctx, subject); err != nil {
		return fmt.Errorf("reset registry: %w", err)
	}
	return nil
}
