// Package memory provides in-memory store implementations used in
// tests and as a reference for the durable adapters.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure RegistryStore implements the interface.
var _ driven.RegistryStore = (*RegistryStore)(nil)

// RegistryStore is an in-memory registry keyed by subject slug.
type RegistryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.RegistryEntry
}

// NewRegistryStore creates an empty in-memory registry.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{entries: make(map[string]domain.RegistryEntry)}
}

// Get retrieves the registry entry for a subject.
func (s *RegistryStore) Get(_ context.Context, subject string) (*domain.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[domain.Slug(subject)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Upsert creates or additively updates a subject's entry.
func (s *RegistryStore) Upsert(_ context.Context, subject string, sources domain.SourceCounts, questions int, now time.Time) (*domain.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := domain.Slug(subject)
	entry, ok := s.entries[slug]
	if !ok {
		entry = domain.RegistryEntry{Subject: subject}
	}

	entry.SourceCounts = entry.SourceCounts.Add(sources)
	entry.QuestionCount += questions
	entry.LastIndexedAt = now
	if entry.QuestionCount > 0 {
		entry.Status = domain.StatusIndexed
	} else {
		entry.Status = domain.StatusEmpty
	}

	s.entries[slug] = entry
	return &entry, nil
}

// List returns all registry entries.
func (s *RegistryStore) List(_ context.Context) ([]domain.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.RegistryEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	return entries, nil
}

// Reset removes a subject's entry.
func (s *RegistryStore) Reset(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, domain.Slug(subject))
	return nil
}
