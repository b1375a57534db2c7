package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory question record store partitioned by
// subject slug.
type MetadataStore struct {
	mu      sync.RWMutex
	records map[string]map[int64]domain.QuestionRecord
}

// NewMetadataStore creates an empty in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{records: make(map[string]map[int64]domain.QuestionRecord)}
}

// Put stores a record under the given id. Re-putting the same record
// under the same id is the idempotent retry path; a different record
// under an existing id is an error.
func (s *MetadataStore) Put(_ context.Context, subject string, id int64, record domain.QuestionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := domain.Slug(subject)
	part, ok := s.records[slug]
	if !ok {
		part = make(map[int64]domain.QuestionRecord)
		s.records[slug] = part
	}

	if existing, dup := part[id]; dup && existing.Text != record.Text {
		return fmt.Errorf("%w: id %d already holds a different record", domain.ErrInvalidInput, id)
	}

	part[id] = record
	return nil
}

// Get retrieves the record for an id.
func (s *MetadataStore) Get(_ context.Context, subject string, id int64) (*domain.QuestionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[domain.Slug(subject)][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// GetBatch retrieves records for multiple ids, preserving input order.
func (s *MetadataStore) GetBatch(_ context.Context, subject string, ids []int64) ([]*domain.QuestionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part := s.records[domain.Slug(subject)]
	out := make([]*domain.QuestionRecord, len(ids))
	for i, id := range ids {
		if record, ok := part[id]; ok {
			r := record
			out[i] = &r
		}
	}
	return out, nil
}

// Count returns the number of records stored for a subject.
func (s *MetadataStore) Count(_ context.Context, subject string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records[domain.Slug(subject)]), nil
}

// PruneAbove removes records with id >= minID, returning the number
// removed.
func (s *MetadataStore) PruneAbove(_ context.Context, subject string, minID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	part := s.records[domain.Slug(subject)]
	pruned := 0
	for id := range part {
		if id >= minID {
			delete(part, id)
			pruned++
		}
	}
	return pruned, nil
}

// Reset removes all records for a subject.
func (s *MetadataStore) Reset(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, domain.Slug(subject))
	return nil
}
