package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
	"github.com/askedlabs/asked-cli/internal/core/ports/driving"
	"github.com/askedlabs/asked-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// Retrieval defaults. The similarity threshold is empirically fit to
// the embedding model in use; 0.50 suits question-to-question matching
// with the default models and is exposed in configuration rather than
// hardcoded at call sites.
const (
	DefaultThreshold       = 0.50
	DefaultK               = 5
	DefaultOverFetchFactor = 4
)

// RetrievalConfig tunes the retrieval engine.
type RetrievalConfig struct {
	// DefaultK is the result count used when the caller passes k <= 0.
	DefaultK int

	// OverFetchFactor multiplies k when querying the vector index so
	// threshold filtering does not starve valid results.
	OverFetchFactor int

	// DefaultThreshold is used when the caller passes threshold < 0.
	DefaultThreshold float64
}

// withDefaults fills zero fields.
func (c RetrievalConfig) withDefaults() RetrievalConfig {
	if c.DefaultK <= 0 {
		c.DefaultK = DefaultK
	}
	if c.OverFetchFactor <= 0 {
		c.OverFetchFactor = DefaultOverFetchFactor
	}
	if c.DefaultThreshold == 0 {
		c.DefaultThreshold = DefaultThreshold
	}
	return c
}

// RetrievalService answers queries against a subject's dual-store
// index. It over-fetches from the vector index, gates candidates on a
// similarity threshold, joins survivors to their metadata and returns
// a ranked list that is never padded: zero matches means no interview
// asked a sufficiently similar question.
type RetrievalService struct {
	meta     driven.MetadataStore
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService

	mu  sync.RWMutex
	cfg RetrievalConfig
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(
	meta driven.MetadataStore,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	cfg RetrievalConfig,
) *RetrievalService {
	return &RetrievalService{
		meta:     meta,
		vectors:  vectors,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
	}
}

// UpdateConfig replaces the retrieval tunables. Used by config
// hot-reload; zero fields fall back to defaults. In-flight retrievals
// keep the settings they started with.
func (s *RetrievalService) UpdateConfig(cfg RetrievalConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.withDefaults()
}

// config returns a snapshot of the current tunables.
func (s *RetrievalService) config() RetrievalConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Retrieve returns at most k matches above the threshold, in
// descending score order.
func (s *RetrievalService) Retrieve(ctx context.Context, subject, query string, k int, threshold float64) ([]domain.Match, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	cfg := s.config()
	if k <= 0 {
		k = cfg.DefaultK
	}
	if threshold < 0 {
		threshold = cfg.DefaultThreshold
	}

	logger.Section("Retrieval")
	logger.Debug("Subject: %q, query: %q, k=%d, threshold=%.2f", subject, query, k, threshold)

	count, err := s.vectors.Count(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}
	if count == 0 {
		logger.Info("Index for %q is empty", subject)
		return []domain.Match{}, nil
	}

	// A failed query embedding fails only this retrieval call.
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	overK := k * cfg.OverFetchFactor
	hits, err := s.vectors.Search(ctx, subject, queryVec, overK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector index returned %d candidates (over-fetch %d)", len(hits), overK)

	// Threshold gate, then truncate to k. Hits arrive in descending
	// score order and the order is preserved.
	var (
		ids    []int64
		scores []float64
	)
	for _, hit := range hits {
		if hit.Score < threshold {
			continue
		}
		ids = append(ids, hit.ID)
		scores = append(scores, hit.Score)
		if len(ids) == k {
			break
		}
	}

	if len(ids) == 0 {
		logger.Info("No matches above threshold %.2f", threshold)
		return []domain.Match{}, nil
	}

	records, err := s.meta.GetBatch(ctx, subject, ids)
	if err != nil {
		return nil, fmt.Errorf("join metadata: %w", err)
	}

	matches := make([]domain.Match, 0, len(ids))
	for i, rec := range records {
		if rec == nil {
			// Should never happen after a completed operation: the id sets
			// of the two stores are identical.
			logger.Error("Orphan vector id %d for subject %q has no metadata", ids[i], subject)
			continue
		}
		matches = append(matches, domain.Match{Record: *rec, Score: scores[i]})
	}

	logger.Info("Found %d matches above threshold %.2f", len(matches), threshold)
	return matches, nil
}

// ExplainNoResults diagnoses an empty retrieval result.
func (s *RetrievalService) ExplainNoResults(ctx context.Context, subject, query string) (*driving.NoResultDiagnosis, error) {
	count, err := s.vectors.Count(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}
	if count == 0 {
		return &driving.NoResultDiagnosis{
			Reason:  "empty_index",
			Message: fmt.Sprintf("no questions indexed for %q", subject),
		}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Search(ctx, subject, queryVec, 1)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return &driving.NoResultDiagnosis{
			Reason:  "empty_index",
			Message: fmt.Sprintf("no questions indexed for %q", subject),
		}, nil
	}

	closest := hits[0]
	record, err := s.meta.Get(ctx, subject, closest.ID)
	if err != nil {
		return nil, fmt.Errorf("join metadata: %w", err)
	}

	return &driving.NoResultDiagnosis{
		Reason: "below_threshold",
		Message: fmt.Sprintf("closest match has similarity %.3f, below threshold %.2f",
			closest.Score, s.config().DefaultThreshold),
		ClosestMatch: &domain.Match{Record: *record, Score: closest.Score},
	}, nil
}
