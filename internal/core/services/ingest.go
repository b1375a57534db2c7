package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
	"github.com/askedlabs/asked-cli/internal/core/ports/driving"
	"github.com/askedlabs/asked-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// Ingestion defaults.
const (
	DefaultFetchConcurrency = 4
	DefaultPutRetries       = 3
)

// IngestService runs the extraction pipeline over a list of sources
// and commits the mined questions to the dual-store index.
//
// Per-subject ingestion is serialized to protect id allocation;
// different subjects ingest in parallel. Source fetches within a run
// are concurrent, independently cancellable, and individually skipped
// on failure.
type IngestService struct {
	registry   driven.RegistryStore
	meta       driven.MetadataStore
	vectors    driven.VectorIndex
	embedder   driven.EmbeddingService
	extractor  *Extractor
	connectors map[domain.SourceType]driven.Connector

	fetchConcurrency int
	putRetries       int
	now              func() time.Time

	mu     sync.Mutex
	active map[string]struct{}
}

// NewIngestService creates an ingest service. connectors maps each
// source type to its fetcher; missing types are skipped at run time.
func NewIngestService(
	registry driven.RegistryStore,
	meta driven.MetadataStore,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	extractor *Extractor,
	connectors map[domain.SourceType]driven.Connector,
) *IngestService {
	return &IngestService{
		registry:         registry,
		meta:             meta,
		vectors:          vectors,
		embedder:         embedder,
		extractor:        extractor,
		connectors:       connectors,
		fetchConcurrency: DefaultFetchConcurrency,
		putRetries:       DefaultPutRetries,
		now:              time.Now,
		active:           make(map[string]struct{}),
	}
}

// fetchResult carries one source's candidates back from the fetch pool.
type fetchResult struct {
	spec       domain.SourceSpec
	candidates []Candidate
	err        error
}

// Ingest fetches sources, mines questions and appends them to the
// subject's index. Existing records are never discarded: incremental
// runs and full runs both append.
func (s *IngestService) Ingest(ctx context.Context, subject string, specs []domain.SourceSpec) (*driving.IngestReport, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	slug := domain.Slug(subject)
	if slug == "" {
		return nil, fmt.Errorf("%w: empty subject", domain.ErrInvalidInput)
	}

	if !s.acquire(slug) {
		return nil, fmt.Errorf("%w: subject %q", domain.ErrIngestInProgress, subject)
	}
	defer s.release(slug)

	if err := s.reconcile(ctx, subject); err != nil {
		return nil, err
	}

	report := &driving.IngestReport{
		RunID:   uuid.New().String(),
		Subject: subject,
	}

	logger.Section("Ingestion")
	logger.Info("Run %s: subject %q, %d sources", report.RunID, subject, len(specs))

	// Stage 0+1: fetch sources concurrently, extract candidates.
	candidates := s.fetchAndExtract(ctx, specs, report)

	// Stage 2: refinement over candidate strings only.
	refined, degraded := s.extractor.Refine(ctx, candidates)
	report.Degraded = degraded

	// Zero candidates is a valid outcome, not an error. The registry is
	// still updated so the decision policy sees the attempt.
	if len(refined) == 0 {
		logger.Info("Run %s: no questions extracted", report.RunID)
		if _, err := s.registry.Upsert(ctx, subject, report.SourceCounts, 0, s.now()); err != nil {
			return nil, fmt.Errorf("update registry: %w", err)
		}
		return report, nil
	}

	texts := make([]string, len(refined))
	for i, c := range refined {
		texts[i] = c.Text
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}

	if s.extractor.DedupEnabled() {
		refined, embeddings, err = s.extractor.Dedup(refined, embeddings)
		if err != nil {
			return nil, fmt.Errorf("deduplicate candidates: %w", err)
		}
	}

	indexed, err := s.commit(ctx, subject, refined, embeddings)
	if err != nil {
		return nil, err
	}
	report.QuestionsIndexed = indexed

	// Durability before success: the staged vector tail becomes the
	// committed prefix only after Flush.
	if err := s.vectors.Flush(ctx, subject); err != nil {
		return nil, fmt.Errorf("flush vector index: %w", err)
	}

	if _, err := s.registry.Upsert(ctx, subject, report.SourceCounts, indexed, s.now()); err != nil {
		return nil, fmt.Errorf("update registry: %w", err)
	}

	logger.Info("Run %s complete: %d questions indexed, %d sources skipped",
		report.RunID, indexed, len(report.SkippedSources))
	return report, nil
}

// reconcile removes metadata rows orphaned by a crash between a
// metadata write and the vector flush. Such rows sit above the
// committed vector count; left in place, the next append would
// reallocate their ids and every put would be rejected as a conflict.
func (s *IngestService) reconcile(ctx context.Context, subject string) error {
	committed, err := s.vectors.Count(ctx, subject)
	if err != nil {
		return fmt.Errorf("count vectors: %w", err)
	}
	pruned, err := s.meta.PruneAbove(ctx, subject, int64(committed))
	if err != nil {
		return fmt.Errorf("reconcile metadata: %w", err)
	}
	if pruned > 0 {
		logger.Warn("Removed %d metadata record(s) for %q left behind by an interrupted run", pruned, subject)
	}
	return nil
}

// SetFetchConcurrency bounds parallel source fetches within a run.
// Values below one keep the current setting.
func (s *IngestService) SetFetchConcurrency(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchConcurrency = n
}

// fetchAndExtract runs the fetch pool. A failing source is logged,
// recorded as skipped and never aborts the rest of the run.
func (s *IngestService) fetchAndExtract(ctx context.Context, specs []domain.SourceSpec, report *driving.IngestReport) []Candidate {
	results := make([]fetchResult, len(specs))

	s.mu.Lock()
	limit := s.fetchConcurrency
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = s.fetchOne(gctx, spec)
			return nil
		})
	}
	_ = g.Wait() // fetch errors are per-source, never group-fatal

	var candidates []Candidate
	for _, res := range results {
		if res.err != nil {
			logger.Error("Skipping source %s: %v", res.spec.URL, res.err)
			report.SkippedSources = append(report.SkippedSources, res.spec.URL)
			continue
		}
		switch res.spec.Type {
		case domain.SourceVideo:
			report.SourceCounts.Video++
		case domain.SourceAudio:
			report.SourceCounts.Audio++
		case domain.SourceArticle:
			report.SourceCounts.Article++
		}
		candidates = append(candidates, res.candidates...)
	}

	logger.Info("Fetched %d/%d sources, %d candidates", report.SourceCounts.Total(), len(specs), len(candidates))
	return candidates
}

// fetchOne resolves a single source into Stage-1 candidates.
func (s *IngestService) fetchOne(ctx context.Context, spec domain.SourceSpec) fetchResult {
	connector, ok := s.connectors[spec.Type]
	if !ok {
		return fetchResult{spec: spec, err: fmt.Errorf("%w: %q", domain.ErrUnsupportedType, spec.Type)}
	}

	raw, err := connector.Fetch(ctx, spec)
	if err != nil {
		return fetchResult{spec: spec, err: err}
	}

	cands := s.extractor.CandidatesFromSource(raw)
	logger.Debug("Source %s: %d candidates", spec.URL, len(cands))
	return fetchResult{spec: spec, candidates: cands}
}

// commit performs the atomic dual-write for each record: append the
// vector, then put the metadata under the same id. A failed metadata
// write is retried with the same id; if it still fails, the vector is
// rolled back so no half-written id survives. Failure is fatal for the
// in-flight record only.
func (s *IngestService) commit(ctx context.Context, subject string, cands []Candidate, embeddings [][]float32) (int, error) {
	now := s.now()
	indexed := 0

	for i, cand := range cands {
		record := domain.QuestionRecord{
			Subject:    subject,
			Text:       cand.Text,
			Sources:    cand.AllSources(),
			CapturedAt: now,
		}
		if err := record.Validate(); err != nil {
			logger.Warn("Dropping invalid candidate %q: %v", cand.Text, err)
			continue
		}

		id, err := s.vectors.Append(ctx, subject, embeddings[i])
		if err != nil {
			return indexed, fmt.Errorf("append vector: %w", err)
		}
		record.ID = id

		if err := s.putWithRetry(ctx, subject, id, record); err != nil {
			logger.Error("Metadata write failed for id %d, rolling back vector: %v", id, err)
			if rbErr := s.vectors.RollbackLast(ctx, subject); rbErr != nil {
				return indexed, fmt.Errorf("rollback vector %d after metadata failure: %w", id, rbErr)
			}
			continue
		}
		indexed++
	}

	return indexed, nil
}

// putWithRetry retries the metadata half of the dual-write with the
// same id. Put is idempotent for identical records, so retries are safe.
func (s *IngestService) putWithRetry(ctx context.Context, subject string, id int64, record domain.QuestionRecord) error {
	var err error
	for attempt := 0; attempt < s.putRetries; attempt++ {
		if err = s.meta.Put(ctx, subject, id, record); err == nil {
			return nil
		}
		logger.Warn("Metadata put attempt %d for id %d failed: %v", attempt+1, id, err)
	}
	return err
}

// acquire marks a subject as being ingested.
func (s *IngestService) acquire(slug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.active[slug]; busy {
		return false
	}
	s.active[slug] = struct{}{}
	return true
}

// release clears the in-flight mark.
func (s *IngestService) release(slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, slug)
}
