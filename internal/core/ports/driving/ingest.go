package driving

import (
	"context"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

// IngestReport summarises one completed ingestion run.
type IngestReport struct {
	// RunID uniquely identifies the run in logs.
	RunID string

	// Subject is the entity that was ingested.
	Subject string

	// SourceCounts tallies successfully processed sources by type.
	SourceCounts domain.SourceCounts

	// QuestionsIndexed is the number of records committed to both stores.
	QuestionsIndexed int

	// SkippedSources lists URLs that failed and were skipped.
	SkippedSources []string

	// Degraded is true when at least one refinement batch fell back to
	// heuristics-only output.
	Degraded bool
}

// Ingestor runs the extraction pipeline over a list of sources and
// commits the results to the dual-store index. At most one ingestion
// per subject is in flight at a time; ingestions for different
// subjects run in parallel.
type Ingestor interface {
	// Ingest fetches the given sources, mines questions and appends them
	// to the subject's index. Incremental runs append without discarding
	// existing records. Returns domain.ErrIngestInProgress when the
	// subject is already being ingested.
	Ingest(ctx context.Context, subject string, specs []domain.SourceSpec) (*IngestReport, error)
}
