package driving

import (
	"context"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

// NoResultDiagnosis explains why a retrieval returned nothing.
type NoResultDiagnosis struct {
	// Reason is one of "no_index", "empty_index", "below_threshold".
	Reason string

	// Message is a human-readable explanation.
	Message string

	// ClosestMatch is the best hit below the threshold, when one exists.
	ClosestMatch *domain.Match
}

// Retriever answers queries from a subject's index. Results are gated
// by a similarity threshold and never padded: an empty result set is a
// correct, first-class answer meaning no interview asked a
// sufficiently similar question.
type Retriever interface {
	// Retrieve embeds the query, over-fetches candidates, drops those
	// below the threshold and returns at most k matches in descending
	// score order. k <= 0 and threshold < 0 select configured defaults.
	Retrieve(ctx context.Context, subject, query string, k int, threshold float64) ([]domain.Match, error)

	// ExplainNoResults diagnoses an empty result, reporting the closest
	// below-threshold match when the index is non-empty.
	ExplainNoResults(ctx context.Context, subject, query string) (*NoResultDiagnosis, error)
}
