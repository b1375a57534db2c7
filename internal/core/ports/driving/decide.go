package driving

import (
	"context"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

// Advisor decides the workflow path for a subject by reading the
// registry. The decision is deterministic and idempotent: with no
// intervening ingestion, two calls return the identical action and
// reason.
type Advisor interface {
	// Decide returns the action to take for a subject plus a
	// human-readable reason. force requests a full re-ingestion
	// regardless of freshness.
	Decide(ctx context.Context, subject string, force bool) (domain.Decision, error)
}
