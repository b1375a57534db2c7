package driven

import "context"

// Refiner is the optional Stage-2 extraction collaborator. It operates
// on batches of candidate strings only, never the surrounding source
// text. Per batch the contract is: output length <= input length;
// non-questions are removed; near-duplicate phrasings within the batch
// may be merged into one representative; truncated fragments may be
// rewritten into standalone questions.
//
// When the refiner is unavailable or fails, callers fall back to the
// unrefined batch and mark the run degraded.
type Refiner interface {
	// RefineBatch cleans up one batch of candidate questions.
	RefineBatch(ctx context.Context, candidates []string) ([]string, error)

	// Close releases resources.
	Close() error
}

// UsageSink receives token accounting from metered collaborators.
// Implementations forward to an external cost-tracking system.
type UsageSink interface {
	// RecordUsage reports prompt and completion token counts for one call.
	RecordUsage(promptTokens, completionTokens int)
}
