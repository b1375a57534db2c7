// Package usage provides token accounting for metered LLM calls.
package usage

import (
	"sync"

	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
	"github.com/askedlabs/asked-cli/internal/logger"
)

// Ensure Tracker implements the interface.
var _ driven.UsageSink = (*Tracker)(nil)

// Totals is the accumulated token count over a tracker's lifetime.
type Totals struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
}

// Tracker accumulates per-call token usage and logs a running total.
// Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	totals Totals
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordUsage adds one call's token counts to the running totals.
func (t *Tracker) RecordUsage(promptTokens, completionTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totals.Calls++
	t.totals.PromptTokens += promptTokens
	t.totals.CompletionTokens += completionTokens

	logger.Debug("Token usage: +%d prompt, +%d completion (run total %d/%d over %d calls)",
		promptTokens, completionTokens,
		t.totals.PromptTokens, t.totals.CompletionTokens, t.totals.Calls)
}

// Totals returns a snapshot of the accumulated usage.
func (t *Tracker) Totals() Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totals
}
