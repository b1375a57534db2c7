package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
	"github.com/askedlabs/asked-cli/internal/core/ports/driving"
	"github.com/askedlabs/asked-cli/internal/logger"
)

// Ensure DecisionService implements the interface.
var _ driving.Advisor = (*DecisionService)(nil)

// DefaultFreshnessWindow is how long an index stays fresh before a
// retrieval-triggering request escalates to incremental ingestion.
const DefaultFreshnessWindow = 30 * 24 * time.Hour

// DecisionService chooses the workflow path for a subject. The policy
// is a deterministic rule table over registry state, not a model call:
// identical inputs always yield the identical decision.
type DecisionService struct {
	registry driven.RegistryStore
	now      func() time.Time

	mu        sync.RWMutex
	freshness time.Duration
}

// NewDecisionService creates a decision service. freshness <= 0 selects
// DefaultFreshnessWindow.
func NewDecisionService(registry driven.RegistryStore, freshness time.Duration) *DecisionService {
	if freshness <= 0 {
		freshness = DefaultFreshnessWindow
	}
	return &DecisionService{
		registry:  registry,
		freshness: freshness,
		now:       time.Now,
	}
}

// SetFreshness replaces the freshness window. Used by config
// hot-reload; values <= 0 keep the current window.
func (s *DecisionService) SetFreshness(freshness time.Duration) {
	if freshness <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freshness = freshness
}

// Decide returns the action to take for a subject.
func (s *DecisionService) Decide(ctx context.Context, subject string, force bool) (domain.Decision, error) {
	logger.Section("Decision")
	logger.Debug("Subject: %q, force: %t", subject, force)

	entry, err := s.registry.Get(ctx, subject)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Decision{}, fmt.Errorf("get registry entry: %w", err)
	}

	s.mu.RLock()
	freshness := s.freshness
	s.mu.RUnlock()

	decision := Decide(entry, force, freshness, s.now())
	logger.Info("Decision for %q: %s (%s)", subject, decision.Action, decision.Reason)
	return decision, nil
}

// Decide is the pure decision function. entry is nil when the subject
// was never indexed. Calling it twice with unchanged inputs yields the
// same action and reason.
func Decide(entry *domain.RegistryEntry, force bool, freshness time.Duration, now time.Time) domain.Decision {
	if entry == nil {
		return domain.Decision{
			Action: domain.ActionIngest,
			Reason: "subject has never been indexed; no prior data exists",
		}
	}

	if entry.QuestionCount == 0 {
		return domain.Decision{
			Action: domain.ActionIngest,
			Reason: "a prior ingestion produced no questions; the index is empty",
		}
	}

	if force {
		return domain.Decision{
			Action: domain.ActionIngest,
			Reason: "full re-ingestion forced by caller",
		}
	}

	age := now.Sub(entry.LastIndexedAt)
	if age < freshness {
		return domain.Decision{
			Action: domain.ActionRetrieve,
			Reason: fmt.Sprintf("index is fresh (last indexed %s ago, window %s); answering from %d questions",
				age.Round(time.Minute), freshness, entry.QuestionCount),
		}
	}

	return domain.Decision{
		Action: domain.ActionIncrementalIngest,
		Reason: fmt.Sprintf("index is stale (last indexed %s ago, window %s); fetching new sources and appending",
			age.Round(time.Minute), freshness),
	}
}
