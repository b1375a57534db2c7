package usage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerAccumulates(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordUsage(100, 40)
	tracker.RecordUsage(50, 10)

	totals := tracker.Totals()
	assert.Equal(t, 2, totals.Calls)
	assert.Equal(t, 150, totals.PromptTokens)
	assert.Equal(t, 50, totals.CompletionTokens)
}

func TestTrackerConcurrentRecording(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordUsage(10, 5)
		}()
	}
	wg.Wait()

	totals := tracker.Totals()
	assert.Equal(t, 20, totals.Calls)
	assert.Equal(t, 200, totals.PromptTokens)
	assert.Equal(t, 100, totals.CompletionTokens)
}
