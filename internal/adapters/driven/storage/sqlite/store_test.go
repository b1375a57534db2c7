package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRegistryUpsertIsAdditive(t *testing.T) {
	ctx := context.Background()
	registry := newTestStore(t).RegistryStore()

	first := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	entry, err := registry.Upsert(ctx, "Virat Kohli", domain.SourceCounts{Video: 2, Article: 1}, 10, first)
	require.NoError(t, err)
	assert.Equal(t, 10, entry.QuestionCount)
	assert.Equal(t, 3, entry.SourceCounts.Total())
	assert.Equal(t, domain.StatusIndexed, entry.Status)

	second := first.Add(48 * time.Hour)
	entry, err = registry.Upsert(ctx, "Virat Kohli", domain.SourceCounts{Audio: 1}, 4, second)
	require.NoError(t, err)
	assert.Equal(t, 14, entry.QuestionCount)
	assert.Equal(t, domain.SourceCounts{Video: 2, Audio: 1, Article: 1}, entry.SourceCounts)
	assert.True(t, entry.LastIndexedAt.Equal(second))
}

func TestRegistryGetUnknownSubject(t *testing.T) {
	ctx := context.Background()
	registry := newTestStore(t).RegistryStore()

	_, err := registry.Get(ctx, "Nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryEmptyStatus(t *testing.T) {
	ctx := context.Background()
	registry := newTestStore(t).RegistryStore()

	entry, err := registry.Upsert(ctx, "Margot Robbie", domain.SourceCounts{Article: 2}, 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, entry.Status)
}

func TestRegistrySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	indexedAt := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	_, err = store.RegistryStore().Upsert(ctx, "Virat Kohli", domain.SourceCounts{Video: 1}, 5, indexedAt)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	entry, err := reopened.RegistryStore().Get(ctx, "Virat Kohli")
	require.NoError(t, err)
	assert.Equal(t, 5, entry.QuestionCount)
	assert.True(t, entry.LastIndexedAt.Equal(indexedAt))
}

func TestRegistryCorruptTimestamp(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.RegistryStore().Upsert(ctx, "Virat Kohli", domain.SourceCounts{Video: 1}, 5, time.Now())
	require.NoError(t, err)

	_, err = store.db.Exec("UPDATE subjects SET last_indexed_at = 'not-a-time' WHERE slug = ?",
		domain.Slug("Virat Kohli"))
	require.NoError(t, err)

	_, err = store.RegistryStore().Get(ctx, "Virat Kohli")
	assert.ErrorIs(t, err, domain.ErrRegistryCorrupt)
}

func TestRegistryReset(t *testing.T) {
	ctx := context.Background()
	registry := newTestStore(t).RegistryStore()

	_, err := registry.Upsert(ctx, "Virat Kohli", domain.SourceCounts{Video: 1}, 5, time.Now())
	require.NoError(t, err)

	require.NoError(t, registry.Reset(ctx, "Virat Kohli"))
	_, err = registry.Get(ctx, "Virat Kohli")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryList(t *testing.T) {
	ctx := context.Background()
	registry := newTestStore(t).RegistryStore()

	_, err := registry.Upsert(ctx, "Virat Kohli", domain.SourceCounts{Video: 1}, 5, time.Now())
	require.NoError(t, err)
	_, err = registry.Upsert(ctx, "Margot Robbie", domain.SourceCounts{Article: 2}, 3, time.Now())
	require.NoError(t, err)

	entries, err := registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Margot Robbie", entries[0].Subject)
	assert.Equal(t, "Virat Kohli", entries[1].Subject)
}

func testRecord(subject, text string) domain.QuestionRecord {
	return domain.QuestionRecord{
		Subject: subject,
		Text:    text,
		Sources: []domain.SourceRef{{
			Type:           domain.SourceVideo,
			URL:            "https://youtube.com/watch?v=abc",
			Title:          "Interview",
			MediaTimestamp: 42.5,
		}},
		CapturedAt: time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC),
	}
}

func TestMetadataPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	meta := newTestStore(t).MetadataStore()

	record := testRecord("Virat Kohli", "What inspired you to play cricket?")
	record.ID = 0
	require.NoError(t, meta.Put(ctx, "Virat Kohli", 0, record))

	got, err := meta.Get(ctx, "Virat Kohli", 0)
	require.NoError(t, err)
	assert.Equal(t, record.Text, got.Text)
	assert.Equal(t, record.Sources, got.Sources)
	assert.True(t, got.CapturedAt.Equal(record.CapturedAt))
}

func TestMetadataPutIsIdempotentForSameRecord(t *testing.T) {
	ctx := context.Background()
	meta := newTestStore(t).MetadataStore()

	record := testRecord("Virat Kohli", "What inspired you to play cricket?")
	require.NoError(t, meta.Put(ctx, "Virat Kohli", 0, record))
	require.NoError(t, meta.Put(ctx, "Virat Kohli", 0, record))

	count, err := meta.Count(ctx, "Virat Kohli")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetadataPutRejectsDifferentRecordUnderSameID(t *testing.T) {
	ctx := context.Background()
	meta := newTestStore(t).MetadataStore()

	require.NoError(t, meta.Put(ctx, "Virat Kohli", 0, testRecord("Virat Kohli", "What inspired you?")))
	err := meta.Put(ctx, "Virat Kohli", 0, testRecord("Virat Kohli", "How do you train?"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMetadataGetBatchPreservesOrder(t *testing.T) {
	ctx := context.Background()
	meta := newTestStore(t).MetadataStore()

	require.NoError(t, meta.Put(ctx, "Virat Kohli", 0, testRecord("Virat Kohli", "Q zero?")))
	require.NoError(t, meta.Put(ctx, "Virat Kohli", 1, testRecord("Virat Kohli", "Q one?")))

	records, err := meta.GetBatch(ctx, "Virat Kohli", []int64{1, 99, 0})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Q one?", records[0].Text)
	assert.Nil(t, records[1])
	assert.Equal(t, "Q zero?", records[2].Text)
}

func TestMetadataPruneAbove(t *testing.T) {
	ctx := context.Background()
	meta := newTestStore(t).MetadataStore()

	require.NoError(t, meta.Put(ctx, "Virat Kohli", 0, testRecord("Virat Kohli", "Q zero?")))
	require.NoError(t, meta.Put(ctx, "Virat Kohli", 1, testRecord("Virat Kohli", "Q one?")))
	require.NoError(t, meta.Put(ctx, "Virat Kohli", 2, testRecord("Virat Kohli", "Q two?")))
	require.NoError(t, meta.Put(ctx, "Margot Robbie", 5, testRecord("Margot Robbie", "Acting question?")))

	// Rows at or above the committed vector count are recovery debris.
	pruned, err := meta.PruneAbove(ctx, "Virat Kohli", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	count, err := meta.Count(ctx, "Virat Kohli")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = meta.Get(ctx, "Virat Kohli", 0)
	assert.NoError(t, err)
	_, err = meta.Get(ctx, "Virat Kohli", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Other subjects are untouched.
	_, err = meta.Get(ctx, "Margot Robbie", 5)
	assert.NoError(t, err)
}

func TestMetadataPruneAboveNothingToPrune(t *testing.T) {
	ctx := context.Background()
	meta := newTestStore(t).MetadataStore()

	require.NoError(t, meta.Put(ctx, "Virat Kohli", 0, testRecord("Virat Kohli", "Q zero?")))

	pruned, err := meta.PruneAbove(ctx, "Virat Kohli", 1)
	require.NoError(t, err)
	assert.Zero(t, pruned)
}

func TestMetadataPartitionIsolation(t *testing.T) {
	ctx := context.Background()
	meta := newTestStore(t).MetadataStore()

	require.NoError(t, meta.Put(ctx, "Virat Kohli", 0, testRecord("Virat Kohli", "Cricket question?")))
	require.NoError(t, meta.Put(ctx, "Margot Robbie", 0, testRecord("Margot Robbie", "Acting question?")))

	got, err := meta.Get(ctx, "Margot Robbie", 0)
	require.NoError(t, err)
	assert.Equal(t, "Acting question?", got.Text)

	require.NoError(t, meta.Reset(ctx, "Margot Robbie"))

	_, err = meta.Get(ctx, "Margot Robbie", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := meta.Count(ctx, "Virat Kohli")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
