package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

func TestRegistryUpsertIsAdditive(t *testing.T) {
	ctx := context.Background()
	store := NewRegistryStore()

	t1 := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	entry, err := store.Upsert(ctx, "Virat Kohli", domain.SourceCounts{Video: 2}, 10, t1)
	require.NoError(t, err)
	assert.Equal(t, 10, entry.QuestionCount)
	assert.Equal(t, domain.StatusIndexed, entry.Status)

	t2 := t1.Add(48 * time.Hour)
	entry, err = store.Upsert(ctx, "Virat Kohli", domain.SourceCounts{Article: 1}, 4, t2)
	require.NoError(t, err)
	assert.Equal(t, 14, entry.QuestionCount)
	assert.Equal(t, domain.SourceCounts{Video: 2, Article: 1}, entry.SourceCounts)
	assert.Equal(t, t2, entry.LastIndexedAt)
}

func TestRegistryGetAbsent(t *testing.T) {
	store := NewRegistryStore()
	_, err := store.Get(context.Background(), "Nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryEmptyIngestionStatus(t *testing.T) {
	ctx := context.Background()
	store := NewRegistryStore()

	entry, err := store.Upsert(ctx, "Quiet Person", domain.SourceCounts{Article: 3}, 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, entry.Status)
}

func TestMetadataPutIdempotentRetry(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore()

	record := domain.QuestionRecord{
		ID:      0,
		Subject: "Virat Kohli",
		Text:    "What inspired you to play cricket?",
		Sources: []domain.SourceRef{{Type: domain.SourceVideo, URL: "https://youtube.com/watch?v=a"}},
	}

	require.NoError(t, store.Put(ctx, "Virat Kohli", 0, record))
	// Same record under the same id: the retry path.
	require.NoError(t, store.Put(ctx, "Virat Kohli", 0, record))

	// A different record under an existing id must be rejected.
	other := record
	other.Text = "Why did you choose cricket?"
	assert.Error(t, store.Put(ctx, "Virat Kohli", 0, other))

	count, err := store.Count(ctx, "Virat Kohli")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetadataGetBatchPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore()

	for i := int64(0); i < 3; i++ {
		require.NoError(t, store.Put(ctx, "Subject", i, domain.QuestionRecord{
			ID: i, Subject: "Subject", Text: "Q?",
			Sources: []domain.SourceRef{{Type: domain.SourceArticle, URL: "https://example.com"}},
		}))
	}

	records, err := store.GetBatch(ctx, "Subject", []int64{2, 99, 0})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(2), records[0].ID)
	assert.Nil(t, records[1])
	assert.Equal(t, int64(0), records[2].ID)
}

func TestVectorIndexSearchOrdering(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex()

	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.6, 0.8, 0},
	}
	for _, v := range vectors {
		_, err := idx.Append(ctx, "Subject", v)
		require.NoError(t, err)
	}

	hits, err := idx.Search(ctx, "Subject", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(0), hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, int64(2), hits[1].ID)
}

func TestVectorIndexRollback(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex()

	_, err := idx.Append(ctx, "Subject", []float32{1, 0})
	require.NoError(t, err)
	require.NoError(t, idx.Flush(ctx, "Subject"))

	_, err = idx.Append(ctx, "Subject", []float32{0, 1})
	require.NoError(t, err)
	require.NoError(t, idx.RollbackLast(ctx, "Subject"))

	count, err := idx.Count(ctx, "Subject")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Nothing staged: rollback must refuse to touch committed vectors.
	assert.Error(t, idx.RollbackLast(ctx, "Subject"))
}

func TestMetadataPruneAbove(t *testing.T) {
	ctx := context.Background()
	meta := NewMetadataStore()

	for id := int64(0); id < 3; id++ {
		require.NoError(t, meta.Put(ctx, "Subject", id, domain.QuestionRecord{
			ID: id, Subject: "Subject", Text: "Question?",
			Sources: []domain.SourceRef{{Type: domain.SourceVideo, URL: "https://example.com"}},
		}))
	}

	pruned, err := meta.PruneAbove(ctx, "Subject", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	count, err := meta.Count(ctx, "Subject")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = meta.Get(ctx, "Subject", 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorIndexSearchDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex()

	_, err := idx.Append(ctx, "Subject", []float32{1, 0, 0})
	require.NoError(t, err)

	_, err = idx.Search(ctx, "Subject", []float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndexPartitionIsolation(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex()

	_, err := idx.Append(ctx, "Subject A", []float32{1, 0})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, "Subject B", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	count, err := idx.Count(ctx, "Subject B")
	require.NoError(t, err)
	assert.Zero(t, count)
}
