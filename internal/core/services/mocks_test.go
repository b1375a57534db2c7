package services

import (
	"context"
	"errors"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// --- Mock implementations shared across service tests ---

// mockEmbedder returns canned unit vectors per text, falling back to a
// default vector for unknown texts. Deterministic, like the real thing.
type mockEmbedder struct {
	byText   map[string][]float32
	fallback []float32
	embedErr error
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{
		byText:   make(map[string][]float32),
		fallback: []float32{0, 0, 0, 1},
	}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.byText[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int             { return len(m.fallback) }
func (m *mockEmbedder) ModelName() string           { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                { return nil }

// mockConnector serves canned raw sources by URL.
type mockConnector struct {
	kind    domain.SourceType
	sources map[string]*domain.RawSource
	errs    map[string]error
}

func newMockConnector(kind domain.SourceType) *mockConnector {
	return &mockConnector{
		kind:    kind,
		sources: make(map[string]*domain.RawSource),
		errs:    make(map[string]error),
	}
}

func (m *mockConnector) Type() domain.SourceType { return m.kind }

func (m *mockConnector) Fetch(_ context.Context, spec domain.SourceSpec) (*domain.RawSource, error) {
	if err, ok := m.errs[spec.URL]; ok {
		return nil, err
	}
	if raw, ok := m.sources[spec.URL]; ok {
		return raw, nil
	}
	return nil, domain.ErrSourceUnavailable
}

// addText registers a plain-text source.
func (m *mockConnector) addText(url, title, text string) {
	m.sources[url] = &domain.RawSource{
		Ref:  domain.SourceRef{Type: m.kind, URL: url, Title: title},
		Text: text,
	}
}

// mockRefiner applies a function per batch.
type mockRefiner struct {
	fn    func(batch []string) ([]string, error)
	calls [][]string
}

func (m *mockRefiner) RefineBatch(_ context.Context, batch []string) ([]string, error) {
	cp := make([]string, len(batch))
	copy(cp, batch)
	m.calls = append(m.calls, cp)
	if m.fn == nil {
		return batch, nil
	}
	return m.fn(batch)
}

func (m *mockRefiner) Close() error { return nil }

// flakyMetadataStore fails the first failures puts, then delegates.
type flakyMetadataStore struct {
	driven.MetadataStore
	failures int
	putCalls int
}

func (f *flakyMetadataStore) Put(ctx context.Context, subject string, id int64, record domain.QuestionRecord) error {
	f.putCalls++
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.MetadataStore.Put(ctx, subject, id, record)
}
