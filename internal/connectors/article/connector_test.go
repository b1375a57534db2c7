package article

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>An Interview</title><script>var x = 1;</script></head>
<body>
<nav>Home | About</nav>
<article>
<h1>An Interview with the Captain</h1>
<p>What inspired you to play cricket?</p>
<p>It started in the backyard.</p>
</article>
<footer>Copyright</footer>
</body>
</html>`

func testConnector() *Connector {
	return NewConnector(Config{RequestsPerSecond: 1000})
}

func TestFetchExtractsArticleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	raw, err := testConnector().Fetch(context.Background(), domain.SourceSpec{
		Type: domain.SourceArticle,
		URL:  srv.URL,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SourceArticle, raw.Ref.Type)
	assert.Equal(t, "An Interview", raw.Ref.Title)
	assert.Contains(t, raw.Text, "What inspired you to play cricket?")
	assert.NotContains(t, raw.Text, "var x = 1")
	assert.NotContains(t, raw.Text, "Home | About")
	assert.NotContains(t, raw.Text, "Copyright")
}

func TestFetchKeepsProvidedTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	raw, err := testConnector().Fetch(context.Background(), domain.SourceSpec{
		Type:  domain.SourceArticle,
		URL:   srv.URL,
		Title: "Custom Title",
	})
	require.NoError(t, err)
	assert.Equal(t, "Custom Title", raw.Ref.Title)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	raw, err := testConnector().Fetch(context.Background(), domain.SourceSpec{
		Type: domain.SourceArticle,
		URL:  srv.URL,
	})
	require.NoError(t, err)
	assert.Contains(t, raw.Text, "What inspired you to play cricket?")
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testConnector().Fetch(context.Background(), domain.SourceSpec{
		Type: domain.SourceArticle,
		URL:  srv.URL,
	})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer srv.Close()

	_, err := testConnector().Fetch(context.Background(), domain.SourceSpec{
		Type: domain.SourceArticle,
		URL:  srv.URL,
	})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchUnreachableHost(t *testing.T) {
	_, err := testConnector().Fetch(context.Background(), domain.SourceSpec{
		Type: domain.SourceArticle,
		URL:  "http://127.0.0.1:1",
	})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
