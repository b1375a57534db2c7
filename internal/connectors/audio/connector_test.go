package audio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>The Interview Show</title>
<item>
<title>Episode 42: The Captain Speaks</title>
<enclosure url="%s" type="audio/mpeg" length="1000"/>
</item>
</channel>
</rss>`

type fakeDownloader struct {
	path   string
	err    error
	gotURL string
}

func (d *fakeDownloader) DownloadAudio(_ context.Context, url string) (string, error) {
	d.gotURL = url
	return d.path, d.err
}

type fakeTranscriber struct {
	segments []domain.TranscriptSegment
	err      error
}

func (tr *fakeTranscriber) Transcribe(_ context.Context, _ string) ([]domain.TranscriptSegment, error) {
	return tr.segments, tr.err
}

func tempAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "episode.mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake audio"), 0600))
	return path
}

func interviewSegments() []domain.TranscriptSegment {
	return []domain.TranscriptSegment{
		{Start: 33.0, Text: "What made you choose this career?"},
		{Start: 95.5, Text: "It chose me, really."},
	}
}

func TestFetchResolvesFeedEnclosure(t *testing.T) {
	const enclosureURL = "https://cdn.example.com/ep42.mp3"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(sampleFeedWith(enclosureURL)))
	}))
	defer srv.Close()

	dl := &fakeDownloader{path: tempAudioFile(t)}
	c := NewConnector(dl, &fakeTranscriber{segments: interviewSegments()})

	raw, err := c.Fetch(context.Background(), domain.SourceSpec{
		Type: domain.SourceAudio,
		URL:  srv.URL + "/feed.xml",
	})
	require.NoError(t, err)

	assert.Equal(t, enclosureURL, dl.gotURL)
	assert.Equal(t, "Episode 42: The Captain Speaks", raw.Ref.Title)
	assert.Equal(t, domain.SourceAudio, raw.Ref.Type)
	assert.Len(t, raw.Segments, 2)
	assert.Contains(t, raw.Text, "What made you choose this career?")
}

func TestFetchDirectAudioURL(t *testing.T) {
	dl := &fakeDownloader{path: tempAudioFile(t)}
	c := NewConnector(dl, &fakeTranscriber{segments: interviewSegments()})

	raw, err := c.Fetch(context.Background(), domain.SourceSpec{
		Type:  domain.SourceAudio,
		URL:   "https://cdn.example.com/ep42.mp3",
		Title: "Episode 42",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/ep42.mp3", dl.gotURL)
	assert.Equal(t, "Episode 42", raw.Ref.Title)
}

func TestFetchFeedWithoutEnclosures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`))
	}))
	defer srv.Close()

	c := NewConnector(&fakeDownloader{}, &fakeTranscriber{})
	_, err := c.Fetch(context.Background(), domain.SourceSpec{Type: domain.SourceAudio, URL: srv.URL})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchDownloadFailure(t *testing.T) {
	c := NewConnector(&fakeDownloader{err: errors.New("cdn down")}, &fakeTranscriber{})
	_, err := c.Fetch(context.Background(), domain.SourceSpec{
		Type: domain.SourceAudio,
		URL:  "https://cdn.example.com/ep42.mp3",
	})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchTranscriptionFailure(t *testing.T) {
	c := NewConnector(
		&fakeDownloader{path: tempAudioFile(t)},
		&fakeTranscriber{err: errors.New("model crashed")},
	)
	_, err := c.Fetch(context.Background(), domain.SourceSpec{
		Type: domain.SourceAudio,
		URL:  "https://cdn.example.com/ep42.mp3",
	})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestHTTPDownloaderRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("audio bytes"))
	}))
	defer srv.Close()

	dl := NewHTTPDownloader(t.TempDir())
	path, err := dl.DownloadAudio(context.Background(), srv.URL+"/ep.mp3")
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "audio bytes", string(data))
}

func TestHTTPDownloaderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dl := NewHTTPDownloader(t.TempDir())
	_, err := dl.DownloadAudio(context.Background(), srv.URL+"/ep.mp3")
	assert.Error(t, err)
}

func sampleFeedWith(enclosureURL string) string {
	return fmt.Sprintf(sampleFeed, enclosureURL)
}
