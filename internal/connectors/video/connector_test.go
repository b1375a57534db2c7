package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

type fakeDownloader struct {
	path string
	err  error
}

func (d *fakeDownloader) DownloadAudio(_ context.Context, _ string) (string, error) {
	return d.path, d.err
}

type fakeTranscriber struct {
	segments []domain.TranscriptSegment
	err      error
	gotPath  string
}

func (tr *fakeTranscriber) Transcribe(_ context.Context, audioPath string) ([]domain.TranscriptSegment, error) {
	tr.gotPath = audioPath
	return tr.segments, tr.err
}

func tempAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake audio"), 0600))
	return path
}

func TestFetchTranscribesDownloadedAudio(t *testing.T) {
	path := tempAudioFile(t)
	tr := &fakeTranscriber{segments: []domain.TranscriptSegment{
		{Start: 12.5, Text: "What inspired you to act?"},
		{Start: 80.0, Text: "I grew up around theaters."},
	}}
	c := NewConnector(&fakeDownloader{path: path}, tr)

	raw, err := c.Fetch(context.Background(), domain.SourceSpec{
		Type:  domain.SourceVideo,
		URL:   "https://youtube.com/watch?v=abc",
		Title: "The Big Interview",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SourceVideo, raw.Ref.Type)
	assert.Equal(t, "The Big Interview", raw.Ref.Title)
	assert.Equal(t, path, tr.gotPath)
	assert.Len(t, raw.Segments, 2)
	assert.Equal(t, "What inspired you to act? I grew up around theaters.", raw.Text)
}

func TestFetchCleansUpAudioFile(t *testing.T) {
	path := tempAudioFile(t)
	tr := &fakeTranscriber{segments: []domain.TranscriptSegment{{Start: 0, Text: "Hello?"}}}
	c := NewConnector(&fakeDownloader{path: path}, tr)

	_, err := c.Fetch(context.Background(), domain.SourceSpec{Type: domain.SourceVideo, URL: "https://v"})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFetchDownloadFailure(t *testing.T) {
	c := NewConnector(&fakeDownloader{err: errors.New("network down")}, &fakeTranscriber{})

	_, err := c.Fetch(context.Background(), domain.SourceSpec{Type: domain.SourceVideo, URL: "https://v"})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchTranscriptionFailure(t *testing.T) {
	c := NewConnector(
		&fakeDownloader{path: tempAudioFile(t)},
		&fakeTranscriber{err: errors.New("model crashed")},
	)

	_, err := c.Fetch(context.Background(), domain.SourceSpec{Type: domain.SourceVideo, URL: "https://v"})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetchEmptyTranscript(t *testing.T) {
	c := NewConnector(&fakeDownloader{path: tempAudioFile(t)}, &fakeTranscriber{})

	_, err := c.Fetch(context.Background(), domain.SourceSpec{Type: domain.SourceVideo, URL: "https://v"})
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
