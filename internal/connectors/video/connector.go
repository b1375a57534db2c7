// Package video fetches video interviews by downloading the audio
// track and transcribing it into timestamped segments.
package video

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector resolves video sources through a downloader and a
// transcriber. The mechanics of both collaborators live behind ports so
// tests can run without yt-dlp or a speech model.
type Connector struct {
	downloader  driven.MediaDownloader
	transcriber driven.Transcriber
}

// NewConnector creates a new video connector.
func NewConnector(downloader driven.MediaDownloader, transcriber driven.Transcriber) *Connector {
	return &Connector{
		downloader:  downloader,
		transcriber: transcriber,
	}
}

// Type returns the source variant this connector serves.
func (c *Connector) Type() domain.SourceType {
	return domain.SourceVideo
}

// Fetch downloads the audio track of a video and transcribes it.
func (c *Connector) Fetch(ctx context.Context, spec domain.SourceSpec) (*domain.RawSource, error) {
	audioPath, err := c.downloader.DownloadAudio(ctx, spec.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %v", domain.ErrSourceUnavailable, spec.URL, err)
	}
	defer os.Remove(audioPath)

	segments, err := c.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: transcribe %s: %v", domain.ErrSourceUnavailable, spec.URL, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: empty transcript for %s", domain.ErrSourceUnavailable, spec.URL)
	}

	return &domain.RawSource{
		Ref: domain.SourceRef{
			Type:  domain.SourceVideo,
			URL:   spec.URL,
			Title: spec.Title,
		},
		Text:     joinSegments(segments),
		Segments: segments,
	}, nil
}

// joinSegments flattens timestamped segments into the full transcript.
func joinSegments(segments []domain.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
