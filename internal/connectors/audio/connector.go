// Package audio fetches podcast interviews. A source URL may be an RSS
// feed (the first enclosure is used) or a direct audio file; either way
// the audio is downloaded and transcribed into timestamped segments.
package audio

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// DefaultTimeout bounds feed and metadata requests.
const DefaultTimeout = 30 * time.Second

// rss mirrors the subset of the RSS 2.0 schema podcast feeds use.
type rss struct {
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title     string `xml:"title"`
			Enclosure struct {
				URL  string `xml:"url,attr"`
				Type string `xml:"type,attr"`
			} `xml:"enclosure"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Connector resolves podcast sources through a downloader and a
// transcriber, parsing RSS feeds to find the episode audio.
type Connector struct {
	client      *http.Client
	downloader  driven.MediaDownloader
	transcriber driven.Transcriber
}

// NewConnector creates a new audio connector.
func NewConnector(downloader driven.MediaDownloader, transcriber driven.Transcriber) *Connector {
	return &Connector{
		client:      &http.Client{Timeout: DefaultTimeout},
		downloader:  downloader,
		transcriber: transcriber,
	}
}

// Type returns the source variant this connector serves.
func (c *Connector) Type() domain.SourceType {
	return domain.SourceAudio
}

// Fetch resolves the episode audio, downloads and transcribes it.
func (c *Connector) Fetch(ctx context.Context, spec domain.SourceSpec) (*domain.RawSource, error) {
	audioURL, title, err := c.resolveAudioURL(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", domain.ErrSourceUnavailable, spec.URL, err)
	}

	audioPath, err := c.downloader.DownloadAudio(ctx, audioURL)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %v", domain.ErrSourceUnavailable, audioURL, err)
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
			Type:  domain.SourceAudio,
			URL:   spec.URL,
			Title: title,
		},
		Text:     joinSegments(segments),
		Segments: segments,
	}, nil
}

// resolveAudioURL returns the downloadable audio location. A feed URL
// resolves to its first enclosure; anything else is treated as direct
// audio.
func (c *Connector) resolveAudioURL(ctx context.Context, spec domain.SourceSpec) (string, string, error) {
	if !looksLikeFeed(spec.URL) {
		return spec.URL, spec.Title, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, http.NoBody)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %d fetching feed", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read feed: %w", err)
	}

	var feed rss
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", "", fmt.Errorf("parse feed: %w", err)
	}

	for _, item := range feed.Channel.Items {
		if item.Enclosure.URL == "" {
			continue
		}
		title := spec.Title
		if title == "" {
			title = strings.TrimSpace(item.Title)
		}
		return item.Enclosure.URL, title, nil
	}
	return "", "", fmt.Errorf("feed has no audio enclosures")
}

// looksLikeFeed reports whether a URL points at an RSS document rather
// than an audio file.
func looksLikeFeed(url string) bool {
	trimmed := strings.ToLower(strings.Split(url, "?")[0])
	for _, ext := range []string{".mp3", ".m4a", ".ogg", ".wav", ".flac"} {
		if strings.HasSuffix(trimmed, ext) {
			return false
		}
	}
	return true
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
