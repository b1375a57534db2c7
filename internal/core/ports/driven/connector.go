package driven

import (
	"context"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

// Connector fetches one source and reduces it to plain text with
// provenance. Each domain.SourceType has exactly one connector; the
// closed variant set replaces duck-typed source objects.
//
// Fetch failures of any kind (download, transcription, scraping) are
// wrapped in domain.ErrSourceUnavailable so the ingestion run can skip
// the source and continue.
type Connector interface {
	// Type returns the source variant this connector serves.
	Type() domain.SourceType

	// Fetch resolves a source spec into raw text plus provenance.
	// Honors ctx cancellation; each fetch is independently timeoutable.
	Fetch(ctx context.Context, spec domain.SourceSpec) (*domain.RawSource, error)
}

// MediaDownloader retrieves the audio track of a remote recording and
// returns a local file path. The mechanics (yt-dlp, HTTP enclosure
// download) live outside the core.
type MediaDownloader interface {
	// DownloadAudio fetches the audio for a media URL.
	DownloadAudio(ctx context.Context, url string) (string, error)
}

// Transcriber converts downloaded audio into timestamped text.
// Model internals are outside the core; only the segments come back.
type Transcriber interface {
	// Transcribe produces transcript segments for an audio file.
	Transcribe(ctx context.Context, audioPath string) ([]domain.TranscriptSegment, error)
}
