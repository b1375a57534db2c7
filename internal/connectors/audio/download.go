package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure HTTPDownloader implements the interface.
var _ driven.MediaDownloader = (*HTTPDownloader)(nil)

// DefaultDownloadTimeout bounds a full enclosure download. Podcast
// episodes run large, so this is much longer than metadata requests.
const DefaultDownloadTimeout = 10 * time.Minute

// HTTPDownloader fetches podcast enclosures, which are plain HTTP audio
// files, to a local temp file.
type HTTPDownloader struct {
	client  *http.Client
	workDir string
}

// NewHTTPDownloader creates a downloader writing into workDir
// (default: os.TempDir()).
func NewHTTPDownloader(workDir string) *HTTPDownloader {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &HTTPDownloader{
		client:  &http.Client{Timeout: DefaultDownloadTimeout},
		workDir: workDir,
	}
}

// DownloadAudio fetches the audio for a URL and returns the local file
// path. The caller removes the file when done.
func (d *HTTPDownloader) DownloadAudio(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d downloading %s", resp.StatusCode, url)
	}

	out, err := os.Create(filepath.Join(d.workDir, "asked-"+uuid.NewString()+".mp3"))
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("close audio file: %w", err)
	}
	return out.Name(), nil
}
