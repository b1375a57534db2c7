package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure YtDlpDownloader implements the interface.
var _ driven.MediaDownloader = (*YtDlpDownloader)(nil)

// YtDlpDownloader extracts the audio track of a video URL using the
// yt-dlp binary. The binary must be on PATH.
type YtDlpDownloader struct {
	// Binary is the yt-dlp executable name or path (default: yt-dlp).
	Binary string

	// WorkDir is where audio files are written (default: os.TempDir()).
	WorkDir string
}

// NewYtDlpDownloader creates a downloader with default settings.
func NewYtDlpDownloader() *YtDlpDownloader {
	return &YtDlpDownloader{}
}

// DownloadAudio fetches the audio for a video URL and returns the local
// file path. The caller removes the file when done.
func (d *YtDlpDownloader) DownloadAudio(ctx context.Context, url string) (string, error) {
	binary := d.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	workDir := d.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}

	outPath := filepath.Join(workDir, "asked-"+uuid.NewString()+".mp3")

	cmd := exec.CommandContext(ctx, binary,
		"--extract-audio",
		"--audio-format", "mp3",
		"--no-playlist",
		"--quiet",
		"--output", outPath,
		url,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("yt-dlp: %w: %s", err, string(out))
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("yt-dlp produced no output file: %w", err)
	}
	return outPath, nil
}
