// Package whisper provides a transcriber adapter for OpenAI-compatible
// speech-to-text endpoints (OpenAI audio API, local whisper servers).
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure Transcriber implements the interface.
var _ driven.Transcriber = (*Transcriber)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "whisper-1"
	DefaultTimeout = 10 * time.Minute
)

// Config holds configuration for the whisper transcriber.
type Config struct {
	// APIKey authenticates against the endpoint. Optional for local
	// whisper servers.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the speech model to use (default: whisper-1).
	Model string

	// Timeout is the request timeout (default: 10m; transcription of a
	// full interview takes a while).
	Timeout time.Duration
}

// Transcriber converts audio files into timestamped transcript segments.
type Transcriber struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// transcriptionResponse is the verbose_json response format.
type transcriptionResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// NewTranscriber creates a new whisper transcriber.
func NewTranscriber(cfg Config) *Transcriber {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Transcriber{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// Transcribe produces transcript segments for an audio file.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) ([]domain.TranscriptSegment, error) {
	body, contentType, err := t.buildRequestBody(audioPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		t.baseURL+"/audio/transcriptions",
		body,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("whisper error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("whisper error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var trResp transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&trResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	segments := make([]domain.TranscriptSegment, 0, len(trResp.Segments))
	for _, seg := range trResp.Segments {
		segments = append(segments, domain.TranscriptSegment{
			Start: seg.Start,
			Text:  seg.Text,
		})
	}

	// Servers configured without segment output still return the text.
	if len(segments) == 0 && trResp.Text != "" {
		segments = append(segments, domain.TranscriptSegment{Start: 0, Text: trResp.Text})
	}
	return segments, nil
}

// buildRequestBody assembles the multipart upload.
func (t *Transcriber) buildRequestBody(audioPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy audio: %w", err)
	}

	if err := w.WriteField("model", t.model); err != nil {
		return nil, "", fmt.Errorf("write model field: %w", err)
	}
	if err := w.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", fmt.Errorf("write format field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
