// Package ollama provides a question refiner adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure Refiner implements the interface.
var _ driven.Refiner = (*Refiner)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// refinePrompt asks for a cleaned JSON array. The model sees candidate
// strings only, never the surrounding transcript.
const refinePrompt = `You are cleaning up interview questions extracted from transcripts.
Given a JSON array of candidate strings, return a JSON array containing
only real interview questions:
- remove entries that are not questions (statements, rhetorical asides)
- merge near-duplicate phrasings into a single representative
- rewrite truncated fragments into standalone questions
Never invent questions that are not in the input, and never return more
entries than you were given. Return ONLY the JSON array, nothing else.

Input:
%s

Output:`

// Config holds configuration for the Ollama refiner.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Refiner cleans candidate question batches using an Ollama chat model.
type Refiner struct {
	client  *http.Client
	baseURL string
	model   string
	usage   driven.UsageSink
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// options holds generation parameters.
type options struct {
	Temperature float64 `json:"temperature,omitempty"`
}

// chatResponse is the Ollama /api/chat response format. The eval count
// fields carry token accounting.
type chatResponse struct {
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// NewRefiner creates a new Ollama refiner.
func NewRefiner(cfg Config) *Refiner {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Refiner{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// SetUsageSink sets the sink that receives token accounting per call.
// If not set, usage is not reported.
func (r *Refiner) SetUsageSink(sink driven.UsageSink) {
	r.usage = sink
}

// RefineBatch cleans up one batch of candidate questions.
func (r *Refiner) RefineBatch(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	input, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}

	reqBody := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(refinePrompt, string(input))},
		},
		Stream:  false,
		Options: &options{Temperature: 0.1},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/api/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRefinerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: status %d", domain.ErrRefinerUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrRefinerUnavailable, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if r.usage != nil {
		r.usage.RecordUsage(chatResp.PromptEvalCount, chatResp.EvalCount)
	}

	refined, err := parseQuestionArray(chatResp.Message.Content)
	if err != nil {
		return nil, err
	}

	// The model must never grow the batch.
	if len(refined) > len(candidates) {
		refined = refined[:len(candidates)]
	}
	return refined, nil
}

// Close releases resources.
func (r *Refiner) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// parseQuestionArray extracts the JSON array from a model response,
// tolerating surrounding prose.
func parseQuestionArray(content string) ([]string, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: response contains no JSON array", domain.ErrRefinerUnavailable)
	}

	var out []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON array: %v", domain.ErrRefinerUnavailable, err)
	}

	cleaned := make([]string, 0, len(out))
	for _, q := range out {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	return cleaned, nil
}
