// Package file provides the TOML-backed configuration store with
// hot-reload of tunables via filesystem watching.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/askedlabs/asked-cli/internal/logger"
)

// Config is the full typed configuration. Zero values are filled with
// defaults on load, so a partial config file is always valid.
type Config struct {
	Data       DataConfig       `toml:"data"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Refiner    RefinerConfig    `toml:"refiner"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Extraction ExtractionConfig `toml:"extraction"`
	Ingest     IngestConfig     `toml:"ingest"`
}

// DataConfig locates the on-disk stores.
type DataConfig struct {
	// Dir holds the SQLite database and per-subject vector files.
	// Empty means ~/.asked/data.
	Dir string `toml:"dir"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// APIKey authenticates against hosted providers.
	APIKey string `toml:"api_key"`

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int `toml:"dimensions"`
}

// RefinerConfig tunes the optional Stage-2 candidate refinement.
type RefinerConfig struct {
	// Enabled turns LLM refinement on. Off means heuristics-only runs.
	Enabled bool `toml:"enabled"`

	// BaseURL overrides the Ollama endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the chat model used for refinement.
	Model string `toml:"model"`
}

// RetrievalConfig tunes query answering. Hot-reloadable.
type RetrievalConfig struct {
	// Threshold is the minimum cosine similarity for a match.
	Threshold float64 `toml:"threshold"`

	// K is the default result count.
	K int `toml:"k"`

	// OverFetchFactor multiplies K when querying the vector index.
	OverFetchFactor int `toml:"over_fetch_factor"`
}

// ExtractionConfig tunes the question extraction pipeline.
type ExtractionConfig struct {
	// MinTokens and MaxTokens bound accepted candidate length.
	MinTokens int `toml:"min_tokens"`
	MaxTokens int `toml:"max_tokens"`

	// RefineBatchSize is how many candidates go to the refiner per call.
	RefineBatchSize int `toml:"refine_batch_size"`

	// Dedup enables near-duplicate merging across a run.
	Dedup bool `toml:"dedup"`

	// DedupThreshold is the similarity above which candidates merge.
	DedupThreshold float64 `toml:"dedup_threshold"`
}

// IngestConfig tunes ingestion. FreshnessDays is hot-reloadable.
type IngestConfig struct {
	// FreshnessDays is the age in days beyond which an index is stale.
	FreshnessDays int `toml:"freshness_days"`

	// FetchConcurrency bounds parallel source fetches within a run.
	FetchConcurrency int `toml:"fetch_concurrency"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
		},
		Refiner: RefinerConfig{
			Enabled: true,
			Model:   "llama3.2",
		},
		Retrieval: RetrievalConfig{
			Threshold:       0.50,
			K:               5,
			OverFetchFactor: 4,
		},
		Extraction: ExtractionConfig{
			MinTokens:       3,
			MaxTokens:       200,
			RefineBatchSize: 30,
			DedupThreshold:  0.90,
		},
		Ingest: IngestConfig{
			FreshnessDays:    30,
			FetchConcurrency: 4,
		},
	}
}

// fillDefaults overlays defaults onto unset fields.
func (c *Config) fillDefaults() {
	d := Defaults()
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = d.Embedding.Provider
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = d.Embedding.Model
	}
	if c.Refiner.Model == "" {
		c.Refiner.Model = d.Refiner.Model
	}
	if c.Retrieval.Threshold == 0 {
		c.Retrieval.Threshold = d.Retrieval.Threshold
	}
	if c.Retrieval.K == 0 {
		c.Retrieval.K = d.Retrieval.K
	}
	if c.Retrieval.OverFetchFactor == 0 {
		c.Retrieval.OverFetchFactor = d.Retrieval.OverFetchFactor
	}
	if c.Extraction.MinTokens == 0 {
		c.Extraction.MinTokens = d.Extraction.MinTokens
	}
	if c.Extraction.MaxTokens == 0 {
		c.Extraction.MaxTokens = d.Extraction.MaxTokens
	}
	if c.Extraction.RefineBatchSize == 0 {
		c.Extraction.RefineBatchSize = d.Extraction.RefineBatchSize
	}
	if c.Extraction.DedupThreshold == 0 {
		c.Extraction.DedupThreshold = d.Extraction.DedupThreshold
	}
	if c.Ingest.FreshnessDays == 0 {
		c.Ingest.FreshnessDays = d.Ingest.FreshnessDays
	}
	if c.Ingest.FetchConcurrency == 0 {
		c.Ingest.FetchConcurrency = d.Ingest.FetchConcurrency
	}
}

// Store loads, persists and watches the configuration file.
type Store struct {
	mu       sync.RWMutex
	filePath string
	cfg      Config

	watcher  *fsnotify.Watcher
	onChange func(Config)
	done     chan struct{}
}

// NewStore creates a TOML config store. If configDir is empty, defaults
// to ~/.asked/config.toml. A missing file yields the default config; it
// is written out so users have something to edit.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".asked")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &Store{
		filePath: filepath.Join(configDir, "config.toml"),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the configuration from disk, writing defaults when the
// file does not exist yet.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		s.cfg = Defaults()
		return s.save()
	}
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	cfg.fillDefaults()
	s.cfg = cfg
	return nil
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Save replaces and persists the configuration.
func (s *Store) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg.fillDefaults()
	s.cfg = cfg
	return s.save()
}

// save writes the configuration to disk (caller must hold lock).
func (s *Store) save() error {
	data, err := toml.Marshal(s.cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.filePath
}

// Watch starts hot-reloading the file. Each successful reload invokes
// onChange with the new snapshot. Malformed edits keep the previous
// config and log a warning.
func (s *Store) Watch(onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching config directory: %w", err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.onChange = onChange
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.watchLoop(watcher)
	return nil
}

func (s *Store) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.filePath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Load(); err != nil {
				logger.Warn("Config reload failed, keeping previous settings: %v", err)
				continue
			}
			logger.Info("Config reloaded from %s", s.filePath)
			if s.onChange != nil {
				s.onChange(s.Snapshot())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error: %v", err)
		}
	}
}

// Close stops the watcher if one is running.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
