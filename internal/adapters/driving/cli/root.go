// Package cli implements the asked command-line interface.
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/askedlabs/asked-cli/internal/adapters/driven/config/file"
	embollama "github.com/askedlabs/asked-cli/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/askedlabs/asked-cli/internal/adapters/driven/embedding/openai"
	refollama "github.com/askedlabs/asked-cli/internal/adapters/driven/refine/ollama"
	"github.com/askedlabs/asked-cli/internal/adapters/driven/storage/sqlite"
	"github.com/askedlabs/asked-cli/internal/adapters/driven/usage"
	"github.com/askedlabs/asked-cli/internal/adapters/driven/vector/flat"
	"github.com/askedlabs/asked-cli/internal/connectors/article"
	"github.com/askedlabs/asked-cli/internal/connectors/audio"
	"github.com/askedlabs/asked-cli/internal/connectors/video"
	"github.com/askedlabs/asked-cli/internal/connectors/whisper"
	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
	"github.com/askedlabs/asked-cli/internal/core/ports/driving"
	"github.com/askedlabs/asked-cli/internal/core/services"
	"github.com/askedlabs/asked-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verboseFlag bool

// Services the commands run against. Wired by initServices in normal
// operation; tests set them directly.
var (
	configStore *file.Store
	store       *sqlite.Store
	vectorIndex *flat.Index

	advisor        driving.Advisor
	ingestor       driving.Ingestor
	retriever      driving.Retriever
	subjectService driving.SubjectService
)

var rootCmd = &cobra.Command{
	Use:   "asked",
	Short: "Mine and search questions people were asked in interviews",
	Long: `asked builds a per-subject index of interview questions mined from
videos, podcasts and articles, and answers "has anyone asked X this
before?" by semantic similarity.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose logging to stderr")
}

// Execute wires the adapter stack and runs the CLI.
func Execute() error {
	defer shutdown()
	if err := initServices(); err != nil {
		return err
	}
	return rootCmd.Execute()
}

// initServices builds the adapter stack from configuration. Already
// configured services (tests) are left alone.
func initServices() error {
	if advisor != nil && ingestor != nil && retriever != nil && subjectService != nil {
		return nil
	}

	var err error
	configStore, err = file.NewStore("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := configStore.Snapshot()

	store, err = sqlite.NewStore(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}

	vectorDir := cfg.Data.Dir
	if vectorDir == "" {
		vectorDir = filepath.Dir(store.Path())
	}
	vectorIndex, err = flat.NewIndex(filepath.Join(vectorDir, "vectors"))
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}

	var refiner driven.Refiner
	if cfg.Refiner.Enabled {
		r := refollama.NewRefiner(refollama.Config{
			BaseURL: cfg.Refiner.BaseURL,
			Model:   cfg.Refiner.Model,
		})
		r.SetUsageSink(usage.NewTracker())
		refiner = r
	}

	extractor := services.NewExtractor(services.ExtractorConfig{
		MinTokens:       cfg.Extraction.MinTokens,
		MaxTokens:       cfg.Extraction.MaxTokens,
		RefineBatchSize: cfg.Extraction.RefineBatchSize,
		Dedup:           cfg.Extraction.Dedup,
		DedupThreshold:  cfg.Extraction.DedupThreshold,
	}, refiner)

	registry := store.RegistryStore()
	meta := store.MetadataStore()

	decisionSvc := services.NewDecisionService(registry,
		time.Duration(cfg.Ingest.FreshnessDays)*24*time.Hour)
	ingestSvc := services.NewIngestService(registry, meta, vectorIndex,
		embedder, extractor, buildConnectors(cfg))
	ingestSvc.SetFetchConcurrency(cfg.Ingest.FetchConcurrency)
	retrievalSvc := services.NewRetrievalService(meta, vectorIndex, embedder,
		retrievalConfig(cfg))

	advisor = decisionSvc
	ingestor = ingestSvc
	retriever = retrievalSvc
	subjectService = services.NewSubjectsService(registry, meta, vectorIndex)

	// Hot-reload tunables on config edits. A failed watch leaves the
	// startup settings in place.
	if err := configStore.Watch(func(c file.Config) {
		decisionSvc.SetFreshness(time.Duration(c.Ingest.FreshnessDays) * 24 * time.Hour)
		retrievalSvc.UpdateConfig(retrievalConfig(c))
		ingestSvc.SetFetchConcurrency(c.Ingest.FetchConcurrency)
	}); err != nil {
		logger.Warn("Config hot-reload disabled: %v", err)
	}

	return nil
}

// retrievalConfig maps config file tunables to the retrieval engine.
func retrievalConfig(cfg file.Config) services.RetrievalConfig {
	return services.RetrievalConfig{
		DefaultK:         cfg.Retrieval.K,
		OverFetchFactor:  cfg.Retrieval.OverFetchFactor,
		DefaultThreshold: cfg.Retrieval.Threshold,
	}
}

// buildEmbedder selects the embedding provider from config.
func buildEmbedder(cfg file.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "", "ollama":
		return embollama.NewEmbeddingService(embollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	case "openai":
		return embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// buildConnectors wires one connector per source type.
func buildConnectors(cfg file.Config) map[domain.SourceType]driven.Connector {
	transcriber := whisper.NewTranscriber(whisper.Config{
		APIKey: cfg.Embedding.APIKey,
	})

	return map[domain.SourceType]driven.Connector{
		domain.SourceVideo:   video.NewConnector(video.NewYtDlpDownloader(), transcriber),
		domain.SourceAudio:   audio.NewConnector(audio.NewHTTPDownloader(""), transcriber),
		domain.SourceArticle: article.NewConnector(article.Config{}),
	}
}

// shutdown releases adapter resources.
func shutdown() {
	if vectorIndex != nil {
		vectorIndex.Close()
	}
	if store != nil {
		store.Close()
	}
	if configStore != nil {
		configStore.Close()
	}
}
