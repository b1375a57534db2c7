package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

var (
	ingestVideos   []string
	ingestAudios   []string
	ingestArticles []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [subject]",
	Short: "Mine questions from sources and index them",
	Long: `Fetches the given video, podcast and article sources, extracts the
questions the subject was asked, and appends them to the subject's
index. Failing sources are skipped; the rest of the run continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringArrayVar(&ingestVideos, "video", nil, "video URL (repeatable)")
	ingestCmd.Flags().StringArrayVar(&ingestAudios, "audio", nil, "podcast feed or audio URL (repeatable)")
	ingestCmd.Flags().StringArrayVar(&ingestArticles, "article", nil, "article URL (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	subject := args[0]
	specs := buildSourceSpecs()
	if len(specs) == 0 {
		return errors.New("no sources given; use --video, --audio or --article")
	}

	cmd.Printf("Ingesting %d source(s) for %s...\n", len(specs), subject)

	report, err := ingestor.Ingest(context.Background(), subject, specs)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Indexed %d question(s) from %d source(s).\n",
		report.QuestionsIndexed, report.SourceCounts.Total())
	if len(report.SkippedSources) > 0 {
		cmd.Printf("Skipped %d source(s):\n", len(report.SkippedSources))
		for _, url := range report.SkippedSources {
			cmd.Printf("  - %s\n", url)
		}
	}
	if report.Degraded {
		cmd.Println("Note: refinement was unavailable for part of this run; results are heuristics-only.")
	}
	return nil
}

func buildSourceSpecs() []domain.SourceSpec {
	var specs []domain.SourceSpec
	for _, url := range ingestVideos {
		specs = append(specs, domain.SourceSpec{Type: domain.SourceVideo, URL: url})
	}
	for _, url := range ingestAudios {
		specs = append(specs, domain.SourceSpec{Type: domain.SourceAudio, URL: url})
	}
	for _, url := range ingestArticles {
		specs = append(specs, domain.SourceSpec{Type: domain.SourceArticle, URL: url})
	}
	return specs
}
