package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askedlabs/asked-cli/internal/core/domain"
)

var (
	askK         int
	askThreshold float64
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [subject] [query]",
	Short: "Search a subject's index for similar questions",
	Long: `Embeds the query and returns the most similar questions the subject
has been asked, if any score above the similarity threshold. An empty
result means no interview asked anything close enough.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askK, "k", 0, "maximum number of results (0 = configured default)")
	askCmd.Flags().Float64Var(&askThreshold, "threshold", -1, "minimum similarity score (-1 = configured default)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if retriever == nil {
		return errors.New("retrieval service not configured")
	}

	subject, query := args[0], args[1]
	ctx := context.Background()

	matches, err := retriever.Retrieve(ctx, subject, query, askK, askThreshold)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if askJSON {
		return printMatchesJSON(cmd, matches)
	}

	if len(matches) == 0 {
		diagnosis, err := retriever.ExplainNoResults(ctx, subject, query)
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}
		cmd.Println("No sufficiently similar question found.")
		cmd.Printf("  %s\n", diagnosis.Message)
		if diagnosis.ClosestMatch != nil {
			cmd.Printf("  Closest (below threshold, %.2f): %s\n",
				diagnosis.ClosestMatch.Score, diagnosis.ClosestMatch.Record.Text)
		}
		return nil
	}

	for i, match := range matches {
		cmd.Printf("%d. [%.2f] %s\n", i+1, match.Score, match.Record.Text)
		for _, src := range match.Record.Sources {
			cmd.Printf("     %s: %s\n", src.Type, sourceLabel(src))
		}
	}
	return nil
}

func printMatchesJSON(cmd *cobra.Command, matches []domain.Match) error {
	type jsonSource struct {
		Type           string  `json:"type"`
		URL            string  `json:"url"`
		Title          string  `json:"title,omitempty"`
		MediaTimestamp float64 `json:"media_timestamp,omitempty"`
	}
	type jsonMatch struct {
		Score   float64      `json:"score"`
		Text    string       `json:"text"`
		Sources []jsonSource `json:"sources"`
	}

	out := make([]jsonMatch, 0, len(matches))
	for _, match := range matches {
		m := jsonMatch{Score: match.Score, Text: match.Record.Text}
		for _, src := range match.Record.Sources {
			m.Sources = append(m.Sources, jsonSource{
				Type:           string(src.Type),
				URL:            src.URL,
				Title:          src.Title,
				MediaTimestamp: src.MediaTimestamp,
			})
		}
		out = append(out, m)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func sourceLabel(src domain.SourceRef) string {
	if src.Title != "" {
		return fmt.Sprintf("%s (%s)", src.Title, src.URL)
	}
	return src.URL
}
