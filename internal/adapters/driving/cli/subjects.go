package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var subjectsJSON bool

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List indexed subjects",
	Long:  `Lists every subject in the registry with its question and source counts.`,
	Args:  cobra.NoArgs,
	RunE:  runSubjects,
}

func init() {
	subjectsCmd.Flags().BoolVar(&subjectsJSON, "json", false, "output the registry as JSON")
	rootCmd.AddCommand(subjectsCmd)
}

func runSubjects(cmd *cobra.Command, _ []string) error {
	if subjectService == nil {
		return errors.New("subject service not configured")
	}

	entries, err := subjectService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list subjects: %w", err)
	}

	if subjectsJSON {
		type jsonEntry struct {
			Subject       string `json:"subject"`
			Status        string `json:"status"`
			Questions     int    `json:"questions"`
			Videos        int    `json:"videos"`
			Audios        int    `json:"audios"`
			Articles      int    `json:"articles"`
			LastIndexedAt string `json:"last_indexed_at"`
		}
		out := make([]jsonEntry, 0, len(entries))
		for _, entry := range entries {
			out = append(out, jsonEntry{
				Subject:       entry.Subject,
				Status:        string(entry.Status),
				Questions:     entry.QuestionCount,
				Videos:        entry.SourceCounts.Video,
				Audios:        entry.SourceCounts.Audio,
				Articles:      entry.SourceCounts.Article,
				LastIndexedAt: entry.LastIndexedAt.Format(time.RFC3339),
			})
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal subjects: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		cmd.Println("No subjects indexed yet. Run 'asked ingest' first.")
		return nil
	}

	for _, entry := range entries {
		cmd.Printf("%s  (%d questions from %d sources, last indexed %s)\n",
			entry.Subject, entry.QuestionCount, entry.SourceCounts.Total(),
			entry.LastIndexedAt.Format("2006-01-02"))
	}
	return nil
}
