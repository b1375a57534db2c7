package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	decideForce bool
	decideJSON  bool
)

var decideCmd = &cobra.Command{
	Use:   "decide [subject]",
	Short: "Show which workflow path a subject would take",
	Long: `Reads the subject's registry entry and reports whether a request
would ingest from scratch, answer from the existing index, or
incrementally ingest before answering.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().BoolVar(&decideForce, "force", false, "evaluate as a forced full re-ingestion")
	decideCmd.Flags().BoolVar(&decideJSON, "json", false, "output the decision as JSON")
	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	if advisor == nil {
		return errors.New("decision service not configured")
	}

	decision, err := advisor.Decide(context.Background(), args[0], decideForce)
	if err != nil {
		return fmt.Errorf("decide failed: %w", err)
	}

	if decideJSON {
		data, err := json.MarshalIndent(map[string]string{
			"action": string(decision.Action),
			"reason": decision.Reason,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal decision: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%s\n", decision.Action)
	cmd.Printf("  %s\n", decision.Reason)
	return nil
}
