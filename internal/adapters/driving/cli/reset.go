package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset [subject]",
	Short: "Delete a subject's index",
	Long: `Removes the subject's registry entry, its question records and its
vector partition. This is the only way indexed questions are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if subjectService == nil {
		return errors.New("subject service not configured")
	}

	subject := args[0]

	if !resetYes {
		cmd.Printf("This permanently deletes everything indexed for %q. Continue? [y/N] ", subject)
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(answer)); answer != "y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := subjectService.Reset(context.Background(), subject); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	cmd.Printf("Removed %s from the index.\n", subject)
	return nil
}
