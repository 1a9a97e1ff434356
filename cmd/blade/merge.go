package main

import (
	"fmt"

	"github.com/aretw0/blade/internal/cli"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Move pending intents into the configuration",
	Long: `Appends the intents recorded in the pending list to the intent configuration,
skipping names that are already configured, and clears the pending list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		report, err := stack.Merger().Merge(cmd.Context())
		if err != nil {
			return fmt.Errorf("merge failed: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, name := range report.Added {
			fmt.Fprintf(out, "+ %s\n", name)
		}
		for _, name := range report.Skipped {
			fmt.Fprintf(out, "= %s (already configured)\n", name)
		}
		cli.SystemMessage(out, "%d added, %d skipped into %s", len(report.Added), len(report.Skipped), stack.Settings.Config)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
