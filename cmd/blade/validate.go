package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aretw0/blade/internal/presentation/tui"
	"github.com/aretw0/blade/internal/validator"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check the intent configuration for consistency",
	Long: `Reads the intent configuration and reports YAML errors, missing or duplicate
names, intents without phrases and operators that are neither host commands
nor state paths. Unknown keys are reported as warnings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		path := s.Config
		if len(args) > 0 {
			path = args[0]
		}

		rep, err := validator.New(nil).ValidateFile(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
		} else {
			for _, w := range rep.Warnings {
				fmt.Fprintf(out, "%s %s\n", tui.Status(out, true, "warning"), w)
			}
			for _, e := range rep.Errors {
				fmt.Fprintf(out, "%s %s\n", tui.Status(out, false, "error"), e)
			}
			kinds := make([]string, 0, len(rep.Kinds))
			for k := range rep.Kinds {
				kinds = append(kinds, string(k))
			}
			slices.Sort(kinds)
			fmt.Fprintf(out, "%d intents in %s", rep.Total, path)
			for _, k := range kinds {
				fmt.Fprintf(out, ", %d %s", rep.Kinds[domain.OperatorKind(k)], k)
			}
			fmt.Fprintln(out)
		}

		if err := rep.Err(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if jsonMode, _ := cmd.Flags().GetBool("json"); !jsonMode {
			fmt.Fprintln(out, "Configuration is valid! ✅")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Write the report as JSON")
}
