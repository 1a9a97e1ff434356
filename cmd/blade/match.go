package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/blade/internal/presentation/tui"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/matcher"
	"github.com/aretw0/blade/pkg/runner"
	"github.com/spf13/cobra"
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match <phrase>...",
	Short: "Show which intent a phrase resolves to",
	Long:  `Matches the phrase without executing anything. Unmatched phrases list the closest configured variants.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		phrase, err := runner.SanitizePhrase(strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("phrase rejected: %w", err)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := cmd.Context()
		res := stack.Engine.Match(ctx, phrase)
		var suggestions []matcher.Suggestion
		if !res.Matched() && limit > 0 {
			suggestions = stack.Engine.Suggest(ctx, phrase, limit)
		}

		out := cmd.OutOrStdout()
		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Match       domain.MatchResult   `json:"match"`
				Suggestions []matcher.Suggestion `json:"suggestions,omitempty"`
			}{res, suggestions})
		}

		if res.Matched() {
			fmt.Fprintf(out, "%s %s (%s, score %.2f, operator %s)\n",
				tui.Status(out, true, "match"), res.Intent.Name, res.Stage, res.Score, res.Intent.Operator)
			return nil
		}
		fmt.Fprintf(out, "%s best score %.2f\n", tui.Status(out, false, "no match"), res.Score)
		for _, s := range suggestions {
			fmt.Fprintf(out, "  did you mean %q (%s)?\n", s.Variant, s.Intent)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().Int("limit", 3, "Number of suggestions for unmatched phrases")
	matchCmd.Flags().Bool("json", false, "Write JSON instead of text")
}
