package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/blade/internal/cli"
	"github.com/aretw0/blade/internal/presentation/tui"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/runner"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <phrase>...",
	Short: "Resolve and execute a single phrase",
	Long:  `Matches the phrase against the configured intents and executes the best intent in the host.`,
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
		req := domain.NewRunRequest(phrase)
		req.Mode, _ = cmd.Flags().GetString("mode")
		req.DryRun, _ = cmd.Flags().GetBool("dry-run")
		noInject, _ := cmd.Flags().GetBool("no-inject")
		req.AllowInjection = !noInject

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		rep := stack.Engine.RunDetailed(ctx, req)

		out := cmd.OutOrStdout()
		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
		} else {
			text := runner.Summary(rep)
			if rendered, err := tui.RendererFor(out)(text); err == nil {
				text = rendered
			}
			fmt.Fprintln(out, strings.TrimSpace(text))
		}

		if !rep.OK && rep.Reason != domain.ReasonDryRun {
			return fmt.Errorf("run failed: %s", rep.Reason)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runRequestFlags(runCmd)
}
