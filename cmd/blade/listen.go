package main

import (
	"github.com/aretw0/blade/internal/cli"
	"github.com/aretw0/blade/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Read phrases from standard input and run them",
	Long: `Starts an interactive session. Each input line is a phrase, or a JSON run
request with --json (NDJSON in, NDJSON out). The session ends at end of input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		opts := cli.ListenOptions{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
		}
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
		opts.NoInjection, _ = cmd.Flags().GetBool("no-inject")
		opts.Mode, _ = cmd.Flags().GetString("mode")
		watchMode, _ := cmd.Flags().GetBool("watch")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		if !opts.JSON && tui.IsTerminal(opts.Out) {
			tui.PrintBanner(opts.Out)
			cli.SystemMessage(opts.Out, "%d intents loaded from %s", len(stack.Engine.Intents(ctx)), stack.Settings.Config)
		}

		if watchMode {
			wait, err := cli.WatchReload(ctx, stack.Engine, stack.Logger, func(n int) {
				if !opts.JSON {
					cli.SystemMessage(opts.Out, "configuration reloaded: %d intents", n)
				}
			})
			if err != nil {
				return err
			}
			defer wait()
		}

		err = cli.Listen(ctx, stack.Engine, opts, stack.Logger)
		ctx.Cancel()
		return err
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
	runRequestFlags(listenCmd)
	listenCmd.Flags().BoolP("watch", "w", false, "Reload the configuration when the file changes")

	// Listening is the default when no subcommand is given.
	rootCmd.Flags().AddFlagSet(listenCmd.Flags())
	rootCmd.RunE = listenCmd.RunE
}
