package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/blade/internal/cli"
	"github.com/aretw0/blade/internal/presentation/tui"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/spf13/cobra"
)

// smokeCmd represents the smoke command
var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Execute every configured intent once",
	Long: `Runs the whole configuration against the in-memory host and reports which
intents fail. With --phrases, the first phrase of every intent goes through the
full run pipeline instead, which also checks that it matches its own intent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		phrases, _ := cmd.Flags().GetBool("phrases")
		stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
		jsonMode, _ := cmd.Flags().GetBool("json")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		start := time.Now()
		intents := stack.Engine.Intents(ctx)
		var batch domain.BatchResult
		if phrases {
			batch = smokePhrases(ctx, stack, intents, stopOnError)
		} else {
			batch = stack.Engine.ExecuteBatch(ctx, intents, stopOnError)
		}

		out := cmd.OutOrStdout()
		if jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(batch); err != nil {
				return err
			}
		} else {
			for _, d := range batch.Details {
				if d.OK {
					fmt.Fprintf(out, "%s %s (%s)\n", tui.Status(out, true, "ok  "), d.Name, d.Stage)
					continue
				}
				fmt.Fprintf(out, "%s %s: %s\n", tui.Status(out, false, "fail"), d.Name, d.Error)
			}
			cli.SystemMessage(out, "%d/%d intents passed in %s", batch.Success, batch.Total, time.Since(start).Round(time.Millisecond))
		}

		if batch.Failed > 0 {
			return fmt.Errorf("%d intents failed", batch.Failed)
		}
		return nil
	},
}

// smokePhrases runs the first variant of every intent and expects the run to
// resolve to that same intent.
func smokePhrases(ctx *cli.SignalContext, stack *cli.Stack, intents []domain.Intent, stopOnError bool) domain.BatchResult {
	var batch domain.BatchResult
	for _, in := range intents {
		if ctx.Err() != nil {
			break
		}
		variants := in.Variants()
		if len(variants) == 0 {
			continue
		}
		req := domain.NewRunRequest(variants[0])
		req.Mode = domain.ModeText
		req.AllowInjection = false

		rep := stack.Engine.RunDetailed(ctx, req)
		res := domain.ExecutionResult{Name: in.Name, OK: rep.OK, Stage: domain.StageFailed}
		if rep.Result != nil {
			res = *rep.Result
			res.Name = in.Name
		}
		switch {
		case rep.Intent == nil:
			res.OK = false
			res.Error = fmt.Sprintf("%q did not match (%s)", variants[0], rep.Reason)
		case rep.Intent.Name != in.Name:
			res.OK = false
			res.Error = fmt.Sprintf("%q resolved to %s", variants[0], rep.Intent.Name)
		case !rep.OK && res.Error == "":
			res.Error = string(rep.Reason)
		}
		batch.Add(res)
		if !res.OK && stopOnError {
			break
		}
	}
	return batch
}

func init() {
	rootCmd.AddCommand(smokeCmd)
	smokeCmd.Flags().Bool("phrases", false, "Run the first phrase of every intent through the run pipeline")
	smokeCmd.Flags().Bool("stop-on-error", false, "Stop at the first failure")
	smokeCmd.Flags().Bool("json", false, "Write JSON instead of text")
}
