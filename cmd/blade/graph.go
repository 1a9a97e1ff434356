package main

import (
	"fmt"

	"github.com/aretw0/blade/internal/presentation/graph"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/pipeline"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the intent routing as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph LR) grouping the intents by the pipeline that
runs them, with their fallbacks as dotted edges. With --smoke, every intent is
executed first and coloured by outcome.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		ctx := cmd.Context()
		intents := stack.Engine.Intents(ctx)
		manager := pipeline.NewManager(nil, pipeline.WithLogger(stack.Logger))
		route := func(in domain.Intent) string { return manager.Select(in).Name() }

		var overlay *graph.Overlay
		if smoke, _ := cmd.Flags().GetBool("smoke"); smoke {
			batch := stack.Engine.ExecuteBatch(ctx, intents, false)
			overlay = &graph.Overlay{Succeeded: batch.NamesSuccess, Failed: batch.NamesFailed}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(intents, route, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("smoke", false, "Execute every intent and highlight the outcome")
}
