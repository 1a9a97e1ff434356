package main

import (
	"fmt"
	"os"

	"github.com/aretw0/blade/internal/cli"
	"github.com/aretw0/blade/internal/config"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blade",
	Short: "Blade turns spoken or typed phrases into host operations",
	Long: `Blade resolves free-form phrases ("ajoute un cube", "mets en rouge") into
configured intents and dispatches them to the host application.

Without a subcommand it listens for phrases on standard input.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	d := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.String("settings", "", "Settings file (default ./blade.yaml or $HOME/.config/blade/blade.yaml)")
	flags.StringP("config", "c", d.Config, "Intent configuration file")
	flags.String("pending", d.Pending, "Pending intents file")
	flags.String("pending-backend", d.PendingBackend, "Pending store: file, memory or redis")
	flags.String("redis-addr", d.Redis.Addr, "Redis address for the redis pending backend")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("history", d.History, "Execution history: memory, none or a SQLite file")
	flags.Float64("threshold", d.Matcher.Threshold, "Minimum fuzzy match score in [0, 1]")
	flags.Int("retries", d.Executor.Retries, "Retries of the fallback executor")
	flags.Duration("delay", d.Executor.Delay, "Delay between retries")
	flags.Bool("auto-fix", d.Executor.AutoFix, "Repair missing context before executing")
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")
	flags.String("log-format", d.LogFormat, "Log format: text or json")
}

// loadSettings reads settings with the flags of cmd taking precedence.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, _ := cmd.Flags().GetString("settings")
	return config.Load(path, cmd.Flags())
}

// openStack builds the engine and its stores for cmd.
func openStack(cmd *cobra.Command) (*cli.Stack, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(s)
	if err != nil {
		return nil, err
	}
	return cli.NewStack(s, nil, logger)
}

// runRequestFlags registers the flags shared by commands building run requests.
func runRequestFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "Resolve and record without executing")
	cmd.Flags().Bool("no-inject", false, "Do not record new intents in the pending list")
	cmd.Flags().String("mode", domain.ModeText, "Input mode recorded in history (voice, text, ui)")
	cmd.Flags().Bool("json", false, "Write JSON instead of text")
}
