package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/blade"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of blade",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "blade version %s\n", strings.TrimSpace(blade.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
