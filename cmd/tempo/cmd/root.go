// Package cmd implements the tempo command line interface.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tempo",
	Short: "Drive and inspect an emulated machine's timing core.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional; flags win over the environment.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
