package main

import (
	"os"
)

func main() {
	rootCmd := newRootCmd()
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newStatsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
