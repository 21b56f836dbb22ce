package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/output"
)

func newCleanupCmd() *cobra.Command {
	var diffs bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove unused imports and build dependencies",
		Long: `Cleanup loads the dependency closure of the project targets and, in
order, expands umbrella imports, removes import lines and removes build file
dependencies. Every removal is verified with a build.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := config.LoadCleanupInput(current.settings.JSONFile, current.settings.JSONText)
			if err != nil {
				return err
			}
			report, err := current.refactorer.Cleanup(current.ctx, in)
			if err != nil {
				return err
			}
			if current.jsonOutput {
				return printJSON(os.Stdout, report)
			}
			return output.PrintCleanupReport(os.Stdout, report, diffs || current.settings.DryRun)
		},
	}
	cmd.Flags().BoolVar(&diffs, "diff", false, "Print a unified diff of every edited file")
	return cmd
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create modules from existing files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := config.LoadCreateInput(current.settings.JSONFile, current.settings.JSONText)
			if err != nil {
				return err
			}
			report, err := current.refactorer.Create(current.ctx, in)
			if err != nil {
				return err
			}
			if current.jsonOutput {
				return printJSON(os.Stdout, report)
			}
			output.PrintCreateReport(os.Stdout, report)
			return nil
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move",
		Short: "Move modules and update references to them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := config.LoadMoveInput(current.settings.JSONFile, current.settings.JSONText)
			if err != nil {
				return err
			}
			report, err := current.refactorer.Move(current.ctx, in)
			if err != nil {
				return err
			}
			if current.jsonOutput {
				return printJSON(os.Stdout, report)
			}
			output.PrintMoveReport(os.Stdout, report)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print module and line counts of project targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := config.LoadStatsInput(current.settings.JSONFile, current.settings.JSONText)
			if err != nil {
				return err
			}
			report, err := current.refactorer.Stats(current.ctx, in)
			if err != nil {
				return err
			}
			if current.jsonOutput {
				return printJSON(os.Stdout, report)
			}
			output.PrintStatsReport(os.Stdout, report)
			return nil
		},
	}
}
