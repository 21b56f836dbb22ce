package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ritzau/deps-minimizer/pkg/buck"
	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/refactor"
	"github.com/ritzau/deps-minimizer/pkg/watcher"
)

// app is the state shared by the subcommands of one invocation
type app struct {
	settings   *config.Settings
	refactorer *refactor.Refactorer
	settler    watcher.Settler
	ctx        context.Context
	stop       context.CancelFunc
	jsonOutput bool
}

var current = &app{}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps-minimizer",
		Short: "Remove unneeded imports and build dependencies from a Buck workspace",
		Long: `deps-minimizer removes import lines and build file dependencies one at a
time and keeps a removal only if the build still succeeds.

Commands take their input as JSON, either from a file (--json-file) or
inline (--json-text).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return current.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return current.close()
		},
	}

	f := cmd.PersistentFlags()
	f.String("root", ".", "Path to the workspace root")
	f.String("buck", "buck", "Path to the buck binary")
	f.String("json-file", "", "Path to the JSON command input")
	f.String("json-text", "", "Inline JSON command input")
	f.Bool("dry-run", false, "Print what would change without writing (cleanup: import expansion only)")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.Bool("json-logs", false, "Write logs as JSON")
	f.Int("workers", 8, "Number of concurrent file workers")
	f.Int("query-cache", 64, "Number of dependency queries to cache (0 disables)")
	f.String("settle-mode", config.SettleFixed, "Wait after build file writes: fixed or fsnotify")
	f.Duration("settle-delay", 0, "Fixed wait, or maximum wait in fsnotify mode (default 5s)")
	f.Duration("settle-quiet", 0, "Quiet period after the last write event in fsnotify mode")
	f.BoolVar(&current.jsonOutput, "json", false, "Print reports as JSON")

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	settings, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = settings

	logging.SetOutput(os.Stderr)
	logging.SetLevel(logging.LevelFromVerbosity(settings.Verbosity, settings.VerboseCnt))
	if settings.JSONLogs {
		logging.SetJSONOutput()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a.ctx = logging.WithRunID(ctx, uuid.NewString())
	a.stop = stop

	var oracle buck.Oracle = buck.NewClient(buck.NewExecutor(settings.Buck), settings.Root)
	if settings.QueryCache > 0 {
		if oracle, err = buck.WithQueryCache(oracle, settings.QueryCache); err != nil {
			return err
		}
	}

	if a.settler, err = watcher.New(settings.Settle); err != nil {
		return err
	}

	a.refactorer, err = refactor.New(refactor.Options{
		Root:    settings.Root,
		Rules:   settings.Rules,
		Oracle:  oracle,
		Settler: a.settler,
		Workers: settings.Workers,
		DryRun:  settings.DryRun,
	})
	if err != nil {
		return err
	}

	logging.InfoContext(a.ctx, "Starting", "command", cmd.Name(), "root", settings.Root, "dryRun", settings.DryRun)
	return nil
}

func (a *app) close() error {
	if a.stop != nil {
		a.stop()
	}
	if a.settler != nil {
		return a.settler.Close()
	}
	return nil
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
