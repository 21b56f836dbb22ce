package refactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ritzau/deps-minimizer/pkg/buck"
	"github.com/ritzau/deps-minimizer/pkg/buildfile"
	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/finder"
	"github.com/ritzau/deps-minimizer/pkg/loader"
	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/minimize"
	"github.com/ritzau/deps-minimizer/pkg/model"
	"github.com/ritzau/deps-minimizer/pkg/rename"
	"github.com/ritzau/deps-minimizer/pkg/usage"
	"github.com/ritzau/deps-minimizer/pkg/watcher"
)

// ErrDryRunUnsupported is returned when a dry run asks for import or
// dependency reduction. Every reduction is verified by building the edited
// workspace, so it cannot run without writing.
var ErrDryRunUnsupported = errors.New("dry run supports only import expansion")

// objcFileTypes are the files whose #import lines are rewritten
var objcFileTypes = []string{".h", ".m", ".mm"}

// Options configure a Refactorer
type Options struct {
	Root      string
	Rules     config.Rules
	Oracle    buck.Oracle
	Formatter buildfile.Formatter
	Settler   watcher.Settler
	Workers   int
	DryRun    bool
	// Out receives dry-run output; defaults to stdout
	Out io.Writer
}

// Refactorer runs the workspace level commands: cleanup, create, move and
// stats.
type Refactorer struct {
	root      string
	rules     config.Rules
	oracle    buck.Oracle
	loader    *loader.Loader
	formatter buildfile.Formatter
	settler   watcher.Settler
	renamer   *rename.Renamer
	workers   int
	dryRun    bool
	out       io.Writer
}

// New creates a refactorer. The root must be an existing directory.
func New(opts Options) (*Refactorer, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", opts.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open root folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	formatter := opts.Formatter
	if formatter == nil {
		formatter = buildfile.BuildifierFormatter{}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	workers := max(opts.Workers, 1)

	return &Refactorer{
		root:      root,
		rules:     opts.Rules,
		oracle:    opts.Oracle,
		loader:    loader.New(opts.Oracle, opts.Rules),
		formatter: formatter,
		settler:   opts.Settler,
		renamer:   rename.New(root, workers, opts.DryRun),
		workers:   workers,
		dryRun:    opts.DryRun,
		out:       out,
	}, nil
}

// CleanupReport summarizes a cleanup run
type CleanupReport struct {
	Modules      []string                 `json:"modules"`
	Expanded     []rename.Change          `json:"-"`
	Imports      []minimize.ModuleImports `json:"imports,omitempty"`
	Dependencies []minimize.ModuleDeps    `json:"dependencies,omitempty"`
	// Aborted lists phases that did not run to completion
	Aborted []string `json:"aborted,omitempty"`
}

// RemovedImports returns the number of imports removed
func (r *CleanupReport) RemovedImports() int {
	n := 0
	for i := range r.Imports {
		n += r.Imports[i].Removed()
	}
	return n
}

// RemovedDependencies returns the number of dependency edges removed
func (r *CleanupReport) RemovedDependencies() int {
	n := 0
	for _, d := range r.Dependencies {
		n += len(d.Removed)
	}
	return n
}

// Cleanup loads the modules of the project and runs the enabled phases in
// order: expand imports, reduce imports, reduce dependencies. A failed
// root build aborts only the dependency phase.
func (r *Refactorer) Cleanup(ctx context.Context, in *config.CleanupInput) (*CleanupReport, error) {
	logger := logging.New("cleanup")
	logger.DebugContext(ctx, "Cleanup", "input", in.String())

	if r.dryRun && (in.Imports.ReduceImports || in.Buck.ReduceBuckDependencies) {
		return nil, fmt.Errorf("%w: disable reduceImports and reduceBuckDependencies", ErrDryRunUnsupported)
	}

	modules, err := r.loader.LoadOrdered(ctx, in.ProjectBuildTargets, loader.Options{
		Modules: in.Modules,
		Ignore:  in.IgnoreModules,
	})
	if err != nil {
		return nil, err
	}

	report := &CleanupReport{}
	for _, m := range modules {
		report.Modules = append(report.Modules, m.Target)
	}
	logger.InfoContext(ctx, "Processing modules", "count", len(modules))

	if in.Imports.ExpandImports {
		changes, err := r.ExpandImports(ctx, modules, in.IgnoreFolders)
		if err != nil {
			return report, err
		}
		report.Expanded = changes
	}

	estimator := usage.NewEstimator(r.root, r.rules, r.workers)
	var parsed []model.ParsedFile
	if (in.Imports.ReduceImports && !in.Imports.IgnoreEstimatedImports) ||
		(in.Buck.ReduceBuckDependencies && !in.Buck.IgnoreEstimatedDependencies) {
		if parsed, err = usage.LoadParsedFiles(in.ParserResultsPath); err != nil {
			return report, err
		}
	}

	if in.Imports.ReduceImports {
		var estimate *model.UsageEstimate
		if !in.Imports.IgnoreEstimatedImports {
			if estimate, err = estimator.Estimate(ctx, modules, parsed, usage.Options{Imports: true}); err != nil {
				return report, err
			}
		}

		im := minimize.NewImportMinimizer(r.root, r.rules, r.oracle, minimize.ImportOptions{
			Roots:         in.ProjectBuildTargets,
			FileTypes:     in.Imports.FileTypes,
			IgnoreFolders: in.IgnoreFolders,
			Estimate:      estimate,
		})
		logger.InfoContext(ctx, "Reducing imports", "modules", len(modules))
		for _, m := range modules {
			result, err := im.MinimizeModule(ctx, m)
			if err != nil {
				return report, err
			}
			report.Imports = append(report.Imports, *result)
		}
	}

	if in.Buck.ReduceBuckDependencies {
		var estimate *model.UsageEstimate
		if !in.Buck.IgnoreEstimatedDependencies {
			if estimate, err = estimator.Estimate(ctx, modules, parsed, usage.Options{Dependencies: true}); err != nil {
				return report, err
			}
		}

		dm := minimize.NewDependencyMinimizer(r.root, r.rules, r.oracle, r.formatter, r.settler, minimize.DependencyOptions{
			Roots:         in.ProjectBuildTargets,
			IgnoreFolders: in.IgnoreFolders,
			Estimate:      estimate,
		})
		logger.InfoContext(ctx, "Reducing dependencies", "modules", len(modules))
		results, err := dm.Run(ctx, modules)
		report.Dependencies = results
		if errors.Is(err, minimize.ErrPhaseAborted) {
			logger.WarnContext(ctx, "Dependency reduction aborted", "error", err)
			report.Aborted = append(report.Aborted, err.Error())
		} else if err != nil {
			return report, err
		}
	}

	logger.InfoContext(ctx, "Completed cleaning modules",
		"imports", report.RemovedImports(), "dependencies", report.RemovedDependencies())
	return report, nil
}

// ExpandImports replaces "#import <M/M.h>" umbrella imports with the
// contents of the umbrella header found in the build output.
func (r *Refactorer) ExpandImports(ctx context.Context, modules []*model.Module, ignore []string) ([]rename.Change, error) {
	logger := logging.New("cleanup")
	logger.InfoContext(ctx, "Expanding imports", "modules", len(modules))

	outputDir := filepath.Join(r.root, r.rules.BuildOutputDir)
	var items []rename.Item
	for _, m := range modules {
		if m.ModuleName == "" {
			continue
		}
		lines, err := finder.UmbrellaHeaderLines(outputDir, m.ModuleName+".h")
		if err != nil {
			return nil, fmt.Errorf("failed to read umbrella header of %s: %w", m.Target, err)
		}
		if len(lines) == 0 {
			continue
		}
		items = append(items, rename.Item{
			Original:  fmt.Sprintf("#import <%s/%s.h>", m.ModuleName, m.ModuleName),
			New:       strings.TrimSpace(strings.Join(lines, "\n")),
			FileTypes: objcFileTypes,
		})
	}

	if len(items) == 0 {
		logger.InfoContext(ctx, "Nothing to expand")
		return nil, nil
	}
	logger.InfoContext(ctx, "Created rename items", "count", len(items))
	return r.renamer.Apply(ctx, rename.Input{Items: items, Excluded: ignore})
}

// trimPath strips leading and trailing characters that are not letters or
// digits ("./ios/app/" gives "ios/app").
func trimPath(p string) string {
	return strings.TrimFunc(p, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// nameFromPath turns a folder into a module style name: "ios/common/files"
// gives "ios_common_files".
func nameFromPath(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, "/", "_"))
}
