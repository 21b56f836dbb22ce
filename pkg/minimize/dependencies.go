package minimize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ritzau/deps-minimizer/pkg/buck"
	"github.com/ritzau/deps-minimizer/pkg/buildfile"
	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/finder"
	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
	"github.com/ritzau/deps-minimizer/pkg/watcher"
)

// ErrPhaseAborted is returned when the root targets do not build before
// dependency reduction starts. Results of earlier phases stand.
var ErrPhaseAborted = errors.New("dependency reduction aborted")

// DependencyOptions configure a DependencyMinimizer
type DependencyOptions struct {
	// Roots are built, uncached, to verify every removal
	Roots         []string
	IgnoreFolders []string
	Estimate      *model.UsageEstimate
}

// DependencyMinimizer removes dependency edges from build files one at a
// time, keeping a removal only if all roots still build.
type DependencyMinimizer struct {
	root      string
	rules     config.Rules
	builder   buck.Builder
	parser    *buildfile.Parser
	formatter buildfile.Formatter
	settler   watcher.Settler
	opts      DependencyOptions
}

// NewDependencyMinimizer creates a dependency minimizer for the workspace
// at root. Every build file write is formatted and then settled.
func NewDependencyMinimizer(root string, rules config.Rules, builder buck.Builder,
	formatter buildfile.Formatter, settler watcher.Settler, opts DependencyOptions) *DependencyMinimizer {
	return &DependencyMinimizer{
		root:      root,
		rules:     rules,
		builder:   builder,
		parser:    buildfile.NewParser(rules.RuleNames),
		formatter: formatter,
		settler:   settler,
		opts:      opts,
	}
}

// Run reduces the dependencies of every module in order. Only dependencies
// on modules in the list are removal candidates.
func (dm *DependencyMinimizer) Run(ctx context.Context, modules []*model.Module) ([]ModuleDeps, error) {
	logger := logging.New("deps")

	if !dm.builder.Build(ctx, dm.opts.Roots, false) {
		return nil, fmt.Errorf("%w: root targets do not build: %v", ErrPhaseAborted, dm.opts.Roots)
	}

	valid := make(map[string]bool, len(modules))
	for _, m := range modules {
		valid[m.Target] = true
	}

	var results []ModuleDeps
	for _, m := range modules {
		result, err := dm.minimizeModule(ctx, m, valid)
		if err != nil {
			return results, err
		}
		if result != nil {
			results = append(results, *result)
		}
	}

	logger.InfoContext(ctx, "Reduced dependencies", "modules", len(modules), "changed", len(results))
	return results, nil
}

func (dm *DependencyMinimizer) minimizeModule(ctx context.Context, m *model.Module, valid map[string]bool) (*ModuleDeps, error) {
	logger := logging.New("deps").With("target", m.Target)

	folder, err := m.Folder()
	if err != nil {
		logger.WarnContext(ctx, "Skipping module", "error", err)
		return nil, nil
	}
	rel := filepath.ToSlash(filepath.Join(folder, dm.rules.BuildFileName))
	if finder.IsExcluded(rel, dm.opts.IgnoreFolders) {
		logger.DebugContext(ctx, "Build file in ignored folder")
		return nil, nil
	}
	path := filepath.Join(dm.root, rel)

	original, err := os.ReadFile(path)
	if err != nil {
		logger.WarnContext(ctx, "Skipping unreadable build file", "path", rel, "error", err)
		return nil, nil
	}
	if dm.settler != nil {
		if err := dm.settler.Watch(path); err != nil {
			logger.WarnContext(ctx, "Cannot watch build file", "error", err)
		}
	}

	verify := func(ctx context.Context) bool {
		return dm.builder.Build(ctx, dm.opts.Roots, true)
	}
	codegen := model.NormalizeDependency(dm.rules.CodegenDependency, folder)

	var removed []RemovedDep
	var current []byte

	// Exported deps first, they reach every dependent
	for _, attr := range []string{buildfile.AttrExportedDeps, buildfile.AttrDeps} {
		for i := 0; ; {
			// The file is re-read for every trial so each one starts from
			// what is on disk
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", rel, err)
			}
			bf := dm.parser.Parse(rel, content)
			block, ok := bf.Block(m.Target)
			if !ok {
				logger.WarnContext(ctx, "No block for target in build file", "path", rel)
				return dm.finish(m.Target, rel, original, content, removed)
			}

			deps := block.ListAttr(attr)
			if i >= len(deps) {
				current = content
				break
			}
			dep := model.NormalizeDependency(deps[i], folder)
			if dep == codegen || !valid[dep] || dm.opts.Estimate.RequiredDependency(m.Target, dep) {
				i++
				continue
			}

			block.SetListAttr(attr, slices.Delete(slices.Clone(deps), i, i+1))
			candidate, err := dm.formatter.Format(rel, bf.Render())
			if err != nil {
				logger.WarnContext(ctx, "Cannot format build file, skipping module", "error", err)
				return dm.finish(m.Target, rel, original, content, removed)
			}

			trial := Trial{Path: path, Previous: content, Candidate: candidate, AfterWrite: dm.settle}
			ok, err = trial.Run(ctx, verify)
			if err != nil {
				return nil, err
			}
			if !ok {
				logger.Log(ctx, logging.LevelTrace, "Dependency required", "attr", attr, "dep", dep)
				i++
				continue
			}

			logger.DebugContext(ctx, "Removed dependency", "attr", attr, "dep", dep)
			removed = append(removed, RemovedDep{Attr: attr, Dep: dep})
		}
	}

	return dm.finish(m.Target, rel, original, current, removed)
}

// finish restores the original bytes when nothing was removed
func (dm *DependencyMinimizer) finish(target, rel string, original, current []byte, removed []RemovedDep) (*ModuleDeps, error) {
	if len(removed) == 0 {
		return nil, restoreIfChanged(filepath.Join(dm.root, rel), original)
	}
	return &ModuleDeps{Target: target, BuildFile: rel, Removed: removed, Before: original, After: current}, nil
}

func (dm *DependencyMinimizer) settle(ctx context.Context, path string) error {
	if dm.settler == nil {
		return nil
	}
	return dm.settler.Settle(ctx, path)
}
