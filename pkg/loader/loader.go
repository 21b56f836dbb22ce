package loader

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ritzau/deps-minimizer/pkg/buck"
	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/cycles"
	"github.com/ritzau/deps-minimizer/pkg/graph"
	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

// Loader queries the dependency closure of the root targets and decides the
// order in which modules are minimized.
type Loader struct {
	querier buck.Querier
	rules   config.Rules
}

// New creates a loader
func New(querier buck.Querier, rules config.Rules) *Loader {
	return &Loader{querier: querier, rules: rules}
}

// Options select and order the modules returned by LoadOrdered
type Options struct {
	// Modules, when non-empty, is used as the order instead of the
	// topological one. Targets not in the closure are dropped.
	Modules []string
	// Ignore removes targets from the result
	Ignore []string
}

// Merge queries every root separately and merges the results; the first
// root reporting a target wins. A malformed query response is fatal.
func (l *Loader) Merge(ctx context.Context, roots []string) (map[string]*model.Module, error) {
	logger := logging.New("loader")

	merged := make(map[string]*model.Module)
	for _, root := range roots {
		modules, err := l.querier.QueryModules(ctx, root, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load modules for %s: %w", root, err)
		}
		for target, m := range modules {
			if _, exists := merged[target]; !exists {
				merged[target] = m
			}
		}
		logger.DebugContext(ctx, "Queried root", "root", root, "targets", len(modules))
	}
	return merged, nil
}

// Load merges the closures of roots and drops targets without files and
// vendored targets.
func (l *Loader) Load(ctx context.Context, roots []string) (map[string]*model.Module, error) {
	merged, err := l.Merge(ctx, roots)
	if err != nil {
		return nil, err
	}

	for target, m := range merged {
		if !m.HasFiles() || l.rules.IsVendored(target) {
			delete(merged, target)
		}
	}

	logging.New("loader").InfoContext(ctx, "Loaded modules", "roots", len(roots), "modules", len(merged))
	return merged, nil
}

// Order returns the targets of modules with dependencies before dependents,
// ties broken by target name. Roots are removed from the sort and appended
// last, in the order given. Cycles are logged and do not stop the run.
func (l *Loader) Order(ctx context.Context, modules map[string]*model.Module, roots []string) []string {
	logger := logging.New("loader")

	mg := graph.NewModuleGraph(modules)
	order, err := mg.Order()
	if errors.Is(err, graph.ErrCycle) {
		for _, c := range cycles.FindModuleCycles(mg) {
			logger.WarnContext(ctx, "Dependency cycle", "modules", c.String())
		}
	} else if err != nil {
		logger.ErrorContext(ctx, "Failed to order modules", "error", err)
	}

	order = slices.DeleteFunc(order, func(t string) bool {
		return slices.Contains(roots, t)
	})
	return append(order, roots...)
}

// LoadOrdered loads the closure of roots and returns the modules to process
// in processing order.
func (l *Loader) LoadOrdered(ctx context.Context, roots []string, opts Options) ([]*model.Module, error) {
	logger := logging.New("loader")

	modules, err := l.Load(ctx, roots)
	if err != nil {
		return nil, err
	}

	order := opts.Modules
	if len(order) == 0 {
		order = l.Order(ctx, modules, roots)
	}

	result := make([]*model.Module, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, target := range order {
		m, ok := modules[target]
		if !ok || seen[target] {
			if !ok && len(opts.Modules) > 0 {
				logger.WarnContext(ctx, "Requested module not in closure", "target", target)
			}
			continue
		}
		if slices.Contains(opts.Ignore, target) {
			logger.DebugContext(ctx, "Ignoring module", "target", target)
			continue
		}
		seen[target] = true
		result = append(result, m)
	}

	return result, nil
}
