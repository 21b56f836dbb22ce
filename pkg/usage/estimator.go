package usage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/finder"
	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

// Estimator derives never-remove allow-lists from parsed type usage.
// Its output is advisory: it only saves oracle calls that would fail.
type Estimator struct {
	root    string
	rules   config.Rules
	workers int
}

// NewEstimator creates an estimator for the workspace at root
func NewEstimator(root string, rules config.Rules, workers int) *Estimator {
	return &Estimator{root: root, rules: rules, workers: max(workers, 1)}
}

// Options select which halves of the estimate are computed
type Options struct {
	Imports      bool
	Dependencies bool
}

// index maps files to their modules and defined types to their files
type index struct {
	fileModule  map[string]*model.Module // workspace-relative path -> owner
	moduleFiles map[string][]string      // target -> absolute paths
	typeFile    map[string]string        // type name -> defining workspace-relative path
}

// Estimate computes the requested allow-lists. Halves not requested are
// left empty, which makes every candidate removable.
func (e *Estimator) Estimate(ctx context.Context, modules []*model.Module, parsed []model.ParsedFile, opts Options) (*model.UsageEstimate, error) {
	logger := logging.New("usage")
	estimate := model.NewUsageEstimate()
	if !opts.Imports && !opts.Dependencies {
		return estimate, nil
	}

	idx, err := e.buildIndex(ctx, modules, parsed)
	if err != nil {
		return nil, err
	}

	if opts.Imports {
		estimate.Imports = e.importAllowList(idx, parsed)
		logger.InfoContext(ctx, "Estimated imports", "files", len(estimate.Imports))
	}
	if opts.Dependencies {
		deps, err := e.dependencyAllowList(ctx, idx, modules, parsed)
		if err != nil {
			return nil, err
		}
		estimate.Dependencies = deps
		logger.InfoContext(ctx, "Estimated dependencies", "modules", len(estimate.Dependencies))
	}
	return estimate, nil
}

func (e *Estimator) buildIndex(ctx context.Context, modules []*model.Module, parsed []model.ParsedFile) (*index, error) {
	logger := logging.New("usage")

	resolved, err := finder.ResolveAll(ctx, e.root, modules, e.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve module files: %w", err)
	}

	idx := &index{
		fileModule:  make(map[string]*model.Module),
		moduleFiles: resolved,
		typeFile:    make(map[string]string),
	}

	// Modules are visited in processing order; a file claimed twice stays
	// with the first module.
	for _, m := range modules {
		for _, abs := range resolved[m.Target] {
			rel := e.relative(abs)
			if _, taken := idx.fileModule[rel]; !taken {
				idx.fileModule[rel] = m
			}
		}
	}

	for _, pf := range parsed {
		if _, ok := idx.fileModule[pf.FilePath]; !ok {
			logger.DebugContext(ctx, "No module for parsed file", "file", pf.FilePath)
			continue
		}
		for _, typeName := range pf.DefinedTypeNames {
			if first, dup := idx.typeFile[typeName]; dup {
				logger.DebugContext(ctx, "Duplicate type definition, keeping first",
					"type", typeName, "first", first, "duplicate", pf.FilePath)
				continue
			}
			idx.typeFile[typeName] = pf.FilePath
		}
	}

	return idx, nil
}

func (e *Estimator) relative(abs string) string {
	rel, err := filepath.Rel(e.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Spellings returns the import lines that bring a file into scope. With a
// public module name these are the quoted include, the module include, the
// dotted import and the bare module import; without one only the quoted
// include.
func Spellings(fileName, publicName string) []string {
	if publicName == "" {
		return []string{fmt.Sprintf("#import \"%s\"", fileName)}
	}
	return []string{
		fmt.Sprintf("#import \"%s\"", fileName),
		fmt.Sprintf("#import <%s/%s>", publicName, fileName),
		fmt.Sprintf("import %s.%s", publicName, fileName),
		fmt.Sprintf("import %s", publicName),
	}
}

func (e *Estimator) importAllowList(idx *index, parsed []model.ParsedFile) map[string][]string {
	spellings := make(map[string][]string, len(idx.typeFile))
	for typeName, file := range idx.typeFile {
		owner := idx.fileModule[file]
		spellings[typeName] = Spellings(path.Base(file), owner.PublicName())
	}

	allow := make(map[string][]string, len(parsed))
	for _, pf := range parsed {
		var lines []string
		for _, typeName := range pf.RequiredTypeNames {
			lines = append(lines, spellings[typeName]...)
		}
		allow[pf.FilePath] = model.SortedUnique(lines)
	}
	return allow
}

type moduleDeps struct {
	target string
	deps   []string
}

func (e *Estimator) dependencyAllowList(ctx context.Context, idx *index, modules []*model.Module, parsed []model.ParsedFile) (map[string][]string, error) {
	byPublicName := make(map[string]string)
	for _, m := range modules {
		if name := m.PublicName(); name != "" {
			if _, taken := byPublicName[name]; !taken {
				byPublicName[name] = m.Target
			}
		}
	}

	// Type based: required types resolved to the module defining them
	typeDeps := make(map[string][]string)
	for _, pf := range parsed {
		owner, ok := idx.fileModule[pf.FilePath]
		if !ok {
			continue
		}
		for _, typeName := range pf.RequiredTypeNames {
			file, ok := idx.typeFile[typeName]
			if !ok {
				continue
			}
			if dep := idx.fileModule[file]; dep.Target != owner.Target {
				typeDeps[owner.Target] = append(typeDeps[owner.Target], dep.Target)
			}
		}
	}

	// Import based: module names in import lines, scanned concurrently
	results := make(chan moduleDeps)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	allow := make(map[string][]string, len(modules))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			allow[r.target] = r.deps
		}
	}()

	for _, m := range modules {
		g.Go(func() error {
			deps := slices.Clone(typeDeps[m.Target])
			for _, name := range ImportedModules(idx.moduleFiles[m.Target], e.rules.ModuleImportPrefixes) {
				if target, ok := byPublicName[name]; ok && target != m.Target {
					deps = append(deps, target)
				}
			}
			select {
			case results <- moduleDeps{target: m.Target, deps: model.SortedUnique(deps)}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	close(results)
	<-done
	if err != nil {
		return nil, err
	}
	return allow, nil
}
