package refactor

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ritzau/deps-minimizer/pkg/buildfile"
	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/finder"
	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
	"github.com/ritzau/deps-minimizer/pkg/rename"
	"github.com/ritzau/deps-minimizer/pkg/usage"
)

// createSourceTypes are the files listed in srcs of a created module
var createSourceTypes = []string{".swift", ".m", ".mm"}

// CreatedModule describes one module extracted by Create
type CreatedModule struct {
	Target    string   `json:"target"`
	BuildFile string   `json:"buildFile"` // Workspace-relative
	Content   string   `json:"content"`
	Files     []string `json:"files"` // Workspace-relative, before the move
}

// CreateReport summarizes a create run
type CreateReport struct {
	Modules []CreatedModule `json:"modules"`
	Renames []rename.Change `json:"-"`
}

// Create extracts files into new modules. Frameworks and dependencies of a
// new module are derived from the imports of its files, matched against the
// libraries in the closure of the project targets. Quoted imports of moved
// headers are rewritten to module imports across the workspace.
func (r *Refactorer) Create(ctx context.Context, in *config.CreateInput) (*CreateReport, error) {
	logger := logging.New("create")
	logger.DebugContext(ctx, "Creating modules", "input", in.String())

	libraries, err := r.loader.Merge(ctx, in.ProjectBuildTargets)
	if err != nil {
		return nil, err
	}

	report := &CreateReport{}
	var items []rename.Item
	for _, spec := range in.Modules {
		created, renames, err := r.createModule(ctx, spec, libraries)
		if err != nil {
			return report, err
		}
		report.Modules = append(report.Modules, *created)
		items = append(items, renames...)
	}

	changes, err := r.renamer.Apply(ctx, rename.Input{Items: items, Excluded: in.IgnoreFolders})
	if err != nil {
		return report, err
	}
	report.Renames = changes

	for _, m := range report.Modules {
		logger.InfoContext(ctx, "Extracted module", "target", m.Target)
	}
	return report, nil
}

func (r *Refactorer) createModule(ctx context.Context, spec config.CreateModule, libraries map[string]*model.Module) (*CreatedModule, []rename.Item, error) {
	logger := logging.New("create")

	dest := trimPath(spec.Destination)
	destAbs := filepath.Join(r.root, dest)

	var files, names []string
	for _, f := range spec.Files {
		abs := filepath.Join(r.root, f)
		info, err := os.Stat(abs)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", f, err)
		}
		if !info.Mode().IsRegular() {
			return nil, nil, fmt.Errorf("%s is not a regular file", f)
		}
		files = append(files, abs)
		names = append(names, filepath.Base(f))
	}
	slices.Sort(names)

	targetName := spec.TargetName
	if targetName == "" {
		targetName = path.Base(dest)
	}
	moduleName := spec.ModuleName
	if moduleName == "" {
		moduleName = nameFromPath(dest)
		if !strings.HasSuffix(moduleName, targetName) {
			moduleName += "_" + targetName
		}
	}

	var items []rename.Item
	var headers, sources []string
	for _, name := range names {
		switch {
		case r.rules.IsHeader(name):
			headers = append(headers, name)
			items = append(items, rename.Item{
				Original:  fmt.Sprintf("#import \"%s\"", name),
				New:       fmt.Sprintf("#import <%s/%s>", moduleName, name),
				FileTypes: objcFileTypes,
				Excluded:  []string{dest},
			})
		case finder.HasSuffix(name, createSourceTypes):
			sources = append(sources, name)
		default:
			logger.DebugContext(ctx, "Ignoring imports for file", "file", name)
		}
	}

	imports := usage.ImportedModules(files, r.rules.ModuleImportPrefixes)
	template := buildfile.Template{
		LoadFormat:      r.rules.RuleMacrosLoad,
		LibraryRule:     r.rules.LibraryRule,
		TestLibraryRule: r.rules.TestLibraryRule,
	}
	content := template.Render(buildfile.ModuleSpec{
		Name:       targetName,
		ModuleName: moduleName,
		Test:       spec.TestTarget,
		Headers:    headers,
		Sources:    sources,
		Frameworks: r.frameworks(libraries, imports),
		Deps:       dependencies(libraries, imports),
		Visibility: model.SortedUnique(spec.Visibility),
	})

	created := &CreatedModule{
		Target:    model.FormatTarget(dest, targetName),
		BuildFile: path.Join(dest, r.rules.BuildFileName),
		Content:   content,
		Files:     spec.Files,
	}

	if r.dryRun {
		fmt.Fprintf(r.out, "Build file %s\n%s", created.BuildFile, content)
		for _, f := range spec.Files {
			fmt.Fprintf(r.out, "mv %s to %s\n", f, dest)
		}
		return created, items, nil
	}

	if err := os.MkdirAll(destAbs, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	formatted, err := r.formatter.Format(created.BuildFile, []byte(content))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to format %s: %w", created.BuildFile, err)
	}
	if err := os.WriteFile(filepath.Join(r.root, created.BuildFile), formatted, 0o644); err != nil {
		return nil, nil, fmt.Errorf("failed to write %s: %w", created.BuildFile, err)
	}
	created.Content = string(formatted)
	logger.InfoContext(ctx, "Created build file", "path", created.BuildFile)

	for i, abs := range files {
		if err := os.Rename(abs, filepath.Join(destAbs, filepath.Base(abs))); err != nil {
			return nil, nil, fmt.Errorf("failed to move %s: %w", spec.Files[i], err)
		}
	}
	logger.DebugContext(ctx, "Moved files", "count", len(files), "destination", dest)

	return created, items, nil
}

// frameworks returns the SDK frameworks of any library that the imports
// name, sorted.
func (r *Refactorer) frameworks(libraries map[string]*model.Module, imports []string) []string {
	var out []string
	for _, lib := range libraries {
		for _, f := range lib.Frameworks {
			if name := r.rules.CleanFramework(f); slices.Contains(imports, name) {
				out = append(out, name)
			}
		}
	}
	return model.SortedUnique(out)
}

// dependencies returns the targets of libraries whose module name the
// imports name, sorted.
func dependencies(libraries map[string]*model.Module, imports []string) []string {
	var out []string
	for target, lib := range libraries {
		if lib.ModuleName != "" && slices.Contains(imports, lib.ModuleName) {
			out = append(out, target)
		}
	}
	return model.SortedUnique(out)
}
