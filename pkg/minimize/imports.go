package minimize

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ritzau/deps-minimizer/pkg/buck"
	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/finder"
	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

// ImportOptions configure an ImportMinimizer
type ImportOptions struct {
	// Roots are built instead of the module when a header is edited
	Roots []string
	// FileTypes lists eligible extensions without the dot ("h", "swift")
	FileTypes     []string
	IgnoreFolders []string
	Estimate      *model.UsageEstimate
}

// ImportMinimizer removes import lines one at a time, keeping a removal only
// if the build still succeeds.
type ImportMinimizer struct {
	root    string
	rules   config.Rules
	builder buck.Builder
	opts    ImportOptions
}

// NewImportMinimizer creates an import minimizer for the workspace at root.
func NewImportMinimizer(root string, rules config.Rules, builder buck.Builder, opts ImportOptions) *ImportMinimizer {
	return &ImportMinimizer{root: root, rules: rules, builder: builder, opts: opts}
}

// MinimizeModule reduces the imports of every eligible file of m. A module
// that does not build before any edit is skipped. Only write failures are
// returned as errors.
func (im *ImportMinimizer) MinimizeModule(ctx context.Context, m *model.Module) (*ModuleImports, error) {
	logger := logging.New("imports").With("target", m.Target)
	result := &ModuleImports{Target: m.Target}

	files, err := finder.ModuleFiles(im.root, m)
	if err != nil {
		logger.WarnContext(ctx, "Skipping module", "error", err)
		result.Skipped = true
		return result, nil
	}
	files = im.eligible(files)
	if len(files) == 0 {
		logger.DebugContext(ctx, "No eligible files")
		return result, nil
	}

	if !im.builder.Build(ctx, []string{m.Target}, false) {
		logger.InfoContext(ctx, "Module does not build, skipping import reduction")
		result.Skipped = true
		return result, nil
	}

	for _, file := range im.sortFiles(files) {
		change, err := im.minimizeFile(ctx, m, file)
		if err != nil {
			return result, err
		}
		if change != nil {
			result.Files = append(result.Files, *change)
		}
	}

	logger.InfoContext(ctx, "Reduced imports", "files", len(files), "removed", result.Removed())
	return result, nil
}

func (im *ImportMinimizer) eligible(files []string) []string {
	var out []string
	for _, f := range files {
		ext := strings.TrimPrefix(filepath.Ext(f), ".")
		if !slices.Contains(im.opts.FileTypes, ext) {
			continue
		}
		if finder.IsExcluded(im.relative(f), im.opts.IgnoreFolders) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// sortFiles orders headers first, then Swift, then everything else. A
// header edit is verified against all roots, so it goes first.
func (im *ImportMinimizer) sortFiles(files []string) []string {
	rank := func(f string) int {
		switch {
		case im.rules.IsHeader(f):
			return 1
		case filepath.Ext(f) == im.rules.SwiftExtension:
			return 2
		default:
			return 3
		}
	}
	sorted := slices.Clone(files)
	slices.SortStableFunc(sorted, func(a, b string) int {
		return cmp.Or(cmp.Compare(rank(a), rank(b)), strings.Compare(a, b))
	})
	return sorted
}

func (im *ImportMinimizer) minimizeFile(ctx context.Context, m *model.Module, path string) (*FileImports, error) {
	rel := im.relative(path)
	logger := logging.New("imports").With("file", rel)

	original, err := os.ReadFile(path)
	if err != nil {
		logger.WarnContext(ctx, "Skipping unreadable file", "error", err)
		return nil, nil
	}

	targets := []string{m.Target}
	if im.rules.IsHeader(path) {
		targets = im.opts.Roots
	}
	verify := func(ctx context.Context) bool {
		return im.builder.Build(ctx, targets, false)
	}

	base := categoryBase(filepath.Base(path), im.rules.CategorySeparators)
	lines := strings.Split(string(original), "\n")
	current := original
	var removed []string

	// Walk by index: a kept removal shifts the next line into slot i
	for i := 0; i < len(lines); {
		line := lines[i]
		if !im.isCandidate(rel, base, line) {
			i++
			continue
		}

		next := slices.Delete(slices.Clone(lines), i, i+1)
		candidate := []byte(strings.Join(next, "\n"))
		trial := Trial{Path: path, Previous: current, Candidate: candidate}

		ok, err := trial.Run(ctx, verify)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Log(ctx, logging.LevelTrace, "Import required", "line", strings.TrimSpace(line))
			i++
			continue
		}

		logger.DebugContext(ctx, "Removed import", "line", strings.TrimSpace(line))
		lines = next
		current = candidate
		removed = append(removed, strings.TrimSpace(line))
	}

	if len(removed) == 0 {
		return nil, restoreIfChanged(path, original)
	}
	return &FileImports{Path: rel, Removed: removed, Before: original, After: current}, nil
}

// isCandidate reports whether line is an import this file may lose.
func (im *ImportMinimizer) isCandidate(rel, base, line string) bool {
	trimmed := strings.TrimSpace(line)
	if !isImport(trimmed, im.rules.ImportPrefixes) {
		return false
	}
	if im.rules.NeverRemove(trimmed) {
		return false
	}
	if isSelfImport(trimmed, base, im.rules.CategorySeparators) {
		return false
	}
	return !im.opts.Estimate.RequiredImport(rel, trimmed)
}

func (im *ImportMinimizer) relative(path string) string {
	rel, err := filepath.Rel(im.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// isImport reports whether line starts with an import prefix followed by a
// space, '<' or '"'.
func isImport(line string, prefixes []string) bool {
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(line, p)
		if ok && rest != "" && strings.ContainsRune(" <\"", rune(rest[0])) {
			return true
		}
	}
	return false
}

// categoryBase returns the file name without extension, cut at the first
// category separator: "View+Layout.m" gives "View".
func categoryBase(name, separators string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.IndexAny(base, separators); i > 0 {
		base = base[:i]
	}
	return base
}

// isSelfImport reports whether line imports the file's own header or one
// of its categories.
func isSelfImport(line, base, separators string) bool {
	for _, sep := range "." + separators {
		if strings.HasPrefix(line, fmt.Sprintf("#import \"%s%c", base, sep)) {
			return true
		}
	}
	return strings.HasSuffix(line, "/"+base+".h>")
}
