package rename

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/deps-minimizer/pkg/finder"
	"github.com/ritzau/deps-minimizer/pkg/logging"
)

// Item replaces every occurrence of Original with New in files whose name
// ends with one of FileTypes (".swift", "BUCK").
type Item struct {
	Original  string
	New       string
	FileTypes []string
	// Excluded lists workspace-relative folders this item does not touch
	Excluded []string
}

// Input is a batch of renames applied in one pass over the workspace
type Input struct {
	Items []Item
	// Excluded lists workspace-relative folders no item touches
	Excluded []string
}

func (in Input) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rename(items=%d excluded=%v)", len(in.Items), in.Excluded)
	for _, it := range in.Items {
		fmt.Fprintf(&sb, "\n  %q -> %q in %v", it.Original, it.New, it.FileTypes)
	}
	return sb.String()
}

// Change is one rewritten file
type Change struct {
	Path   string // Workspace-relative
	Before []byte
	After  []byte
}

// Renamer applies text renames across a workspace with a bounded pool of
// workers. In dry-run mode changes are computed but not written.
type Renamer struct {
	root    string
	workers int
	dryRun  bool
}

// New creates a renamer for the workspace at root
func New(root string, workers int, dryRun bool) *Renamer {
	return &Renamer{root: root, workers: max(workers, 1), dryRun: dryRun}
}

// Apply runs every item over every matching file and returns the changed
// files sorted by path. Unreadable files are logged and skipped.
func (r *Renamer) Apply(ctx context.Context, in Input) ([]Change, error) {
	logger := logging.New("rename")
	if len(in.Items) == 0 {
		return nil, nil
	}
	logger.DebugContext(ctx, "Starting renames", "input", in.String())

	var suffixes []string
	for _, it := range in.Items {
		suffixes = append(suffixes, it.FileTypes...)
	}
	slices.Sort(suffixes)
	suffixes = slices.Compact(suffixes)
	if len(suffixes) == 0 {
		return nil, nil
	}

	files, err := finder.FindFiles(r.root, suffixes, in.Excluded)
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %s: %w", r.root, err)
	}
	root, err := filepath.Abs(r.root)
	if err != nil {
		return nil, err
	}

	results := make(chan Change)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var changes []Change
	done := make(chan struct{})
	go func() {
		defer close(done)
		for c := range results {
			changes = append(changes, c)
		}
	}()

	for _, path := range files {
		g.Go(func() error {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			change, err := r.renameFile(gctx, path, filepath.ToSlash(rel), in.Items)
			if err != nil || change == nil {
				return err
			}
			select {
			case results <- *change:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err = g.Wait()
	close(results)
	<-done
	if err != nil {
		return nil, err
	}

	slices.SortFunc(changes, func(a, b Change) int { return strings.Compare(a.Path, b.Path) })
	logger.InfoContext(ctx, "Renames finished", "files", len(files), "changed", len(changes), "dryRun", r.dryRun)
	return changes, nil
}

func (r *Renamer) renameFile(ctx context.Context, path, rel string, items []Item) (*Change, error) {
	logger := logging.New("rename")

	var matching []Item
	for _, it := range items {
		if it.Original == "" || len(it.FileTypes) == 0 {
			continue
		}
		if finder.HasSuffix(filepath.Base(path), it.FileTypes) && !finder.IsExcluded(rel, it.Excluded) {
			matching = append(matching, it)
		}
	}
	if len(matching) == 0 {
		return nil, nil
	}

	original, err := os.ReadFile(path)
	if err != nil {
		logger.WarnContext(ctx, "Skipping unreadable file", "path", rel, "error", err)
		return nil, nil
	}

	content := string(original)
	for _, it := range matching {
		content = strings.ReplaceAll(content, it.Original, it.New)
	}
	if content == string(original) {
		logger.Log(ctx, logging.LevelTrace, "Nothing changed", "path", rel)
		return nil, nil
	}

	logger.DebugContext(ctx, "Updating file", "path", rel)
	if !r.dryRun {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", rel, err)
		}
	}
	return &Change{Path: rel, Before: original, After: []byte(content)}, nil
}
