package refactor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/rename"
)

// MoveReport summarizes a move run
type MoveReport struct {
	Moved   []config.MovePath `json:"moved"`
	Renames []rename.Change   `json:"-"`
}

// Move moves the contents of module folders and rewrites references to the
// old folder: module style names in sources and build files, raw paths in
// build files and build macros.
func (r *Refactorer) Move(ctx context.Context, in *config.MoveInput) (*MoveReport, error) {
	logger := logging.New("move")
	logger.DebugContext(ctx, "Moving modules", "input", in.String())

	report := &MoveReport{}
	var items []rename.Item
	for _, p := range in.Paths {
		src := trimPath(p.Source)
		dst := trimPath(p.Destination)

		if err := r.moveContents(src, dst); err != nil {
			return report, err
		}
		report.Moved = append(report.Moved, config.MovePath{Source: src, Destination: dst})

		items = append(items,
			rename.Item{
				Original:  nameFromPath(src),
				New:       nameFromPath(dst),
				FileTypes: []string{".h", ".m", ".mm", ".swift", r.rules.BuildFileName},
			},
			rename.Item{
				Original:  src,
				New:       dst,
				FileTypes: []string{".bzl", r.rules.BuildFileName, ".bmbf.yaml"},
			},
		)
		logger.InfoContext(ctx, "Moved module", "source", src, "destination", dst)
	}

	changes, err := r.renamer.Apply(ctx, rename.Input{Items: items, Excluded: in.IgnoreFolders})
	if err != nil {
		return report, err
	}
	report.Renames = changes
	return report, nil
}

// moveContents moves every entry of src, hidden ones included, into dst
func (r *Refactorer) moveContents(src, dst string) error {
	srcAbs := filepath.Join(r.root, src)
	dstAbs := filepath.Join(r.root, dst)

	entries, err := os.ReadDir(srcAbs)
	if err != nil {
		return fmt.Errorf("failed to open source folder %s: %w", src, err)
	}
	if r.dryRun {
		fmt.Fprintf(r.out, "mv %s to %s\n", src, dst)
		return nil
	}

	if err := os.MkdirAll(dstAbs, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	for _, e := range entries {
		if err := os.Rename(filepath.Join(srcAbs, e.Name()), filepath.Join(dstAbs, e.Name())); err != nil {
			return fmt.Errorf("failed to move %s: %w", e.Name(), err)
		}
	}
	return nil
}
