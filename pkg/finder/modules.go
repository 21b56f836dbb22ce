package finder

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

// ModuleFiles returns the absolute paths of the module's files that exist
// on disk, sorted. Missing files are skipped.
func ModuleFiles(root string, m *model.Module) ([]string, error) {
	folder, err := m.Folder()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, rel := range m.Files() {
		path := filepath.Join(root, folder, rel)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	slices.Sort(files)
	return files, nil
}

type moduleFiles struct {
	target string
	files  []string
}

// ResolveAll resolves the files of every module concurrently. Modules with
// an invalid target are logged and left out.
func ResolveAll(ctx context.Context, root string, modules []*model.Module, workers int) (map[string][]string, error) {
	logger := logging.New("finder")

	results := make(chan moduleFiles)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	// Single collector owns the map
	resolved := make(map[string][]string, len(modules))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			resolved[r.target] = r.files
		}
	}()

	for _, m := range modules {
		g.Go(func() error {
			files, err := ModuleFiles(root, m)
			if err != nil {
				logger.WarnContext(gctx, "Skipping module", "target", m.Target, "error", err)
				return nil
			}
			select {
			case results <- moduleFiles{target: m.Target, files: files}:
			case <-gctx.Done():
				return gctx.Err()
			}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	<-done
	if err != nil {
		return nil, err
	}
	return resolved, nil
}
