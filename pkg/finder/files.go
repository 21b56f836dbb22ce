package finder

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// skippedDirs are never descended into
var skippedDirs = map[string]bool{
	".git":     true,
	"buck-out": true,
}

// FindFiles walks root and returns the absolute paths of regular files whose
// name ends with one of suffixes (all files if suffixes is empty). Symlinks,
// build output and VCS directories are skipped, as are paths under any of
// the excluded workspace-relative folders. Results are sorted.
func FindFiles(root string, suffixes []string, excluded []string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			if path != root && (skippedDirs[d.Name()] || IsExcluded(rel, excluded)) {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks and other non-regular files
		if !d.Type().IsRegular() {
			return nil
		}
		if IsExcluded(rel, excluded) || !HasSuffix(d.Name(), suffixes) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	slices.Sort(files)
	return files, err
}

// IsExcluded reports whether the workspace-relative path lies in (or is)
// one of folders.
func IsExcluded(rel string, folders []string) bool {
	rel = filepath.ToSlash(filepath.Clean(rel))
	for _, f := range folders {
		f = strings.Trim(filepath.ToSlash(filepath.Clean(f)), "/")
		if f == "" || f == "." {
			continue
		}
		if rel == f || strings.HasPrefix(rel, f+"/") {
			return true
		}
	}
	return false
}

// HasSuffix reports whether name ends with any of suffixes, or suffixes is empty.
func HasSuffix(name string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
