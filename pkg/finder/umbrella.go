package finder

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// UmbrellaHeaderLines finds every file named header (case-insensitive) under
// the build output directory and returns their unique non-empty lines,
// sorted. A missing output directory yields no lines.
func UmbrellaHeaderLines(outputDir, header string) ([]string, error) {
	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		return nil, nil
	}

	seen := make(map[string]bool)
	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(d.Name(), header) {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if line := strings.TrimRight(scanner.Text(), "\r"); strings.TrimSpace(line) != "" {
				seen[line] = true
			}
		}
		return scanner.Err()
	})
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(seen))
	for l := range seen {
		lines = append(lines, l)
	}
	slices.Sort(lines)
	return lines, nil
}
