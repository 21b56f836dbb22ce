package usage

import (
	"bufio"
	"os"
	"slices"
	"strings"
)

// ImportedModules scans files for module imports ("#import <M/...>",
// "import M", "@testable import M.Sub", ...) and returns the distinct module
// names, sorted. Unreadable files are skipped.
func ImportedModules(files []string, prefixes []string) []string {
	seen := make(map[string]bool)
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if name := importedModule(scanner.Text(), prefixes); name != "" {
				seen[name] = true
			}
		}
		f.Close()
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// importedModule returns the module named by an import line, or "".
func importedModule(line string, prefixes []string) string {
	line = strings.TrimSpace(line)
	longest := ""
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) && len(p) > len(longest) {
			longest = p
		}
	}
	if longest == "" {
		return ""
	}

	line = strings.TrimPrefix(line, longest)
	for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == '.' || r == '/' }) {
		if part = strings.TrimSpace(part); part != "" {
			return part
		}
	}
	return ""
}
