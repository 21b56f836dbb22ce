package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff between before and after for the
// workspace-relative path. Identical contents give an empty string.
func Diff(path string, before, after []byte) (string, error) {
	if string(before) == string(after) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}

// PrintDiff writes the diff of one file with added and removed lines
// colored.
func PrintDiff(w io.Writer, path string, before, after []byte) error {
	diff, err := Diff(path, before, after)
	if err != nil {
		return fmt.Errorf("failed to diff %s: %w", path, err)
	}

	if diff == "" {
		return nil
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++"):
			color.New(color.Bold).Fprint(w, line)
		case line[0] == '@':
			cyan.Fprint(w, line)
		case line[0] == '-':
			red.Fprint(w, line)
		case line[0] == '+':
			green.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
	return nil
}
