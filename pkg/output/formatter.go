package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ritzau/deps-minimizer/pkg/refactor"
)

// PrintCleanupReport prints a summary of a cleanup run. With diffs set the
// edited files are printed as unified diffs.
func PrintCleanupReport(w io.Writer, report *refactor.CleanupReport, diffs bool) error {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Dependency Minimizer - Cleanup Report")
	bold.Fprintln(w, "=====================================")
	fmt.Fprintf(w, "Modules: %d\n", len(report.Modules))
	if len(report.Expanded) > 0 {
		fmt.Fprintf(w, "Expanded umbrella imports in %d file(s)\n", len(report.Expanded))
	}
	if diffs {
		for _, c := range report.Expanded {
			if err := PrintDiff(w, c.Path, c.Before, c.After); err != nil {
				return err
			}
		}
	}
	fmt.Fprintln(w)

	var skipped []string
	for _, m := range report.Imports {
		if m.Skipped {
			skipped = append(skipped, m.Target)
			continue
		}
		for _, f := range m.Files {
			yellow.Fprintf(w, "  %s\n", f.Path)
			cyan.Fprintf(w, "    Module: %s\n", m.Target)
			for _, line := range f.Removed {
				red.Fprintf(w, "    - %s\n", line)
			}
			if diffs {
				if err := PrintDiff(w, f.Path, f.Before, f.After); err != nil {
					return err
				}
			}
		}
	}

	for _, d := range report.Dependencies {
		if len(d.Removed) == 0 {
			continue
		}
		yellow.Fprintf(w, "  %s\n", d.BuildFile)
		cyan.Fprintf(w, "    Module: %s\n", d.Target)
		for _, r := range d.Removed {
			red.Fprintf(w, "    - %s %s\n", r.Attr, r.Dep)
		}
		if diffs {
			if err := PrintDiff(w, d.BuildFile, d.Before, d.After); err != nil {
				return err
			}
		}
	}

	if len(skipped) > 0 {
		fmt.Fprintln(w)
		yellow.Fprintln(w, "SKIPPED MODULES (did not build before editing):")
		for _, target := range skipped {
			fmt.Fprintf(w, "  %s\n", target)
		}
	}
	for _, reason := range report.Aborted {
		red.Fprintf(w, "Aborted: %s\n", reason)
	}

	fmt.Fprintln(w)
	summary := green
	if len(report.Aborted) > 0 {
		summary = red
	}
	summary.Fprintf(w, "Summary: removed %d import(s) and %d dependency edge(s)\n",
		report.RemovedImports(), report.RemovedDependencies())
	return nil
}

// PrintCreateReport lists the created modules and the files rewritten to
// use their new names.
func PrintCreateReport(w io.Writer, report *refactor.CreateReport) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	for _, m := range report.Modules {
		green.Fprintf(w, "Created %s\n", m.Target)
		fmt.Fprintf(w, "  Build file: %s\n", m.BuildFile)
		fmt.Fprintf(w, "  Files: %d\n", len(m.Files))
	}
	if len(report.Renames) > 0 {
		bold.Fprintf(w, "Updated imports in %d file(s)\n", len(report.Renames))
		for _, c := range report.Renames {
			fmt.Fprintf(w, "  %s\n", c.Path)
		}
	}
}

// PrintMoveReport lists the moved folders and the files rewritten to use
// the new paths.
func PrintMoveReport(w io.Writer, report *refactor.MoveReport) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)

	for _, p := range report.Moved {
		green.Fprintf(w, "Moved %s to %s\n", p.Source, p.Destination)
	}
	if len(report.Renames) > 0 {
		bold.Fprintf(w, "Updated references in %d file(s)\n", len(report.Renames))
		for _, c := range report.Renames {
			fmt.Fprintf(w, "  %s\n", c.Path)
		}
	}
}

// PrintStatsReport prints module and line counts per project target. Shared
// and unique figures are printed when targets are compared.
func PrintStatsReport(w io.Writer, report *refactor.StatsReport) {
	bold := color.New(color.Bold)

	for _, t := range report.Targets {
		fmt.Fprintln(w)
		bold.Fprintln(w, t.Target)
		fmt.Fprintf(w, "Total modules %d\n", t.Modules)
		fmt.Fprintf(w, "Total lines of code %d\n", t.LinesOfCode)
		if t.Shared == nil || t.Unique == nil {
			continue
		}
		fmt.Fprintf(w, "Shared modules %d\n", t.Shared.Modules)
		fmt.Fprintf(w, "Shared modules lines of code %d (%d%%)\n", t.Shared.LinesOfCode, t.Shared.Percent)
		fmt.Fprintf(w, "Unique modules %d\n", t.Unique.Modules)
		fmt.Fprintf(w, "Unique modules lines of code %d (%d%%)\n", t.Unique.LinesOfCode, t.Unique.Percent)
	}
}
