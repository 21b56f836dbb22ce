package refactor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/finder"
	"github.com/ritzau/deps-minimizer/pkg/logging"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

// hugeFile is the line count above which a file is reported
const hugeFile = 5000

// Share is the part of a project's modules also used (or not) by the other
// projects.
type Share struct {
	Modules     int `json:"modules"`
	LinesOfCode int `json:"linesOfCode"`
	Percent     int `json:"percent"`
}

// TargetStats are the module statistics of one project target
type TargetStats struct {
	Target      string `json:"target"`
	Modules     int    `json:"modules"`
	LinesOfCode int    `json:"linesOfCode"`
	// Shared and Unique are set when more than one target is compared
	Shared *Share `json:"shared,omitempty"`
	Unique *Share `json:"unique,omitempty"`
}

// StatsReport holds per target statistics in input order
type StatsReport struct {
	Targets []TargetStats `json:"targets"`
}

type moduleLOC struct {
	target string
	lines  int
}

// Stats counts the modules in the closure of every project target and
// their non-blank lines of code. With several targets the modules shared
// with the other targets are reported separately from the unique ones.
func (r *Refactorer) Stats(ctx context.Context, in *config.StatsInput) (*StatsReport, error) {
	logger := logging.New("stats")
	logger.DebugContext(ctx, "Module stats", "input", in.String())

	closures := make(map[string]map[string]bool, len(in.ProjectBuildTargets))
	modules := make(map[string]*model.Module)
	for _, project := range in.ProjectBuildTargets {
		libraries, err := r.oracle.QueryModules(ctx, project, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load modules for %s: %w", project, err)
		}
		closure := make(map[string]bool)
		for target, lib := range libraries {
			if len(in.Modules) > 0 && !slices.Contains(in.Modules, target) {
				continue
			}
			closure[target] = true
			if _, ok := modules[target]; !ok {
				modules[target] = lib
			}
		}
		closures[project] = closure
	}

	loc, err := r.linesOfCode(ctx, modules)
	if err != nil {
		return nil, err
	}

	report := &StatsReport{}
	for _, project := range in.ProjectBuildTargets {
		closure := closures[project]
		stats := TargetStats{Target: project, Modules: len(closure)}
		for target := range closure {
			stats.LinesOfCode += loc[target]
		}

		if len(in.ProjectBuildTargets) > 1 {
			others := make(map[string]bool)
			for other, c := range closures {
				if other == project {
					continue
				}
				for target := range c {
					others[target] = true
				}
			}

			shared, unique := &Share{}, &Share{}
			for target := range closure {
				if others[target] {
					shared.Modules++
					shared.LinesOfCode += loc[target]
				} else {
					unique.Modules++
					unique.LinesOfCode += loc[target]
				}
			}
			if stats.LinesOfCode > 0 {
				shared.Percent = 100 * shared.LinesOfCode / stats.LinesOfCode
			}
			unique.Percent = 100 - shared.Percent
			stats.Shared, stats.Unique = shared, unique
		}
		report.Targets = append(report.Targets, stats)
	}
	return report, nil
}

// linesOfCode counts the lines of every module concurrently
func (r *Refactorer) linesOfCode(ctx context.Context, modules map[string]*model.Module) (map[string]int, error) {
	results := make(chan moduleLOC)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	loc := make(map[string]int, len(modules))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			loc[res.target] = res.lines
		}
	}()

	for _, m := range modules {
		g.Go(func() error {
			select {
			case results <- moduleLOC{target: m.Target, lines: r.moduleLinesOfCode(gctx, m)}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	close(results)
	<-done
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func (r *Refactorer) moduleLinesOfCode(ctx context.Context, m *model.Module) int {
	logger := logging.New("stats")

	files, err := finder.ModuleFiles(r.root, m)
	if err != nil {
		logger.DebugContext(ctx, "No folder for module", "target", m.Target, "error", err)
		return 0
	}

	total, counted := 0, 0
	for _, f := range files {
		if !finder.HasSuffix(f, r.rules.StatsFileTypes) {
			continue
		}
		lines := countLines(f)
		if lines > hugeFile {
			rel, _ := filepath.Rel(r.root, f)
			logger.InfoContext(ctx, "Huge file", "path", rel, "lines", lines)
		}
		total += lines
		counted++
	}
	logger.InfoContext(ctx, "Module stats", "target", m.Target, "files", counted, "lines", total)
	return total
}

// countLines returns the number of non-blank lines, or 0 if path cannot be
// read.
func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			n++
		}
	}
	return n
}
