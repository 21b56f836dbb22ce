package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrNoInput is returned when neither a JSON file nor JSON text is given.
var ErrNoInput = errors.New("either a JSON file or JSON text is required")

// CleanupInput drives the cleanup command.
type CleanupInput struct {
	ProjectBuildTargets []string             `koanf:"projectBuildTargets"`
	ParserResultsPath   string               `koanf:"parserResultsPath"`
	Modules             []string             `koanf:"modules"`
	IgnoreModules       []string             `koanf:"ignoreModules"`
	IgnoreFolders       []string             `koanf:"ignoreFolders"`
	Imports             CleanupImportsConfig `koanf:"cleanupImportsConfig"`
	Buck                CleanupBuckConfig    `koanf:"cleanupBuckConfig"`
}

// CleanupImportsConfig selects the import phases.
type CleanupImportsConfig struct {
	ExpandImports bool `koanf:"expandImports"`
	ReduceImports bool `koanf:"reduceImports"`
	// FileTypes are extensions without the dot ("h", not ".h").
	FileTypes              []string `koanf:"fileTypes"`
	IgnoreEstimatedImports bool     `koanf:"ignoreEstimatedImports"`
}

// CleanupBuckConfig selects the build file phase.
type CleanupBuckConfig struct {
	ReduceBuckDependencies      bool `koanf:"reduceBuckDependencies"`
	IgnoreEstimatedDependencies bool `koanf:"ignoreEstimatedDependencies"`
}

func (c *CleanupInput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cleanup: targets=[%s]", strings.Join(c.ProjectBuildTargets, ", "))
	if c.ParserResultsPath != "" {
		fmt.Fprintf(&b, " parserResults=%s", c.ParserResultsPath)
	}
	if len(c.Modules) > 0 {
		fmt.Fprintf(&b, " modules=%d", len(c.Modules))
	}
	if len(c.IgnoreModules) > 0 {
		fmt.Fprintf(&b, " ignoreModules=%d", len(c.IgnoreModules))
	}
	if len(c.IgnoreFolders) > 0 {
		fmt.Fprintf(&b, " ignoreFolders=[%s]", strings.Join(c.IgnoreFolders, ", "))
	}
	fmt.Fprintf(&b, " expand=%t reduceImports=%t fileTypes=[%s] ignoreEstimatedImports=%t",
		c.Imports.ExpandImports, c.Imports.ReduceImports,
		strings.Join(c.Imports.FileTypes, ","), c.Imports.IgnoreEstimatedImports)
	fmt.Fprintf(&b, " reduceDeps=%t ignoreEstimatedDeps=%t",
		c.Buck.ReduceBuckDependencies, c.Buck.IgnoreEstimatedDependencies)
	return b.String()
}

// CreateInput drives the create command.
type CreateInput struct {
	Modules             []CreateModule `koanf:"modules"`
	ProjectBuildTargets []string       `koanf:"projectBuildTargets"`
	IgnoreFolders       []string       `koanf:"ignoreFolders"`
}

// CreateModule describes one module to carve out of existing files.
type CreateModule struct {
	Destination string   `koanf:"destination"`
	Files       []string `koanf:"files"`
	TargetName  string   `koanf:"targetName"`
	ModuleName  string   `koanf:"moduleName"`
	Visibility  []string `koanf:"visibility"`
	TestTarget  bool     `koanf:"testTarget"`
}

func (c *CreateInput) String() string {
	dests := make([]string, len(c.Modules))
	for i, m := range c.Modules {
		dests[i] = fmt.Sprintf("%s(%d files)", m.Destination, len(m.Files))
	}
	return fmt.Sprintf("create: modules=[%s] targets=[%s] ignoreFolders=[%s]",
		strings.Join(dests, ", "),
		strings.Join(c.ProjectBuildTargets, ", "),
		strings.Join(c.IgnoreFolders, ", "))
}

// MoveInput drives the move command.
type MoveInput struct {
	Paths         []MovePath `koanf:"paths"`
	IgnoreFolders []string   `koanf:"ignoreFolders"`
}

// MovePath is one folder move.
type MovePath struct {
	Source      string `koanf:"source"`
	Destination string `koanf:"destination"`
}

func (m *MoveInput) String() string {
	moves := make([]string, len(m.Paths))
	for i, p := range m.Paths {
		moves[i] = p.Source + " -> " + p.Destination
	}
	return fmt.Sprintf("move: [%s] ignoreFolders=[%s]",
		strings.Join(moves, ", "), strings.Join(m.IgnoreFolders, ", "))
}

// StatsInput drives the stats command.
type StatsInput struct {
	ProjectBuildTargets []string `koanf:"projectBuildTargets"`
	Modules             []string `koanf:"modules"`
}

func (s *StatsInput) String() string {
	return fmt.Sprintf("stats: targets=[%s] modules=%d",
		strings.Join(s.ProjectBuildTargets, ", "), len(s.Modules))
}

// LoadCleanupInput reads a cleanup input from a file path or inline JSON.
func LoadCleanupInput(path, text string) (*CleanupInput, error) {
	var in CleanupInput
	if err := loadJSON(path, text, &in); err != nil {
		return nil, err
	}
	if len(in.ProjectBuildTargets) == 0 {
		return nil, errors.New("cleanup input: projectBuildTargets is empty")
	}
	return &in, nil
}

// LoadCreateInput reads a create input from a file path or inline JSON.
func LoadCreateInput(path, text string) (*CreateInput, error) {
	var in CreateInput
	if err := loadJSON(path, text, &in); err != nil {
		return nil, err
	}
	for i, m := range in.Modules {
		if m.Destination == "" {
			return nil, fmt.Errorf("create input: module %d has no destination", i)
		}
	}
	return &in, nil
}

// LoadMoveInput reads a move input from a file path or inline JSON.
func LoadMoveInput(path, text string) (*MoveInput, error) {
	var in MoveInput
	if err := loadJSON(path, text, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// LoadStatsInput reads a stats input from a file path or inline JSON.
func LoadStatsInput(path, text string) (*StatsInput, error) {
	var in StatsInput
	if err := loadJSON(path, text, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func loadJSON(path, text string, out interface{}) error {
	// JSON keys are camelCase and never contain a colon
	k := koanf.New(":")

	var err error
	switch {
	case path != "":
		err = k.Load(file.Provider(path), json.Parser())
	case text != "":
		err = k.Load(makeBytesProvider([]byte(text)), json.Parser())
	default:
		return ErrNoInput
	}
	if err != nil {
		return fmt.Errorf("failed to parse JSON input: %w", err)
	}

	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("failed to unmarshal JSON input: %w", err)
	}
	return nil
}

// Helper to use inline bytes as a provider
type bytesProvider struct {
	b []byte
}

func makeBytesProvider(b []byte) *bytesProvider {
	return &bytesProvider{b: b}
}

func (p *bytesProvider) ReadBytes() ([]byte, error) {
	return p.b, nil
}

func (p *bytesProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("not implemented")
}
