package model

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidTarget marks a target string whose folder cannot be derived.
// Modules carrying such a target are skipped, never fatal.
var ErrInvalidTarget = errors.New("invalid target")

// Module represents one build target as reported by the dependency query
type Module struct {
	Target     string   `json:"target"`                // Full target (e.g., "//ios/common/files:files")
	Name       string   `json:"name"`                  // Target name (e.g., "files")
	ModuleName string   `json:"module_name,omitempty"` // Public module name (e.g., "ios_common_files")
	Frameworks []string `json:"frameworks,omitempty"`

	// Files, relative to the module folder
	Sources         []string `json:"srcs,omitempty"`
	Headers         []string `json:"headers,omitempty"`
	ExportedHeaders []string `json:"exported_headers,omitempty"`

	// Declared dependencies, shorthand already expanded
	Deps []string `json:"deps,omitempty"`
}

// HasFiles returns true if the module has any source or header file.
// Modules without files are not minimized.
func (m *Module) HasFiles() bool {
	return len(m.Sources) > 0 || len(m.Headers) > 0 || len(m.ExportedHeaders) > 0
}

// IsSingleLanguage returns true if the module has no headers and all of its
// sources share one extension. Such modules are imported by their bare name.
func (m *Module) IsSingleLanguage() bool {
	if len(m.Headers) > 0 || len(m.ExportedHeaders) > 0 || len(m.Sources) == 0 {
		return false
	}
	ext := path.Ext(m.Sources[0])
	if ext == "" {
		return false
	}
	for _, s := range m.Sources[1:] {
		if path.Ext(s) != ext {
			return false
		}
	}
	return true
}

// PublicName returns the name other files use to import this module, or ""
// if the module has none.
func (m *Module) PublicName() string {
	if m.ModuleName != "" {
		return m.ModuleName
	}
	if m.IsSingleLanguage() {
		return m.Name
	}
	return ""
}

// Folder derives the workspace-relative folder from the target string.
// The target must be "//<folder>:<name>" with name matching the module name.
func (m *Module) Folder() (string, error) {
	rest, ok := strings.CutPrefix(m.Target, "//")
	if !ok {
		return "", fmt.Errorf("%w: %s: missing // prefix", ErrInvalidTarget, m.Target)
	}
	rest, ok = strings.CutSuffix(rest, ":"+m.Name)
	if !ok || m.Name == "" {
		return "", fmt.Errorf("%w: %s: does not end with :%s", ErrInvalidTarget, m.Target, m.Name)
	}
	return rest, nil
}

// BuildFilePath returns the workspace-relative path of the build file
// defining this module.
func (m *Module) BuildFilePath(buildFileName string) (string, error) {
	folder, err := m.Folder()
	if err != nil {
		return "", err
	}
	return path.Join(folder, buildFileName), nil
}

// Files returns the unique module files (sources, headers, exported headers),
// relative to the module folder, sorted.
func (m *Module) Files() []string {
	return SortedUnique(m.Sources, m.Headers, m.ExportedHeaders)
}

// String returns a short description for logging
func (m *Module) String() string {
	return fmt.Sprintf("%s (srcs=%d headers=%d exported=%d deps=%d)",
		m.Target, len(m.Sources), len(m.Headers), len(m.ExportedHeaders), len(m.Deps))
}
