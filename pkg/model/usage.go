package model

import "slices"

// ParsedFile is the per-file output of the external type parser
type ParsedFile struct {
	FilePath          string   `json:"filePath"`
	DefinedTypeNames  []string `json:"definedTypeNames"`
	RequiredTypeNames []string `json:"requiredTypeNames"`
	Error             string   `json:"error,omitempty"`
}

// UsageEstimate holds the never-remove allow-lists derived from parsed files.
// It is built once per run and read-only afterwards.
type UsageEstimate struct {
	// Imports maps a workspace-relative file path to import lines known to be required.
	Imports map[string][]string `json:"imports"`
	// Dependencies maps a module target to dependency targets known to be required.
	Dependencies map[string][]string `json:"dependencies"`
}

// NewUsageEstimate returns an empty estimate. An empty estimate allows every
// candidate to be tried.
func NewUsageEstimate() *UsageEstimate {
	return &UsageEstimate{
		Imports:      make(map[string][]string),
		Dependencies: make(map[string][]string),
	}
}

// RequiredImport reports whether line is a known-required import of file.
func (u *UsageEstimate) RequiredImport(file, line string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Imports[file], line)
}

// RequiredDependency reports whether dep is a known-required dependency of target.
func (u *UsageEstimate) RequiredDependency(target, dep string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Dependencies[target], dep)
}
