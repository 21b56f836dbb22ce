package minimize

// FileImports records the imports removed from one file
type FileImports struct {
	Path    string   `json:"path"` // Workspace-relative
	Removed []string `json:"removed"`
	Before  []byte   `json:"-"`
	After   []byte   `json:"-"`
}

// ModuleImports is the import reduction result for one module
type ModuleImports struct {
	Target  string        `json:"target"`
	Skipped bool          `json:"skipped,omitempty"` // Module failed its pre-check build
	Files   []FileImports `json:"files,omitempty"`
}

// Removed returns the number of imports removed across all files
func (m *ModuleImports) Removed() int {
	n := 0
	for _, f := range m.Files {
		n += len(f.Removed)
	}
	return n
}

// RemovedDep is one dependency edge dropped from a build file
type RemovedDep struct {
	Attr string `json:"attr"` // "deps" or "exported_deps"
	Dep  string `json:"dep"`
}

// ModuleDeps is the dependency reduction result for one module
type ModuleDeps struct {
	Target    string       `json:"target"`
	BuildFile string       `json:"buildFile"` // Workspace-relative
	Removed   []RemovedDep `json:"removed,omitempty"`
	Before    []byte       `json:"-"`
	After     []byte       `json:"-"`
}
