package buildfile

import (
	"fmt"
	"strings"
)

// ModuleSpec describes a new library block
type ModuleSpec struct {
	Name       string
	ModuleName string
	Test       bool
	Headers    []string
	Sources    []string
	Frameworks []string
	Deps       []string
	Visibility []string
}

// Template renders new build files for created modules
type Template struct {
	LoadFormat      string // fmt pattern taking the rule name
	LibraryRule     string
	TestLibraryRule string
}

// Render returns unformatted build file text for spec. Lists are written in
// the order given; callers sort them.
func (t Template) Render(spec ModuleSpec) string {
	rule := t.LibraryRule
	if spec.Test {
		rule = t.TestLibraryRule
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(t.LoadFormat, rule))
	sb.WriteString("\n\n")
	sb.WriteString(rule + "(\n")
	sb.WriteString(fmt.Sprintf("name = '%s',\n", spec.Name))
	if spec.Test {
		writeList(&sb, AttrHeaders, spec.Headers)
	} else {
		sb.WriteString(fmt.Sprintf("module_name = '%s',\n", spec.ModuleName))
		sb.WriteString("modular = True,\n")
		sb.WriteString("coverage_exception_percent = 0.0,\n")
		writeList(&sb, AttrExportedHeaders, spec.Headers)
	}
	writeList(&sb, AttrSources, spec.Sources)
	writeList(&sb, "frameworks", spec.Frameworks)
	writeList(&sb, AttrDeps, spec.Deps)
	writeList(&sb, "visibility", spec.Visibility)
	sb.WriteString(")\n\n")
	return sb.String()
}

func writeList(sb *strings.Builder, attr string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(attr + " = [\n")
	for _, item := range items {
		sb.WriteString(`"` + item + `",` + "\n")
	}
	sb.WriteString("],\n")
}
