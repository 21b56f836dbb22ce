package model

import (
	"path"
	"slices"
	"strings"

	"github.com/bazelbuild/buildtools/labels"
)

// NormalizeDependency returns the canonical "//<folder>:<name>" form of a
// dependency as written in folder's build file. Same-folder shorthand
// (":x"), shortened labels ("//a/b" for "//a/b:b") and external labels
// ("@repo//a:b") are all expanded, so formatted and unformatted build files
// name a target the same way.
func NormalizeDependency(dep, folder string) string {
	l := labels.ParseRelative(dep, folder)
	if l.Target == "" {
		l.Target = path.Base(l.Package)
	}
	target := FormatTarget(l.Package, l.Target)
	if l.Repository != "" {
		return "@" + l.Repository + target
	}
	return target
}

// FormatTarget builds "//<folder>:<name>".
func FormatTarget(folder, name string) string {
	return "//" + folder + ":" + name
}

// TargetFolder returns the folder of a fully qualified target, or "" when
// target is not of the form "//<folder>:<name>".
func TargetFolder(target string) string {
	if !strings.HasPrefix(target, "//") {
		return ""
	}
	return labels.Parse(target).Package
}

// SortedUnique merges lists into one sorted list without duplicates or empty
// entries.
func SortedUnique(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		for _, s := range l {
			if s != "" {
				out = append(out, s)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
