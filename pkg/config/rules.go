package config

import (
	"path"
	"slices"
	"strings"
)

// Rules is the immutable table of names, prefixes and deny-lists the
// minimizers consult. It is built once and passed to every constructor.
type Rules struct {
	BuildFileName        string   `koanf:"build-file-name"`
	RuleNames            []string `koanf:"rule-names"`
	LibraryRule          string   `koanf:"library-rule"`
	TestLibraryRule      string   `koanf:"test-library-rule"`
	RuleMacrosLoad       string   `koanf:"rule-macros-load"`
	HeaderExtensions     []string `koanf:"header-extensions"`
	SwiftExtension       string   `koanf:"swift-extension"`
	ImportPrefixes       []string `koanf:"import-prefixes"`
	ModuleImportPrefixes []string `koanf:"module-import-prefixes"`
	NeverRemoveImports   []string `koanf:"never-remove-imports"`
	CategorySeparators   string   `koanf:"category-separators"`
	VendorPrefixes       []string `koanf:"vendor-prefixes"`
	CodegenDependency    string   `koanf:"codegen-dependency"`
	FrameworkPrefix      string   `koanf:"framework-prefix"`
	FrameworkSuffix      string   `koanf:"framework-suffix"`
	StatsFileTypes       []string `koanf:"stats-file-types"`
	BuildOutputDir       string   `koanf:"build-output-dir"`
}

// DefaultRules returns the rule table for Buck based Apple projects.
func DefaultRules() Rules {
	return Rules{
		BuildFileName:    "BUCK",
		RuleNames:        []string{"dbx_apple_library", "dbx_apple_test_library", "apple_library"},
		LibraryRule:      "dbx_apple_library",
		TestLibraryRule:  "dbx_apple_test_library",
		RuleMacrosLoad:   "load('//tools/buck/rules:buck_rule_macros.bzl', '%s')",
		HeaderExtensions: []string{".h", ".hh", ".hpp"},
		SwiftExtension:   ".swift",
		ImportPrefixes: []string{
			"#import",
			"import",
			"@_implementationOnly import",
			"@testable import",
		},
		ModuleImportPrefixes: []string{
			"#import <",
			"import ",
			"@_implementationOnly import ",
			"@testable import ",
		},
		NeverRemoveImports: []string{
			"import Foundation",
			"import UIKit",
			"#import <Foundation/Foundation.h>",
			"#import <UIKit/UIKit.h>",
		},
		CategorySeparators: "+_",
		VendorPrefixes:     []string{"//dbx/external", "//shared/passwords/Pods"},
		CodegenDependency:  ":cpp",
		FrameworkPrefix:    "$SDKROOT/System/Library/Frameworks/",
		FrameworkSuffix:    ".framework",
		StatsFileTypes:     []string{".h", ".hpp", ".c", ".cc", ".cpp", ".swift", ".m", ".mm"},
		BuildOutputDir:     "buck-out",
	}
}

// IsHeader reports whether file has one of the header extensions.
func (r Rules) IsHeader(file string) bool {
	return slices.Contains(r.HeaderExtensions, path.Ext(file))
}

// IsVendored reports whether target lives under a vendor prefix.
func (r Rules) IsVendored(target string) bool {
	for _, p := range r.VendorPrefixes {
		if strings.HasPrefix(target, p) {
			return true
		}
	}
	return false
}

// NeverRemove reports whether line imports a core framework. Entries match
// as prefixes, which also covers submodules ("import UIKit.UIGestureRecognizerSubclass")
// and trailing comments.
func (r Rules) NeverRemove(line string) bool {
	line = strings.TrimSpace(line)
	return slices.ContainsFunc(r.NeverRemoveImports, func(p string) bool {
		return p != "" && strings.HasPrefix(line, p)
	})
}

// CleanFramework strips the SDK path decoration from a framework entry.
func (r Rules) CleanFramework(framework string) string {
	framework = strings.TrimPrefix(framework, r.FrameworkPrefix)
	return strings.TrimSuffix(framework, r.FrameworkSuffix)
}
