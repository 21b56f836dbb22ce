package usage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fixture: zoo (objc, module_name ios_zoo) defines Giraffe and Lion,
// park (swift only, no module_name) defines Bench and uses Giraffe,
// app (objc, no module name) uses Bench and Lion.
func fixture(t *testing.T) (string, []*model.Module, []model.ParsedFile) {
	root := t.TempDir()
	writeFile(t, root, "ios/zoo/Giraffe.h", "@interface Giraffe\n@end\n")
	writeFile(t, root, "ios/zoo/Giraffe.m", "#import \"Giraffe.h\"\n")
	writeFile(t, root, "ios/zoo/Lion.h", "@interface Lion\n@end\n")
	writeFile(t, root, "ios/park/Bench.swift", "import Foundation\nimport ios_zoo\n\nclass Bench {}\n")
	writeFile(t, root, "ios/app/AppDelegate.m", "#import <ios_zoo/Lion.h>\n#import <UIKit/UIKit.h>\n")

	modules := []*model.Module{
		{Target: "//ios/zoo:zoo", Name: "zoo", ModuleName: "ios_zoo",
			Sources: []string{"Giraffe.m"}, ExportedHeaders: []string{"Giraffe.h", "Lion.h"}},
		{Target: "//ios/park:park", Name: "park", Sources: []string{"Bench.swift"},
			Deps: []string{"//ios/zoo:zoo"}},
		{Target: "//ios/app:app", Name: "app", Sources: []string{"AppDelegate.m"},
			Deps: []string{"//ios/park:park", "//ios/zoo:zoo"}},
	}

	parsed := []model.ParsedFile{
		{FilePath: "ios/zoo/Giraffe.h", DefinedTypeNames: []string{"Giraffe"}},
		{FilePath: "ios/zoo/Lion.h", DefinedTypeNames: []string{"Lion"}},
		{FilePath: "ios/zoo/Giraffe.m", DefinedTypeNames: []string{"Giraffe"}, RequiredTypeNames: []string{"Giraffe"}},
		{FilePath: "ios/park/Bench.swift", DefinedTypeNames: []string{"Bench"}, RequiredTypeNames: []string{"Giraffe"}},
		{FilePath: "ios/app/AppDelegate.m", RequiredTypeNames: []string{"Bench", "Lion", "NSObject"}},
		{FilePath: "ios/orphan/Orphan.m", DefinedTypeNames: []string{"Orphan"}},
	}
	return root, modules, parsed
}

func TestSpellings(t *testing.T) {
	assert.Equal(t, []string{
		`#import "Lion.h"`,
		`#import <ios_zoo/Lion.h>`,
		`import ios_zoo.Lion.h`,
		`import ios_zoo`,
	}, Spellings("Lion.h", "ios_zoo"))
	assert.Equal(t, []string{`#import "Lion.h"`}, Spellings("Lion.h", ""))
}

func TestEstimateImports(t *testing.T) {
	root, modules, parsed := fixture(t)
	e := NewEstimator(root, config.DefaultRules(), 2)

	est, err := e.Estimate(context.Background(), modules, parsed, Options{Imports: true})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		`#import "Giraffe.h"`,
		`#import <ios_zoo/Giraffe.h>`,
		`import ios_zoo`,
		`import ios_zoo.Giraffe.h`,
	}, est.Imports["ios/park/Bench.swift"])

	// Bench lives in a swift-only module, so its bare name is its public name
	assert.ElementsMatch(t, []string{
		`#import "Bench.swift"`,
		`#import <park/Bench.swift>`,
		`import park.Bench.swift`,
		`import park`,
		`#import "Lion.h"`,
		`#import <ios_zoo/Lion.h>`,
		`import ios_zoo.Lion.h`,
		`import ios_zoo`,
	}, est.Imports["ios/app/AppDelegate.m"])

	assert.Empty(t, est.Dependencies)
}

func TestEstimateDuplicateDefinitionKeepsFirst(t *testing.T) {
	root, modules, parsed := fixture(t)
	e := NewEstimator(root, config.DefaultRules(), 1)

	est, err := e.Estimate(context.Background(), modules, parsed, Options{Imports: true})
	require.NoError(t, err)

	// Giraffe is defined by Giraffe.h first and Giraffe.m second
	assert.Contains(t, est.Imports["ios/zoo/Giraffe.m"], `#import "Giraffe.h"`)
	assert.NotContains(t, est.Imports["ios/zoo/Giraffe.m"], `#import "Giraffe.m"`)
}

func TestEstimateDependencies(t *testing.T) {
	root, modules, parsed := fixture(t)
	e := NewEstimator(root, config.DefaultRules(), 4)

	est, err := e.Estimate(context.Background(), modules, parsed, Options{Dependencies: true})
	require.NoError(t, err)

	assert.Empty(t, est.Imports)
	assert.Equal(t, []string{"//ios/zoo:zoo"}, est.Dependencies["//ios/park:park"])
	assert.Equal(t, []string{"//ios/park:park", "//ios/zoo:zoo"}, est.Dependencies["//ios/app:app"])
	assert.Empty(t, est.Dependencies["//ios/zoo:zoo"], "self references are not dependencies")
}

func TestEstimateNothingRequested(t *testing.T) {
	root, modules, parsed := fixture(t)
	est, err := NewEstimator(root, config.DefaultRules(), 1).Estimate(context.Background(), modules, parsed, Options{})
	require.NoError(t, err)
	assert.Empty(t, est.Imports)
	assert.Empty(t, est.Dependencies)
}

func TestImportedModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/Example1.swift", "import Foundation\nimport UIKit\nimport ios_common_utilities.Swift\n\nlet x = 1\n")
	writeFile(t, root, "a/Example2.h", "#import <Foundation/Foundation.h>\n#import <ios_common_logging/ios_common_logging-Swift.h>\n")
	writeFile(t, root, "a/Example3.swift", "@testable import ios_common_status\n  @_implementationOnly import Private.Sub\n// import Commented\n")

	files := []string{
		filepath.Join(root, "a/Example1.swift"),
		filepath.Join(root, "a/Example2.h"),
		filepath.Join(root, "a/Example3.swift"),
		filepath.Join(root, "a/Missing.m"),
	}
	got := ImportedModules(files, config.DefaultRules().ModuleImportPrefixes)
	assert.Equal(t, []string{
		"Foundation",
		"Private",
		"UIKit",
		"ios_common_logging",
		"ios_common_status",
		"ios_common_utilities",
	}, got)
}

func TestLoadParsedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parsed.json")
	writeFile(t, filepath.Dir(path), "parsed.json", `{"files": [
		{"filePath": "ios/zoo/Lion.h", "definedTypeNames": ["Lion"], "requiredTypeNames": []},
		{"filePath": "ios/zoo/Bad.m", "definedTypeNames": [], "requiredTypeNames": [], "error": "parse failed"}
	]}`)

	files, err := LoadParsedFiles(path)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "ios/zoo/Lion.h", files[0].FilePath)
	assert.Equal(t, []string{"Lion"}, files[0].DefinedTypeNames)
	assert.Equal(t, "parse failed", files[1].Error)

	files, err = LoadParsedFiles("")
	require.NoError(t, err)
	assert.Nil(t, files)

	_, err = LoadParsedFiles(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
