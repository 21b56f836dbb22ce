package refactor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/deps-minimizer/pkg/buck"
	"github.com/ritzau/deps-minimizer/pkg/config"
	"github.com/ritzau/deps-minimizer/pkg/model"
)

const zooQuery = `{
  "//ios/app:app": {"name": "app", "srcs": ["App.m"], "deps": ["//ios/zoo:zoo", "//ios/park:park"]},
  "//ios/zoo:zoo": {"name": "zoo", "module_name": "ios_zoo", "exported_headers": ["Zoo.h"]},
  "//ios/park:park": {"name": "park", "module_name": "ios_park", "exported_headers": ["Bench.h"]},
  "//dbx/external/lib:lib": {"name": "lib", "srcs": ["Lib.m"]}
}`

const appBuck = `load('//tools/buck/rules:buck_rule_macros.bzl', 'dbx_apple_library')

dbx_apple_library(
    name = "app",
    srcs = [
        "App.m",
    ],
    deps = [
        "//ios/park:park",
        "//ios/zoo:zoo",
    ],
)
`

const parserResults = `{"files": [
  {"filePath": "ios/app/App.m", "definedTypeNames": ["App"], "requiredTypeNames": ["Zoo"]},
  {"filePath": "ios/zoo/Zoo.h", "definedTypeNames": ["Zoo"], "requiredTypeNames": []},
  {"filePath": "ios/park/Bench.h", "definedTypeNames": ["Bench"], "requiredTypeNames": []}
]}`

func cleanupFixture(t *testing.T) (string, *config.CleanupInput) {
	root := t.TempDir()
	writeFile(t, root, "ios/app/App.m", "#import <ios_zoo/Zoo.h>\n#import <ios_park/Bench.h>\n\n@implementation App\n@end\n")
	writeFile(t, root, "ios/app/BUCK", appBuck)
	writeFile(t, root, "ios/zoo/Zoo.h", "@interface Zoo\n@end\n")
	writeFile(t, root, "ios/park/Bench.h", "@interface Bench\n@end\n")
	writeFile(t, root, "parsed.json", parserResults)

	in := &config.CleanupInput{
		ProjectBuildTargets: []string{"//ios/app:app"},
		ParserResultsPath:   filepath.Join(root, "parsed.json"),
	}
	in.Imports.ReduceImports = true
	in.Imports.FileTypes = []string{"h", "m"}
	in.Buck.ReduceBuckDependencies = true
	return root, in
}

func TestCleanup(t *testing.T) {
	root, in := cleanupFixture(t)
	oracle := &buck.MockOracle{Queries: map[string]string{"//ios/app:app": zooQuery}}
	r, _ := newRefactorer(t, root, oracle, false)

	report, err := r.Cleanup(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, report.Modules, 3, "vendored modules are not processed")
	assert.ElementsMatch(t, []string{"//ios/app:app", "//ios/park:park", "//ios/zoo:zoo"}, report.Modules)
	assert.Equal(t, "//ios/app:app", report.Modules[2], "roots go last")

	// The estimate keeps the Zoo import and dependency, so only Bench goes
	assert.Equal(t, 1, report.RemovedImports())
	assert.Equal(t, 1, report.RemovedDependencies())
	assert.Empty(t, report.Aborted)

	assert.Equal(t, "#import <ios_zoo/Zoo.h>\n\n@implementation App\n@end\n", readFile(t, root, "ios/app/App.m"))
	buckFile := readFile(t, root, "ios/app/BUCK")
	assert.Contains(t, buckFile, `"//ios/zoo:zoo"`)
	assert.NotContains(t, buckFile, `"//ios/park:park"`)
}

func TestCleanupAbortsDependencyPhase(t *testing.T) {
	root, in := cleanupFixture(t)
	oracle := &buck.MockOracle{
		Queries:   map[string]string{"//ios/app:app": zooQuery},
		BuildFunc: func([]string, bool) bool { return false },
	}
	r, _ := newRefactorer(t, root, oracle, false)

	report, err := r.Cleanup(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, report.Aborted, 1)
	assert.Contains(t, report.Aborted[0], "dependency reduction aborted")
	for _, m := range report.Imports {
		assert.True(t, m.Skipped, m.Target)
	}
	assert.Equal(t, appBuck, readFile(t, root, "ios/app/BUCK"))
}

func TestCleanupExplicitModules(t *testing.T) {
	root, in := cleanupFixture(t)
	in.Modules = []string{"//ios/app:app", "//ios/zoo:zoo"}
	in.IgnoreModules = []string{"//ios/zoo:zoo"}
	in.Buck.ReduceBuckDependencies = false
	in.Imports.IgnoreEstimatedImports = true

	oracle := &buck.MockOracle{Queries: map[string]string{"//ios/app:app": zooQuery}}
	r, _ := newRefactorer(t, root, oracle, false)

	report, err := r.Cleanup(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"//ios/app:app"}, report.Modules)
	// Without an estimate every import is tried and the oracle accepts all
	assert.Equal(t, 2, report.RemovedImports())
	assert.Nil(t, report.Dependencies)
}

func TestCleanupMalformedQuery(t *testing.T) {
	root, in := cleanupFixture(t)
	oracle := &buck.MockOracle{Queries: map[string]string{"//ios/app:app": `["not", "an", "object"]`}}
	r, _ := newRefactorer(t, root, oracle, false)

	_, err := r.Cleanup(context.Background(), in)
	assert.ErrorIs(t, err, buck.ErrMalformedQuery)
}

func TestExpandImports(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "buck-out/gen/ios/zoo/ios_zoo.h", "#import <ios_zoo/Zoo.h>\n\n#import <ios_zoo/Keeper.h>\n")
	writeFile(t, root, "buck-out/gen/ios/zoo/other/IOS_ZOO.h", "#import <ios_zoo/Zoo.h>\n")
	writeFile(t, root, "ios/app/App.m", "#import <ios_zoo/ios_zoo.h>\n")
	writeFile(t, root, "ios/app/App.swift", "#import <ios_zoo/ios_zoo.h>\n")
	writeFile(t, root, "ios/legacy/Legacy.m", "#import <ios_zoo/ios_zoo.h>\n")

	r, _ := newRefactorer(t, root, &buck.MockOracle{}, false)
	modules := []*model.Module{
		{Target: "//ios/zoo:zoo", Name: "zoo", ModuleName: "ios_zoo"},
		{Target: "//ios/park:park", Name: "park", ModuleName: "ios_park"},
		{Target: "//ios/app:app", Name: "app"},
	}

	changes, err := r.ExpandImports(context.Background(), modules, []string{"ios/legacy"})
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, "#import <ios_zoo/Keeper.h>\n#import <ios_zoo/Zoo.h>\n", readFile(t, root, "ios/app/App.m"))
	assert.Equal(t, "#import <ios_zoo/ios_zoo.h>\n", readFile(t, root, "ios/app/App.swift"))
	assert.Equal(t, "#import <ios_zoo/ios_zoo.h>\n", readFile(t, root, "ios/legacy/Legacy.m"))
}

func TestNewRequiresRoot(t *testing.T) {
	_, err := New(Options{Root: filepath.Join(t.TempDir(), "missing"), Rules: config.DefaultRules()})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = New(Options{Root: file, Rules: config.DefaultRules()})
	assert.True(t, err != nil && strings.Contains(err.Error(), "not a directory"))
}

func TestCleanupDryRunRefusesReduction(t *testing.T) {
	tests := []struct {
		name    string
		imports bool
		deps    bool
	}{
		{"imports", true, false},
		{"dependencies", false, true},
		{"both", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, in := cleanupFixture(t)
			in.Imports.ReduceImports = tt.imports
			in.Buck.ReduceBuckDependencies = tt.deps
			before := readFile(t, root, "ios/app/App.m")

			oracle := &buck.MockOracle{Queries: map[string]string{"//ios/app:app": zooQuery}}
			r, _ := newRefactorer(t, root, oracle, true)

			_, err := r.Cleanup(context.Background(), in)
			assert.ErrorIs(t, err, ErrDryRunUnsupported)
			assert.Empty(t, oracle.QueryCalls)
			assert.Zero(t, oracle.Builds())
			assert.Equal(t, before, readFile(t, root, "ios/app/App.m"))
			assert.Equal(t, appBuck, readFile(t, root, "ios/app/BUCK"))
		})
	}
}

func TestCleanupDryRunExpandOnly(t *testing.T) {
	root, in := cleanupFixture(t)
	in.Imports.ReduceImports = false
	in.Buck.ReduceBuckDependencies = false
	in.Imports.ExpandImports = true
	writeFile(t, root, "buck-out/gen/ios/zoo/ios_zoo.h", "#import <ios_zoo/Zoo.h>\n")
	writeFile(t, root, "ios/app/Other.m", "#import <ios_zoo/ios_zoo.h>\n")

	oracle := &buck.MockOracle{Queries: map[string]string{"//ios/app:app": zooQuery}}
	r, _ := newRefactorer(t, root, oracle, true)

	report, err := r.Cleanup(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, report.Expanded, 1)
	assert.Equal(t, "#import <ios_zoo/Zoo.h>\n", string(report.Expanded[0].After))
	assert.Equal(t, "#import <ios_zoo/ios_zoo.h>\n", readFile(t, root, "ios/app/Other.m"))
	assert.Zero(t, oracle.Builds())
}
