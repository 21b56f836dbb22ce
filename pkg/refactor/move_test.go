package refactor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/deps-minimizer/pkg/buck"
	"github.com/ritzau/deps-minimizer/pkg/config"
)

const oldFilesBuck = `dbx_apple_library(
    name = "files",
    module_name = "ios_old_files",
    srcs = ["Files.swift"],
)
`

func moveFixture(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "ios/old/files/BUCK", oldFilesBuck)
	writeFile(t, root, "ios/old/files/Files.swift", "public struct Files {}\n")
	writeFile(t, root, "ios/old/files/.swiftlint.yml", "disabled_rules: []\n")
	writeFile(t, root, "ios/app/App.swift", "import ios_old_files\n")
	writeFile(t, root, "ios/app/BUCK", "deps = [\"//ios/old/files:files\"]\n")
	writeFile(t, root, "tools/modules.bzl", "MODULES = [\"ios/old/files\"]\n")
	writeFile(t, root, "ios/legacy/Legacy.swift", "import ios_old_files\n")
	return root
}

func TestMove(t *testing.T) {
	root := moveFixture(t)
	r, _ := newRefactorer(t, root, &buck.MockOracle{}, false)

	report, err := r.Move(context.Background(), &config.MoveInput{
		Paths:         []config.MovePath{{Source: "/ios/old/files/", Destination: "ios/new/files"}},
		IgnoreFolders: []string{"ios/legacy"},
	})
	require.NoError(t, err)

	assert.Equal(t, []config.MovePath{{Source: "ios/old/files", Destination: "ios/new/files"}}, report.Moved)
	assert.FileExists(t, filepath.Join(root, "ios/new/files/Files.swift"))
	assert.FileExists(t, filepath.Join(root, "ios/new/files/.swiftlint.yml"), "hidden files move too")
	assert.NoFileExists(t, filepath.Join(root, "ios/old/files/Files.swift"))

	assert.Contains(t, readFile(t, root, "ios/new/files/BUCK"), `module_name = "ios_new_files"`)
	assert.Equal(t, "import ios_new_files\n", readFile(t, root, "ios/app/App.swift"))
	assert.Equal(t, "deps = [\"//ios/new/files:files\"]\n", readFile(t, root, "ios/app/BUCK"))
	assert.Equal(t, "MODULES = [\"ios/new/files\"]\n", readFile(t, root, "tools/modules.bzl"))
	assert.Equal(t, "import ios_old_files\n", readFile(t, root, "ios/legacy/Legacy.swift"), "ignored folder")
	assert.Len(t, report.Renames, 4)
}

func TestMoveDryRun(t *testing.T) {
	root := moveFixture(t)
	r, out := newRefactorer(t, root, &buck.MockOracle{}, true)

	report, err := r.Move(context.Background(), &config.MoveInput{
		Paths: []config.MovePath{{Source: "ios/old/files", Destination: "ios/new/files"}},
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "mv ios/old/files to ios/new/files")
	assert.FileExists(t, filepath.Join(root, "ios/old/files/Files.swift"))
	assert.Equal(t, "import ios_old_files\n", readFile(t, root, "ios/app/App.swift"))
	assert.NotEmpty(t, report.Renames)
}

func TestMoveMissingSource(t *testing.T) {
	root := moveFixture(t)
	r, _ := newRefactorer(t, root, &buck.MockOracle{}, false)

	_, err := r.Move(context.Background(), &config.MoveInput{
		Paths: []config.MovePath{{Source: "ios/nowhere", Destination: "ios/new"}},
	})
	assert.Error(t, err)
}
