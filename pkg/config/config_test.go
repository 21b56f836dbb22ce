package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("root", ".", "")
	f.Bool("dry-run", false, "")
	f.CountP("verbose", "v", "")
	f.String("settle-mode", SettleFixed, "")
	f.Duration("settle-delay", 5*time.Second, "")
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "buck", cfg.Buck)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, SettleFixed, cfg.Settle.Mode)
	assert.Equal(t, 5*time.Second, cfg.Settle.Delay)
	assert.Equal(t, DefaultRules(), cfg.Rules)
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	toml := `
root = "/from/file"
workers = 3

[settle]
mode = "fsnotify"

[rules]
build-file-name = "BUILD"
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))

	t.Setenv("DEPS_MINIMIZER_WORKERS", "5")
	t.Setenv("DEPS_MINIMIZER_SETTLE_DELAY", "2s")

	f := newFlags()
	require.NoError(t, f.Parse([]string{"--dry-run", "-vv"}))

	cfg, err := load(f, path)
	require.NoError(t, err)

	assert.Equal(t, "/from/file", cfg.Root, "unchanged flag must not override the file")
	assert.Equal(t, 5, cfg.Workers, "env overrides file")
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 2, cfg.VerboseCnt)
	assert.Equal(t, SettleFSNotify, cfg.Settle.Mode)
	assert.Equal(t, 2*time.Second, cfg.Settle.Delay)

	assert.Equal(t, "BUILD", cfg.Rules.BuildFileName)
	assert.Equal(t, DefaultRules().NeverRemoveImports, cfg.Rules.NeverRemoveImports,
		"rules not named in the file keep their defaults")
}

func TestLoadRejectsUnknownSettleMode(t *testing.T) {
	f := newFlags()
	require.NoError(t, f.Parse([]string{"--settle-mode", "sleep"}))

	_, err := load(f, "")
	assert.Error(t, err)
}

func TestEnvAndFlagKeys(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DEPS_MINIMIZER_DRY_RUN", "dry-run"},
		{"DEPS_MINIMIZER_SETTLE_QUIET", "settle.quiet"},
		{"DEPS_MINIMIZER_ROOT", "root"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}

	assert.Equal(t, "settle.delay", flagKey("settle-delay"))
	assert.Equal(t, "json-file", flagKey("json-file"))
}

func TestRules(t *testing.T) {
	r := DefaultRules()

	assert.True(t, r.IsHeader("a/b/Foo.h"))
	assert.False(t, r.IsHeader("a/b/Foo.m"))
	assert.True(t, r.IsVendored("//dbx/external/lib:lib"))
	assert.False(t, r.IsVendored("//ios/app:app"))
	assert.True(t, r.NeverRemove("import Foundation  "))
	assert.True(t, r.NeverRemove("import UIKit.UIGestureRecognizerSubclass"))
	assert.True(t, r.NeverRemove("#import <UIKit/UIKit.h> // umbrella"))
	assert.False(t, r.NeverRemove("import ios_zoo"))
	assert.False(t, r.NeverRemove("// import Foundation"))
	assert.Equal(t, "UIKit", r.CleanFramework("$SDKROOT/System/Library/Frameworks/UIKit.framework"))
	assert.Equal(t, "Foundation", r.CleanFramework("Foundation"))
}
