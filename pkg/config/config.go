package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional TOML settings file looked up in the working directory.
const FileName = "deps-minimizer.toml"

// EnvPrefix is the prefix of environment variables overriding settings.
const EnvPrefix = "DEPS_MINIMIZER_"

// Settle modes
const (
	SettleFixed    = "fixed"
	SettleFSNotify = "fsnotify"
)

// Settings holds all configuration for the tool itself, as opposed to the
// per-command JSON inputs.
type Settings struct {
	Root       string         `koanf:"root"`
	Buck       string         `koanf:"buck"`
	JSONFile   string         `koanf:"json-file"`
	JSONText   string         `koanf:"json-text"`
	DryRun     bool           `koanf:"dry-run"`
	VerboseCnt int            `koanf:"verbose"`
	Verbosity  string         `koanf:"verbosity"`
	JSONLogs   bool           `koanf:"json-logs"`
	Workers    int            `koanf:"workers"`
	QueryCache int            `koanf:"query-cache"`
	Settle     SettleSettings `koanf:"settle"`
	Rules      Rules          `koanf:"rules"`
}

// SettleSettings configures the wait after every build file write.
type SettleSettings struct {
	Mode  string        `koanf:"mode"`
	Delay time.Duration `koanf:"delay"`
	Quiet time.Duration `koanf:"quiet"`
}

// Load loads settings from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Settings, error) {
	return load(f, FileName)
}

func load(f *pflag.FlagSet, path string) (*Settings, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"root":        ".",
		"buck":        "buck",
		"json-file":   "",
		"json-text":   "",
		"dry-run":     false,
		"verbose":     0,
		"verbosity":   "",
		"json-logs":   false,
		"workers":     8,
		"query-cache": 64,
		"settle": map[string]interface{}{
			"mode":  SettleFixed,
			"delay": 5 * time.Second,
			"quiet": 250 * time.Millisecond,
		},
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - deps-minimizer.toml
	// We ignore errors here as the file might not exist
	if path != "" {
		_ = k.Load(file.Provider(path), toml.Parser())
	}

	// 3. Environment Variables
	// Prefix: DEPS_MINIMIZER_ (e.g., DEPS_MINIMIZER_SETTLE_MODE=fsnotify)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			return flagKey(fl.Name), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct, starting from the built-in rule table so a
	// partial [rules] section only overrides what it names.
	cfg := Settings{Rules: DefaultRules()}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Settings) validate() error {
	switch s.Settle.Mode {
	case SettleFixed, SettleFSNotify:
	default:
		return fmt.Errorf("unknown settle mode %q", s.Settle.Mode)
	}
	if s.Workers < 1 {
		s.Workers = 1
	}
	return nil
}

// envKey maps DEPS_MINIMIZER_SETTLE_DELAY to settle.delay and
// DEPS_MINIMIZER_DRY_RUN to dry-run.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "settle_"); ok {
		return "settle." + rest
	}
	return strings.ReplaceAll(key, "_", "-")
}

// flagKey maps --settle-delay to settle.delay.
func flagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "settle-"); ok {
		return "settle." + rest
	}
	return name
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
