// Package config handles split-nlogo-experiment configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Script generation modes.
const (
	ScriptModeArray  = "array"
	ScriptModePerRun = "per-run"
)

// Config is the root configuration structure.
type Config struct {
	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Output locations and naming
	Output OutputConfig `yaml:"output" mapstructure:"output"`

	// Split settings
	Split SplitConfig `yaml:"split" mapstructure:"split"`

	// Script generation settings
	Script ScriptConfig `yaml:"script" mapstructure:"script"`

	// Ledger settings
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`

	// Manifest settings
	Manifest ManifestConfig `yaml:"manifest" mapstructure:"manifest"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// OutputConfig controls where generated files go and how they are named.
type OutputConfig struct {
	// Dir receives the setup files and run tables.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Prefix is prepended to every generated file name.
	Prefix string `yaml:"prefix" mapstructure:"prefix"`

	// ScriptDir receives generated scripts (defaults to Dir).
	ScriptDir string `yaml:"script_dir" mapstructure:"script_dir"`

	// CSVDir is where simulations write their tables (defaults to Dir).
	CSVDir string `yaml:"csv_dir" mapstructure:"csv_dir"`

	// PathTranslation makes all paths absolute and creates output directories.
	PathTranslation bool `yaml:"path_translation" mapstructure:"path_translation"`
}

// SplitConfig controls the expansion.
type SplitConfig struct {
	// RepetitionsPerRun splits each experiment's repetitions over several
	// runs. Zero or less disables splitting.
	RepetitionsPerRun int `yaml:"repetitions_per_run" mapstructure:"repetitions_per_run"`

	// CreateRunTable writes <prefix><name>_run_table.csv per experiment.
	CreateRunTable bool `yaml:"create_run_table" mapstructure:"create_run_table"`
}

// ScriptConfig controls job script generation.
type ScriptConfig struct {
	// Template is the script template file. Empty disables scripts.
	Template string `yaml:"template" mapstructure:"template"`

	// Mode is array (one script per experiment) or per-run.
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// LedgerConfig controls the SQLite run ledger.
type LedgerConfig struct {
	// Path is the ledger database. Empty disables the ledger.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// ManifestConfig controls the invocation manifest.
type ManifestConfig struct {
	// Path of the manifest (.yaml, .yml, .toml or .json). Empty disables it.
	Path string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		Output: OutputConfig{
			Dir:             ".",
			PathTranslation: true,
		},
		Split: SplitConfig{
			RepetitionsPerRun: 0,
			CreateRunTable:    false,
		},
		Script: ScriptConfig{
			Mode: ScriptModeArray,
		},
		Ledger: LedgerConfig{
			BusyTimeoutMs: 5000,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console, json")
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir is required")
	}
	if strings.ContainsAny(c.Output.Prefix, `/\`) {
		return fmt.Errorf("output.prefix must not contain path separators")
	}

	switch c.Script.Mode {
	case ScriptModeArray, ScriptModePerRun:
	default:
		return fmt.Errorf("script.mode must be one of %s, %s", ScriptModeArray, ScriptModePerRun)
	}

	if c.Ledger.BusyTimeoutMs < 0 {
		return fmt.Errorf("ledger.busy_timeout_ms must be zero or greater")
	}

	if c.Manifest.Path != "" {
		switch strings.ToLower(filepath.Ext(c.Manifest.Path)) {
		case ".yaml", ".yml", ".toml", ".json":
		default:
			return fmt.Errorf("manifest.path must end in .yaml, .yml, .toml or .json")
		}
	}

	return nil
}

// ScriptDir returns the script output directory.
func (c *Config) ScriptDir() string {
	if c.Output.ScriptDir != "" {
		return c.Output.ScriptDir
	}
	return c.Output.Dir
}

// CSVDir returns the directory simulations write their tables to.
func (c *Config) CSVDir() string {
	if c.Output.CSVDir != "" {
		return c.Output.CSVDir
	}
	return c.Output.Dir
}

// EnsureDirectories creates the output directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Output.Dir}
	if c.Script.Template != "" {
		dirs = append(dirs, c.ScriptDir())
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Absolutize rewrites the configured directories as absolute paths. NetLogo's
// headless launcher changes into its own directory, so relative paths in
// scripts would resolve against the wrong place.
func (c *Config) Absolutize() error {
	for _, p := range []*string{&c.Output.Dir, &c.Output.ScriptDir, &c.Output.CSVDir, &c.Script.Template, &c.Ledger.Path, &c.Manifest.Path} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}
