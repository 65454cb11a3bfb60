package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppName names the config directory and environment prefix.
const AppName = "split-nlogo"

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// expandPaths expands ~ in all path-related config fields.
func expandPaths(cfg *Config) {
	cfg.Output.Dir = expandTilde(cfg.Output.Dir)
	cfg.Output.ScriptDir = expandTilde(cfg.Output.ScriptDir)
	cfg.Output.CSVDir = expandTilde(cfg.Output.CSVDir)
	cfg.Script.Template = expandTilde(cfg.Script.Template)
	cfg.Ledger.Path = expandTilde(cfg.Ledger.Path)
	cfg.Manifest.Path = expandTilde(cfg.Manifest.Path)
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, AppName))
	}

	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", AppName))
	}

	// Current directory
	v.AddConfigPath(".")

	// Environment variables - SPLIT_NLOGO_ prefix
	v.SetEnvPrefix("SPLIT_NLOGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l.setDefaults(cfg)
}

// setDefaults sets all default values in Viper.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	// Logging
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	// Output
	v.SetDefault("output.dir", cfg.Output.Dir)
	v.SetDefault("output.prefix", cfg.Output.Prefix)
	v.SetDefault("output.script_dir", cfg.Output.ScriptDir)
	v.SetDefault("output.csv_dir", cfg.Output.CSVDir)
	v.SetDefault("output.path_translation", cfg.Output.PathTranslation)

	// Split
	v.SetDefault("split.repetitions_per_run", cfg.Split.RepetitionsPerRun)
	v.SetDefault("split.create_run_table", cfg.Split.CreateRunTable)

	// Script
	v.SetDefault("script.template", cfg.Script.Template)
	v.SetDefault("script.mode", cfg.Script.Mode)

	// Ledger
	v.SetDefault("ledger.path", cfg.Ledger.Path)
	v.SetDefault("ledger.busy_timeout_ms", cfg.Ledger.BusyTimeoutMs)

	// Manifest
	v.SetDefault("manifest.path", cfg.Manifest.Path)
}

// loadConfigFile attempts to load the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			return nil
		}
		return err
	}

	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	loader := NewLoader()
	return loader.Load()
}
