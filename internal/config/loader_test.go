package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolateHome(t *testing.T) {
	t.Helper()
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpHome, ".config"))
}

func TestLoadDefault(t *testing.T) {
	// Use a temp directory as HOME to avoid picking up existing config files
	isolateHome(t)

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected logging.level = 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Output.Dir != "." {
		t.Errorf("Expected output.dir = '.', got %q", cfg.Output.Dir)
	}
	if !cfg.Output.PathTranslation {
		t.Error("Expected output.path_translation to default to true")
	}
	if cfg.Script.Mode != ScriptModeArray {
		t.Errorf("Expected script.mode = %q, got %q", ScriptModeArray, cfg.Script.Mode)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: debug
  format: json
output:
  prefix: run_
split:
  repetitions_per_run: 5
  create_run_table: true
script:
  mode: per-run
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected logging.level = 'debug', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected logging.format = 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Output.Prefix != "run_" {
		t.Errorf("Expected output.prefix = 'run_', got %q", cfg.Output.Prefix)
	}
	if cfg.Split.RepetitionsPerRun != 5 {
		t.Errorf("Expected split.repetitions_per_run = 5, got %d", cfg.Split.RepetitionsPerRun)
	}
	if !cfg.Split.CreateRunTable {
		t.Error("Expected split.create_run_table = true")
	}
	if cfg.Script.Mode != ScriptModePerRun {
		t.Errorf("Expected script.mode = %q, got %q", ScriptModePerRun, cfg.Script.Mode)
	}

	// Check defaults are still applied
	if cfg.Output.Dir != "." {
		t.Errorf("Expected output.dir = '.', got %q", cfg.Output.Dir)
	}
}

func TestEnvironmentOverride(t *testing.T) {
	isolateHome(t)
	t.Setenv("SPLIT_NLOGO_LOGGING_LEVEL", "warn")
	t.Setenv("SPLIT_NLOGO_SPLIT_REPETITIONS_PER_RUN", "3")

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected logging.level = 'warn' from env, got %q", cfg.Logging.Level)
	}
	if cfg.Split.RepetitionsPerRun != 3 {
		t.Errorf("Expected split.repetitions_per_run = 3 from env, got %d", cfg.Split.RepetitionsPerRun)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "empty output dir", mutate: func(c *Config) { c.Output.Dir = " " }, wantErr: true},
		{name: "prefix with separator", mutate: func(c *Config) { c.Output.Prefix = "a/b" }, wantErr: true},
		{name: "bad script mode", mutate: func(c *Config) { c.Script.Mode = "bulk" }, wantErr: true},
		{name: "per-run mode", mutate: func(c *Config) { c.Script.Mode = ScriptModePerRun }},
		{name: "negative busy timeout", mutate: func(c *Config) { c.Ledger.BusyTimeoutMs = -1 }, wantErr: true},
		{name: "toml manifest", mutate: func(c *Config) { c.Manifest.Path = "m.toml" }},
		{name: "bad manifest ext", mutate: func(c *Config) { c.Manifest.Path = "m.txt" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExplicitConfigFileNotFound(t *testing.T) {
	// Should error when explicitly specified config file doesn't exist
	_, err := LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() should error for nonexistent file")
	}
}

func TestDerivedDirs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Dir = "/out"

	if cfg.ScriptDir() != "/out" || cfg.CSVDir() != "/out" {
		t.Errorf("expected script and csv dirs to default to output dir, got %q %q", cfg.ScriptDir(), cfg.CSVDir())
	}

	cfg.Output.ScriptDir = "/scripts"
	cfg.Output.CSVDir = "/csv"
	if cfg.ScriptDir() != "/scripts" || cfg.CSVDir() != "/csv" {
		t.Errorf("explicit dirs not used: %q %q", cfg.ScriptDir(), cfg.CSVDir())
	}
}

func TestAbsolutize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Dir = "out"
	cfg.Output.CSVDir = "/already/abs"

	if err := cfg.Absolutize(); err != nil {
		t.Fatalf("Absolutize() error = %v", err)
	}

	wd, _ := os.Getwd()
	if cfg.Output.Dir != filepath.Join(wd, "out") {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, filepath.Join(wd, "out"))
	}
	if cfg.Output.CSVDir != "/already/abs" {
		t.Errorf("CSVDir changed to %q", cfg.Output.CSVDir)
	}
	if cfg.Output.ScriptDir != "" {
		t.Errorf("empty ScriptDir should stay empty, got %q", cfg.Output.ScriptDir)
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Output.Dir = filepath.Join(tmpDir, "xml")
	cfg.Output.ScriptDir = filepath.Join(tmpDir, "scripts")
	cfg.Script.Template = "job.pbs"

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}

	for _, dir := range []string{cfg.Output.Dir, cfg.Output.ScriptDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("%s was not created", dir)
		}
	}
}

func TestExpandTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "absolute path", input: "/var/log/test", expected: "/var/log/test"},
		{name: "relative path", input: "data/file", expected: "data/file"},
		{name: "tilde only", input: "~", expected: home},
		{name: "tilde with path", input: "~/runs/xml", expected: filepath.Join(home, "runs/xml")},
		{name: "tilde in middle", input: "/var/~/data", expected: "/var/~/data"}, // should not expand
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandTilde(tt.input)
			if result != tt.expected {
				t.Errorf("expandTilde(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
