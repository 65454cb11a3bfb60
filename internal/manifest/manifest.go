// Package manifest writes a summary of one splitter invocation: which
// experiments were expanded, how, and which files were produced.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahrenberg/split-nlogo-experiment/internal/sweep"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Manifest is the invocation summary.
type Manifest struct {
	BatchID     string       `json:"batch_id" yaml:"batch_id" toml:"batch_id"`
	Model       string       `json:"model" yaml:"model" toml:"model"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at" toml:"created_at"`
	Experiments []Experiment `json:"experiments" yaml:"experiments" toml:"experiments"`
	Unmatched   []string     `json:"unmatched,omitempty" yaml:"unmatched,omitempty" toml:"unmatched,omitempty"`
}

// Experiment summarizes one expanded experiment.
type Experiment struct {
	Name        string           `json:"name" yaml:"name" toml:"name"`
	Repetitions int              `json:"repetitions" yaml:"repetitions" toml:"repetitions"`
	Split       sweep.Split      `json:"split" yaml:"split" toml:"split"`
	Variables   []sweep.Variable `json:"variables,omitempty" yaml:"variables,omitempty" toml:"variables,omitempty"`
	Runs        int              `json:"runs" yaml:"runs" toml:"runs"`
	SetupFiles  []string         `json:"setup_files" yaml:"setup_files" toml:"setup_files"`
	RunTable    string           `json:"run_table,omitempty" yaml:"run_table,omitempty" toml:"run_table,omitempty"`
	Scripts     []string         `json:"scripts,omitempty" yaml:"scripts,omitempty" toml:"scripts,omitempty"`
	Warnings    []string         `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
}

// Format is a manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatForPath picks the encoding from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported manifest extension %q (use .yaml, .yml, .toml or .json)", filepath.Ext(path))
	}
}

// Marshal encodes m in the given format.
func Marshal(m *Manifest, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(m)
	case FormatTOML:
		return toml.Marshal(m)
	case FormatJSON:
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown manifest format %q", format)
	}
}

// Unmarshal decodes data in the given format.
func Unmarshal(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		err = fmt.Errorf("unknown manifest format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Write encodes m by the extension of path and writes it.
func Write(path string, m *Manifest) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(m, format)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// Load reads a manifest written by Write.
func Load(path string) (*Manifest, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return m, nil
}
