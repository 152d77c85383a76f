package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/trialsim/analysis"
)

// Config represents the complete trial simulation configuration
type Config struct {
	Generator GeneratorConfig   `json:"generator" yaml:"generator" toml:"generator"`
	Paths     PathsConfig       `json:"paths" yaml:"paths" toml:"paths"`
	Analysis  analysis.Settings `json:"analysis" yaml:"analysis" toml:"analysis"`
	Journal   JournalConfig     `json:"journal" yaml:"journal" toml:"journal"`
	Runtime   RuntimeConfig     `json:"runtime" yaml:"runtime" toml:"runtime"`
}

// GeneratorConfig contains synthetic data parameters
type GeneratorConfig struct {
	Patients        int     `json:"patients" yaml:"patients" toml:"patients"`
	TreatmentEffect float64 `json:"treatment_effect" yaml:"treatment_effect" toml:"treatment_effect"`
	Seed            uint64  `json:"seed" yaml:"seed" toml:"seed"`
}

// PathsConfig contains the input and output directories
type PathsConfig struct {
	Data    string `json:"data" yaml:"data" toml:"data"`
	Images  string `json:"images" yaml:"images" toml:"images"`
	Results string `json:"results" yaml:"results" toml:"results"`
}

// JournalConfig selects where run results are recorded. The summary CSV
// files are always written; "sqlite" also records the run in DBPath.
type JournalConfig struct {
	Type   string `json:"type" yaml:"type" toml:"type"` // "csv" or "sqlite"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" toml:"db_path,omitempty"`
}

// RuntimeConfig bounds a run.
type RuntimeConfig struct {
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"` // e.g. "30m"; empty means none
}

// ParseTimeout converts the timeout string to a time.Duration
func (r RuntimeConfig) ParseTimeout() (time.Duration, error) {
	if r.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(r.Timeout)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFromFile loads configuration from a file. TOML is chosen by
// extension; anything else is tried as YAML, then JSON. Keys missing from
// the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config (TOML): %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML, TOML or JSON based on extension
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch {
	case isYAML(path):
		data, err = yaml.Marshal(c)
	case isTOML(path):
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Generator.Patients < 0 {
		return fmt.Errorf("generator.patients must be non-negative")
	}
	if c.Paths.Data == "" {
		return fmt.Errorf("paths.data is required")
	}
	if c.Paths.Images == "" {
		return fmt.Errorf("paths.images is required")
	}
	if c.Paths.Results == "" {
		return fmt.Errorf("paths.results is required")
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis.%w", err)
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	if _, err := c.Runtime.ParseTimeout(); err != nil {
		return fmt.Errorf("runtime.timeout: %w", err)
	}
	return nil
}

// Default returns the configuration of the reference simulation: 200
// patients, a treatment effect of 1.7 and seed 42.
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Patients:        200,
			TreatmentEffect: 1.7,
			Seed:            42,
		},
		Paths: PathsConfig{
			Data:    "./data",
			Images:  "./images",
			Results: "./results",
		},
		Analysis: analysis.DefaultSettings(),
		Journal: JournalConfig{
			Type: "csv",
		},
	}
}
