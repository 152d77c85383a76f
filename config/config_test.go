package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 200, cfg.Generator.Patients)
	assert.Equal(t, 1.7, cfg.Generator.TreatmentEffect)
	assert.Equal(t, uint64(42), cfg.Generator.Seed)
	assert.Equal(t, uint64(123), cfg.Analysis.Primary.Options.Seed)
	assert.Equal(t, uint64(456), cfg.Analysis.Biomarker.Options.Seed)
	assert.Equal(t, 2, cfg.Analysis.Biomarker.Options.Chains)
	assert.Equal(t, 1000, cfg.Analysis.Biomarker.Options.Iterations)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "zero patients is allowed",
			mutate:  func(c *Config) { c.Generator.Patients = 0 },
			wantErr: false,
		},
		{
			name:    "negative patients",
			mutate:  func(c *Config) { c.Generator.Patients = -1 },
			wantErr: true,
			errMsg:  "generator.patients must be non-negative",
		},
		{
			name:    "missing data dir",
			mutate:  func(c *Config) { c.Paths.Data = "" },
			wantErr: true,
			errMsg:  "paths.data is required",
		},
		{
			name:    "missing results dir",
			mutate:  func(c *Config) { c.Paths.Results = "" },
			wantErr: true,
			errMsg:  "paths.results is required",
		},
		{
			name:    "bad credible level",
			mutate:  func(c *Config) { c.Analysis.CredibleLevel = 0 },
			wantErr: true,
			errMsg:  "analysis.credible_level",
		},
		{
			name:    "bad biomarker chains",
			mutate:  func(c *Config) { c.Analysis.Biomarker.Options.Chains = 0 },
			wantErr: true,
			errMsg:  "analysis.biomarker.options",
		},
		{
			name:    "unknown journal",
			mutate:  func(c *Config) { c.Journal.Type = "kafka" },
			wantErr: true,
			errMsg:  "journal.type must be 'csv' or 'sqlite'",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Journal.Type = "sqlite" },
			wantErr: true,
			errMsg:  "journal db_path required",
		},
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.Runtime.Timeout = "soon" },
			wantErr: true,
			errMsg:  "runtime.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
		{"yml format", ".yml"},
		{"toml format", ".toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Generator.Patients = 120
			cfg.Journal = JournalConfig{Type: "sqlite", DBPath: "runs.db"}
			cfg.Runtime.Timeout = "10m"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"yaml", "partial.yaml", "generator:\n  patients: 50\n"},
		{"json", "partial.json", `{"generator": {"patients": 50}}`},
		{"toml", "partial.toml", "[generator]\npatients = 50\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			cfg, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, 50, cfg.Generator.Patients)
			assert.Equal(t, 1.7, cfg.Generator.TreatmentEffect)
			assert.Equal(t, "./results", cfg.Paths.Results)
			assert.Equal(t, 0.95, cfg.Analysis.CredibleLevel)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator:\n  patients: -5\n"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid config")

	path = filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("generator = ["), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "TOML")
}

func TestRuntimeParseTimeout(t *testing.T) {
	tests := []struct {
		timeout  string
		expected string
		wantErr  bool
	}{
		{"1h", "1h0m0s", false},
		{"30m", "30m0s", false},
		{"", "0s", false},
		{"invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.timeout, func(t *testing.T) {
			d, err := RuntimeConfig{Timeout: tt.timeout}.ParseTimeout()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d.String())
			}
		})
	}
}
