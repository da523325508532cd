package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every FINHEALTH_* variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5173, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadBytes)

				assert.Equal(t, "", cfg.Scoring.BaseURL)
				assert.Equal(t, "http://localhost:8000", cfg.Scoring.DevBaseURL)
				assert.Equal(t, "X-API-Key", cfg.Scoring.APIKeyHeader)
				assert.Equal(t, "dev-key", cfg.Scoring.DefaultAPIKey)
				assert.Equal(t, time.Duration(0), cfg.Scoring.RequestTimeout)
				assert.False(t, cfg.Scoring.DiscardStale)

				assert.Equal(t, "en", cfg.Console.DefaultLanguage)
				assert.Equal(t, "Services", cfg.Console.DefaultIndustry)
				assert.Equal(t, "full", cfg.Console.Panels)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"FINHEALTH_SERVER_PORT":              "9000",
				"FINHEALTH_SCORING_BASE_URL":         "https://scoring.example.com/",
				"FINHEALTH_SCORING_DISCARD_STALE":    "true",
				"FINHEALTH_CONSOLE_PANELS":           "reduced",
				"FINHEALTH_CONSOLE_DEFAULT_LANGUAGE": "HI",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "https://scoring.example.com", cfg.Scoring.BaseURL)
				assert.True(t, cfg.Scoring.DiscardStale)
				assert.Equal(t, "reduced", cfg.Console.Panels)
				assert.Equal(t, "hi", cfg.Console.DefaultLanguage)
			},
		},
		{
			name: "file values apply when env is unset",
			file: `
server:
  port: 7070
scoring:
  base_url: https://file.example.com
  discard_stale: true
console:
  panels: reduced
  default_industry: Retail
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "https://file.example.com", cfg.Scoring.BaseURL)
				assert.True(t, cfg.Scoring.DiscardStale)
				assert.Equal(t, "reduced", cfg.Console.Panels)
				assert.Equal(t, "Retail", cfg.Console.DefaultIndustry)
			},
		},
		{
			name: "env wins over file",
			env:  map[string]string{"FINHEALTH_SERVER_PORT": "9100"},
			file: "server:\n  port: 7070\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9100, cfg.Server.Port)
			},
		},
		{
			name:    "invalid panel set",
			env:     map[string]string{"FINHEALTH_CONSOLE_PANELS": "everything"},
			wantErr: true,
		},
		{
			name:    "invalid industry",
			env:     map[string]string{"FINHEALTH_CONSOLE_DEFAULT_INDUSTRY": "Mining"},
			wantErr: true,
		},
		{
			name:    "invalid port",
			env:     map[string]string{"FINHEALTH_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [port",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
				t.Setenv("FINHEALTH_CONFIG_FILE", path)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultDevBaseURL, cfg.Scoring.DevBaseURL)
	assert.Equal(t, DefaultAPIKeyHeader, cfg.Scoring.APIKeyHeader)
	assert.Equal(t, PanelsFull, cfg.Console.Panels)
	assert.Equal(t, LanguageEnglish, cfg.Console.DefaultLanguage)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "bad base url", mutate: func(c *Config) { c.Scoring.BaseURL = "not a url" }, wantErr: true},
		{name: "empty dev url", mutate: func(c *Config) { c.Scoring.DevBaseURL = "" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Scoring.RequestTimeout = -time.Second }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "sample ratio above one", mutate: func(c *Config) { c.Telemetry.SampleRatio = 2 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
