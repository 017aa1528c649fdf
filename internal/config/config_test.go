package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8888, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Server.SessionIdleTimeout)
	assert.Equal(t, "gemini-3-pro-preview", cfg.AI.Gemini.ProModel)
	assert.Equal(t, 0.1, cfg.AI.Gemini.DraftTemperature)
	assert.Equal(t, 4, cfg.Limits.MaxUploadMB)
	assert.Equal(t, "file", cfg.Preferences.Driver)
	assert.Equal(t, 25.0, cfg.Export.DocumentMarginMM)
	assert.True(t, cfg.Inbox.PDF)
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, "lexi.toml", `
[server]
port = 9000

[ai.gemini]
api_key = "from-file"
requests_per_minute = 30
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.AI.Gemini.APIKey)
	assert.Equal(t, 30, cfg.AI.Gemini.RequestsPerMinute)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Gemini.FlashModel)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "lexi.yaml", `
general:
  log_level: debug
preferences:
  driver: postgres
  database_url: postgres://localhost/lexi
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.General.LogLevel)
	assert.Equal(t, "postgres", cfg.Preferences.Driver)
	assert.Equal(t, "postgres://localhost/lexi", cfg.Preferences.DatabaseURL)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeFile(t, "lexi.toml", "[server]\nport = 9000\n")
	t.Setenv("LEXI_SERVER_PORT", "7000")
	t.Setenv("LEXI_AI_GEMINI_API_KEY", "from-env")
	t.Setenv("LEXI_EXPORT_DOCUMENT_MARGIN_MM", "20")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.AI.Gemini.APIKey)
	assert.Equal(t, 20.0, cfg.Export.DocumentMarginMM)
}

func TestLoadConfig_FallbackAPIKey(t *testing.T) {
	path := writeFile(t, "lexi.toml", "")
	t.Setenv("LEXI_AI_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "bare-key")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bare-key", cfg.AI.Gemini.APIKey)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvKeyMapper(t *testing.T) {
	mapper := envKeyMapper([]string{"ai.gemini.api_key", "server.port"})
	assert.Equal(t, "ai.gemini.api_key", mapper("LEXI_AI_GEMINI_API_KEY"))
	assert.Equal(t, "server.port", mapper("LEXI_SERVER_PORT"))
	assert.Equal(t, "custom.thing", mapper("LEXI_CUSTOM_THING"))
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexi.toml")
	require.NoError(t, InitConfig(path))
	assert.Error(t, InitConfig(path), "existing file is not overwritten")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "your-gemini-api-key", cfg.AI.Gemini.APIKey)
	assert.NoError(t, Validate(cfg))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		path := filepath.Join(t.TempDir(), "lexi.toml")
		require.NoError(t, InitConfig(path))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.AI.Gemini.APIKey = "" }},
		{"bad log level", func(c *Config) { c.General.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.General.LogFormat = "xml" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"temperature too high", func(c *Config) { c.AI.Gemini.DraftTemperature = 3 }},
		{"zero upload limit", func(c *Config) { c.Limits.MaxUploadMB = 0 }},
		{"postgres without url", func(c *Config) { c.Preferences.Driver = "postgres" }},
		{"unknown driver", func(c *Config) { c.Preferences.Driver = "redis" }},
		{"zero margin", func(c *Config) { c.Export.ReportMarginMM = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
