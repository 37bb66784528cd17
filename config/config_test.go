package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default configuration", func(t *testing.T) {
		cfg, err := Load("")

		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "release", cfg.Server.Mode)
		assert.Equal(t, "*", cfg.Server.FrontendURL)

		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Empty(t, cfg.Log.File)

		assert.Equal(t, SourceFile, cfg.Models.Heart.Source)
		assert.Equal(t, "artifacts/heart_pipeline.json", cfg.Models.Heart.Path)
		assert.Equal(t, "artifacts/diabetes_pipeline.json", cfg.Models.Diabetes.Path)

		assert.False(t, cfg.OCR.Enabled)
		assert.Equal(t, "tesseract", cfg.OCR.Binary)
	})

	t.Run("reads YAML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `
server:
  port: 9000
  mode: debug
log:
  level: debug
  format: console
models:
  heart:
    source: remote
    url: http://models:8000/heart
    timeout: 2s
ocr:
  enabled: true
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "debug", cfg.Server.Mode)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, SourceRemote, cfg.Models.Heart.Source)
		assert.Equal(t, "http://models:8000/heart", cfg.Models.Heart.URL)
		assert.Equal(t, 2*time.Second, cfg.Models.Heart.Timeout)
		// untouched sections keep their defaults
		assert.Equal(t, SourceFile, cfg.Models.Diabetes.Source)
		assert.True(t, cfg.OCR.Enabled)
		assert.Equal(t, "eng", cfg.OCR.Lang)
	})

	t.Run("reads from environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("FRONTEND_URL", "https://example.app")
		t.Setenv("RISK_LOG_LEVEL", "debug")
		t.Setenv("RISK_DIABETES_SOURCE", "remote")
		t.Setenv("RISK_DIABETES_URL", "http://localhost:8001")
		t.Setenv("RISK_DIABETES_TIMEOUT", "750ms")
		t.Setenv("RISK_OCR_ENABLED", "true")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "https://example.app", cfg.Server.FrontendURL)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, SourceRemote, cfg.Models.Diabetes.Source)
		assert.Equal(t, "http://localhost:8001", cfg.Models.Diabetes.URL)
		assert.Equal(t, 750*time.Millisecond, cfg.Models.Diabetes.Timeout)
		assert.True(t, cfg.OCR.Enabled)
	})

	t.Run("rejects malformed environment values", func(t *testing.T) {
		t.Setenv("PORT", "eighty")

		_, err := Load("")

		assert.Error(t, err)
	})

	t.Run("rejects unknown server mode from environment", func(t *testing.T) {
		t.Setenv("RISK_SERVER_MODE", "production")

		_, err := Load("")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "production")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

		assert.Error(t, err)
	})

	t.Run("invalid YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o600))

		_, err := Load(path)

		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "port",
		},
		{
			name:   "test mode is accepted",
			mutate: func(c *Config) { c.Server.Mode = "test" },
		},
		{
			name:    "unknown server mode",
			mutate:  func(c *Config) { c.Server.Mode = "production" },
			wantErr: "server mode",
		},
		{
			name:    "empty server mode",
			mutate:  func(c *Config) { c.Server.Mode = "" },
			wantErr: "server mode",
		},
		{
			name:    "remote without url",
			mutate:  func(c *Config) { c.Models.Heart.Source = SourceRemote },
			wantErr: "models.heart: url is required",
		},
		{
			name:    "file without path",
			mutate:  func(c *Config) { c.Models.Diabetes.Path = "" },
			wantErr: "models.diabetes: path is required",
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Models.Heart.Source = "s3" },
			wantErr: "unknown source",
		},
		{
			name:    "empty source",
			mutate:  func(c *Config) { c.Models.Diabetes.Source = "" },
			wantErr: "source is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
