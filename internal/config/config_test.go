package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeBatch, cfg.Mode)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "gst-invoice-extractor", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultEnvFile, cfg.EnvFile)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.PDFDirectory)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"default", func(c *Config) {}, ""},
		{"stdio without output", func(c *Config) { c.Mode = ModeStdio; c.OutputDirectory = "" }, ""},
		{"single with one input", func(c *Config) { c.Mode = ModeSingle; c.Inputs = []string{"a.pdf"} }, ""},
		{"azure configured", func(c *Config) {
			c.OCREngine = EngineAzure
			c.AzureEndpoint = "https://example.invalid"
			c.AzureKey = "k"
		}, ""},
		{"unknown mode", func(c *Config) { c.Mode = "server" }, "mode must be one of"},
		{"empty directory", func(c *Config) { c.PDFDirectory = "" }, "PDF directory cannot be empty"},
		{"batch without output", func(c *Config) { c.OutputDirectory = "" }, "output directory cannot be empty"},
		{"negative preview", func(c *Config) { c.PreviewRows = -1 }, "preview rows"},
		{"blank language", func(c *Config) { c.OCRLanguage = "  " }, "OCR language"},
		{"negative min text", func(c *Config) { c.MinTextLength = -1 }, "minimum text length"},
		{"zero min text", func(c *Config) { c.MinTextLength = 0 }, "minimum text length must be at least 1"},
		{"dpi too high", func(c *Config) { c.DPI = 2400 }, "dpi must be between"},
		{"azure missing endpoint", func(c *Config) { c.OCREngine = EngineAzure; c.AzureKey = "k" }, "endpoint and a key"},
		{"zero max size", func(c *Config) { c.MaxFileSize = 0 }, "must be positive"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.LogFormat = "yaml" }, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
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

func TestConfigValidateLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		assert.NoError(t, cfg.Validate(), level)
		assert.Equal(t, level == "debug", cfg.IsDebug())
	}
}

func TestConfigEnsureOutputDirectory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDirectory = filepath.Join(t.TempDir(), "reports", "april")

	require.NoError(t, cfg.EnsureOutputDirectory())
	info, err := os.Stat(cfg.OutputDirectory)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Existing directories are fine.
	assert.NoError(t, cfg.EnsureOutputDirectory())
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AzureKey = "super-secret"

	s := cfg.String()
	assert.Contains(t, s, "Mode: batch")
	assert.Contains(t, s, "OCR: tesseract/eng")
	assert.Contains(t, s, "AzureKey: ***")
	assert.NotContains(t, s, "super-secret")
}

func TestConfigModes(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.IsStdioMode())
	assert.False(t, cfg.IsSingleMode())

	cfg.Mode = ModeStdio
	assert.True(t, cfg.IsStdioMode())

	cfg.Mode = ModeSingle
	assert.True(t, cfg.IsSingleMode())
}
