package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "extract.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int64(25*1024*1024), cfg.Extraction.MaxUploadBytes)
	assert.InDelta(t, 0.7, cfg.Extraction.HybridConfidence, 1e-9)
	assert.Equal(t, 6, cfg.Extraction.HybridMinFields)
	assert.Equal(t, 3, cfg.Extraction.ProviderMaxAttempts)
	assert.Equal(t, 60, cfg.Textract.TimeoutSecs)
	assert.Equal(t, 60, cfg.Vision.TimeoutSecs)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EXTRACT_STORE_DRIVER", "postgres")
	t.Setenv("EXTRACT_TEXTRACT_ACCESS_KEY_ID", "AKIA-TEST")
	t.Setenv("EXTRACT_VISION_API_KEY", "vision-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "AKIA-TEST", cfg.Textract.AccessKeyID)
	assert.Equal(t, "vision-key", cfg.Vision.APIKey)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "verbose"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
