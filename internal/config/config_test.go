package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 5, cfg.MaxDepth)
	assert.Equal(t, 50, cfg.CompareLines)
	assert.Equal(t, "[Language files]", cfg.UnittitleText)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 100, cfg.MaxQueueSize)
	assert.Equal(t, 8, cfg.MaxConcurrentFiles)
	assert.Equal(t, int64(52428800), cfg.MaxUploadBytes)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "us-east-1", cfg.S3.Region)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EADTOOL_PORT", "9000")
	t.Setenv("EADTOOL_API_KEY", "secret")
	t.Setenv("EADTOOL_MAX_DEPTH", "8")
	t.Setenv("EADTOOL_JOB_TTL", "15m")
	t.Setenv("EADTOOL_LOG_FORMAT", "json")
	t.Setenv("EADTOOL_S3_ENDPOINT", "http://localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, 15*time.Minute, cfg.JobTTL)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("EADTOOL_WORKER_COUNT", "0")
	t.Setenv("EADTOOL_COMPARE_LINES", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 50, cfg.CompareLines)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.NoError(t, Config{APIKey: "k"}.Validate())
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	log.Info("hidden")
	log.Warn("shown", "file", "a.xml")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"file":"a.xml"`)

	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
}
