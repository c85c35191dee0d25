package config

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"YNAB_MCP_CONFIG", "YNAB_TOKEN", "MCP_TRANSPORT", "PORT", "LOG_LEVEL",
		"YNAB_API_URL", "YNAB_HTTP_TIMEOUT", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW", "METRICS_EXPORTER",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("YNAB_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://api.ynab.com/v1", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 200, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, "otlp", cfg.MetricsExporter)
	assert.Equal(t, ":8081", cfg.HealthAddr())
	assert.Equal(t, ":8080", cfg.MCPAddr())
}

func TestLoadRequiresToken(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	assert.ErrorContains(t, err, "YNAB_TOKEN")
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("YNAB_TOKEN", "secret")
	t.Setenv("MCP_TRANSPORT", "HTTP")
	t.Setenv("PORT", "9000")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("METRICS_EXPORTER", "prometheus")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "prometheus", cfg.MetricsExporter)
}

func TestLoadJoinsErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "abc")
	t.Setenv("MCP_TRANSPORT", "grpc")
	t.Setenv("YNAB_HTTP_TIMEOUT", "-1s")

	_, err := Load()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "YNAB_TOKEN")
	assert.Contains(t, msg, "PORT")
	assert.Contains(t, msg, "transport")
	assert.Contains(t, msg, "http_timeout")
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ynab-mcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport: http
port: 9100
http_timeout: 10s
rate_limit:
  max_requests: 50
  window: 30m
`), 0o600))
	t.Setenv("YNAB_MCP_CONFIG", path)
	t.Setenv("YNAB_TOKEN", "secret")
	t.Setenv("PORT", "9200")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, 9200, cfg.Port, "environment wins over file")
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 50, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 30*time.Minute, cfg.RateLimit.Window)
}

func TestLoadFileUnknownField(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: nope\n"), 0o600))
	t.Setenv("YNAB_MCP_CONFIG", path)
	t.Setenv("YNAB_TOKEN", "secret")

	_, err := Load()
	assert.ErrorContains(t, err, "parsing config file")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

type captureHandler struct {
	records []slog.Record
}

func (c *captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (c *captureHandler) Handle(_ context.Context, r slog.Record) error {
	c.records = append(c.records, r)
	return nil
}
func (c *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c *captureHandler) WithGroup(string) slog.Handler      { return c }

func TestSetupLoggingTee(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	capture := &captureHandler{}
	logger := SetupLogging("warn", &buf, nil, capture)

	logger.Info("dropped by json handler")
	logger.Warn("kept", "tool", "list_budgets")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "list_budgets", line["tool"])

	assert.Len(t, capture.records, 2)
}
