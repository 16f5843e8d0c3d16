package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
dispatch:
  call_timeout_seconds: 10
workload:
  average_delivery_minutes: 45
  overload_threshold: 90
audit:
  enabled: true
  path: /tmp/assignments.jsonl
metrics:
  prometheus: true
store:
  seed_path: seed.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Dispatch.CallTimeoutSeconds)
	assert.Equal(t, 45, cfg.Workload.AverageDeliveryMinutes)
	assert.Equal(t, 90.0, cfg.Workload.OverloadThreshold)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "/tmp/assignments.jsonl", cfg.Audit.Path)
	assert.True(t, cfg.Metrics.Prometheus)
	assert.Equal(t, "seed.json", cfg.Store.SeedPath)
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"store": {"seed_path": "fixtures/fleet.json"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fixtures/fleet.json", cfg.Store.SeedPath)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `store: {seed_path: seed.json}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Dispatch.CallTimeoutSeconds)
	assert.Equal(t, 50.0, cfg.Dispatch.Weights.ZoneMatch)
	assert.Equal(t, 30, cfg.Workload.AverageDeliveryMinutes)
	assert.Equal(t, 80.0, cfg.Workload.OverloadThreshold)
	assert.Equal(t, "assignments.log", cfg.Audit.Path)
	assert.Equal(t, 5, cfg.Notifier.MQTT.TimeoutSeconds)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `store: {seed_path: seed.json}`)
	t.Setenv("K_AUDIT__PATH", "/var/log/dispatch.jsonl")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/dispatch.jsonl", cfg.Audit.Path)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", `x = 1`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
