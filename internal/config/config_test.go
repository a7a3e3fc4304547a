package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	// Missing explicit file is an error only when a path was given.
	require.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
	assert.Equal(t, int64(512), cfg.Sandbox.MaxMemoryMB)
	assert.True(t, cfg.Sandbox.NetworkIsolated)
}

func TestLoadYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentra.yaml")
	data := []byte("data_dir: " + dir + "\nlog:\n  level: debug\nsession:\n  ttl: 2h\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "logs", "audit.jsonl"), cfg.AuditFilePath())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SENTRA_LOG_LEVEL", "warn")
	t.Setenv("SENTRA_AUDIT_FILE_PATH", "/tmp/x.jsonl")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/x.jsonl", cfg.AuditFilePath())
}

func TestValidateRejectsBadTTL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentra.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  ttl: -1s\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
