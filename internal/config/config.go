// Package config loads sentra configuration with layered precedence:
// struct defaults, then an optional YAML file, then SENTRA_ environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. SENTRA_LOG_LEVEL=debug.
const EnvPrefix = "SENTRA_"

// DefaultConfigPaths lists the config file search order. The first file
// found wins.
var DefaultConfigPaths = []string{
	"sentra.yaml",
	"sentra.yml",
}

// Config is the full sentra configuration tree.
type Config struct {
	DataDir string        `koanf:"data_dir"`
	Log     LogConfig     `koanf:"log"`
	Audit   AuditConfig   `koanf:"audit"`
	Session SessionConfig `koanf:"session"`
	Sandbox SandboxConfig `koanf:"sandbox"`
	Rules   RulesConfig   `koanf:"rules"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AuditConfig controls the audit trail.
type AuditConfig struct {
	// FilePath is the append-only JSONL audit file. Empty means
	// <data_dir>/logs/audit.jsonl.
	FilePath string `koanf:"file_path"`
	// SQLitePath, when set, mirrors entries into a SQLite store.
	SQLitePath string `koanf:"sqlite_path"`
	// MaxMemoryEntries bounds the in-memory store (oldest evicted).
	// Zero disables eviction.
	MaxMemoryEntries int `koanf:"max_memory_entries"`
}

// SessionConfig controls security sessions.
type SessionConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// SandboxConfig carries the default resource limits for new sandboxes.
type SandboxConfig struct {
	WorkDir         string        `koanf:"work_dir"`
	ExecTimeout     time.Duration `koanf:"exec_timeout"`
	MaxMemoryMB     int64         `koanf:"max_memory_mb"`
	MaxCPUPercent   float64       `koanf:"max_cpu_percent"`
	MaxDiskMB       int64         `koanf:"max_disk_mb"`
	MaxProcesses    int           `koanf:"max_processes"`
	MaxFileHandles  int           `koanf:"max_file_handles"`
	NetworkIsolated bool          `koanf:"network_isolated"`
}

// RulesConfig points at externalized rule catalogs. Empty paths mean the
// compiled-in defaults.
type RulesConfig struct {
	CatalogPath string `koanf:"catalog_path"`
	Watch       bool   `koanf:"watch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Audit: AuditConfig{
			MaxMemoryEntries: 100000,
		},
		Session: SessionConfig{
			TTL: 8 * time.Hour,
		},
		Sandbox: SandboxConfig{
			ExecTimeout:     60 * time.Second,
			MaxMemoryMB:     512,
			MaxCPUPercent:   80,
			MaxDiskMB:       1024,
			MaxProcesses:    32,
			MaxFileHandles:  256,
			NetworkIsolated: true,
		},
	}
}

// Load builds a Config from defaults, the given file (or the first default
// path that exists when path is empty), and SENTRA_ env vars.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AuditFilePath resolves the effective audit JSONL path.
func (c *Config) AuditFilePath() string {
	if c.Audit.FilePath != "" {
		return c.Audit.FilePath
	}
	return filepath.Join(c.DataDir, "logs", "audit.jsonl")
}

// SandboxWorkDir resolves the root directory for filesystem sandboxes.
func (c *Config) SandboxWorkDir() string {
	if c.Sandbox.WorkDir != "" {
		return c.Sandbox.WorkDir
	}
	return filepath.Join(c.DataDir, "sandboxes")
}

func (c *Config) validate() error {
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Sandbox.ExecTimeout <= 0 {
		return fmt.Errorf("config: sandbox.exec_timeout must be positive, got %s", c.Sandbox.ExecTimeout)
	}
	if c.Audit.MaxMemoryEntries < 0 {
		return fmt.Errorf("config: audit.max_memory_entries must not be negative, got %d", c.Audit.MaxMemoryEntries)
	}
	return nil
}

// envTransform maps SENTRA_AUDIT_FILE_PATH to audit.file_path. Single-word
// top-level keys (data_dir) keep their underscore.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"log", "audit", "session", "sandbox", "rules"} {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return s
}

func findConfigFile() string {
	paths := DefaultConfigPaths
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".sentra", "sentra.yaml"))
	}
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sentra")
	}
	return filepath.Join(home, ".sentra")
}
