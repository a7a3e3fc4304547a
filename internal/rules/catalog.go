// Package rules holds the externalized, versioned rule catalogs that feed
// the threat engine, the DLP scanner, and the sandbox screener. Catalogs
// load from YAML with a compiled-in default fallback and can be hot
// reloaded while the process runs.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sentracore/sentra/internal/model"
)

// ThreatRule is one pattern the threat engine matches against activity.
type ThreatRule struct {
	Name        string         `yaml:"name"`
	Kind        model.RuleKind `yaml:"kind"`
	Pattern     string         `yaml:"pattern"`
	Severity    string         `yaml:"severity"`
	Description string         `yaml:"description"`
	Mitigations []string       `yaml:"mitigations,omitempty"`
}

// DLPRule is one sensitive-data pattern. Bundle groups rules into the
// built-in policies ("pii" or "secrets").
type DLPRule struct {
	Name        string `yaml:"name"`
	Bundle      string `yaml:"bundle"`
	Pattern     string `yaml:"pattern"`
	Sensitivity string `yaml:"sensitivity"`
}

// CommandRule is one dangerous-command pattern screened before sandbox
// execution. Matches at severity error and above block execution.
type CommandRule struct {
	Name     string `yaml:"name"`
	Pattern  string `yaml:"pattern"`
	Severity string `yaml:"severity"`
}

// Catalog is the full versioned rule set.
type Catalog struct {
	Version int `yaml:"version"`

	Threat   []ThreatRule  `yaml:"threat"`
	DLP      []DLPRule     `yaml:"dlp"`
	Commands []CommandRule `yaml:"commands"`

	// MalwareHashes are SHA-256 digests of known-bad content (kind hash).
	MalwareHashes []string `yaml:"malware_hashes"`
	// MalwareCalls are suspicious function-call patterns (kind regex).
	MalwareCalls []ThreatRule `yaml:"malware_calls"`
}

// Load reads a catalog from a YAML file. An empty path or a missing file
// falls back to the compiled-in defaults; a malformed file is an error.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the catalog as YAML, making the compiled-in defaults
// exportable as an editable starting point.
func (c *Catalog) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("rules: marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("rules: write %s: %w", path, err)
	}
	return nil
}
