// Package threat is the pattern- and behavior-based threat engine: it
// scores activity against a rule catalog, derives behavioral anomalies
// from the audit trail, screens content for malware traits, assesses
// operation risk, and tracks security incidents.
package threat

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
	"github.com/sentracore/sentra/internal/rules"
)

// rapidActivityThreshold is how many actions within the trailing minute
// count as anomalously rapid.
const rapidActivityThreshold = 30

// pattern is a compiled threat rule.
type pattern struct {
	name        string
	re          *regexp.Regexp
	level       model.ThreatLevel
	description string
	mitigations []string
}

// Engine evaluates threats. Safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	patterns []pattern
	malware  []pattern
	badHash  map[string]bool
	commands []commandPattern

	activityMu sync.Mutex
	activity   map[string][]time.Time

	incidentMu sync.RWMutex
	incidents  map[string]*Incident

	auditor *audit.Logger
	log     zerolog.Logger
	now     func() time.Time
}

// commandPattern is a dangerous-command rule used by the sandbox
// pre-execution screen.
type commandPattern struct {
	name     string
	re       *regexp.Regexp
	severity model.Severity
}

// NewEngine compiles the catalog and returns a ready Engine.
func NewEngine(cat *rules.Catalog, auditor *audit.Logger, log zerolog.Logger) (*Engine, error) {
	e := &Engine{
		activity:  make(map[string][]time.Time),
		incidents: make(map[string]*Incident),
		auditor:   auditor,
		log:       log,
		now:       time.Now,
	}
	if err := e.SetCatalog(cat); err != nil {
		return nil, err
	}
	return e, nil
}

// SetCatalog swaps in a (re)loaded rule catalog.
func (e *Engine) SetCatalog(cat *rules.Catalog) error {
	patterns, err := compileThreatRules(cat.Threat)
	if err != nil {
		return err
	}
	malware, err := compileThreatRules(cat.MalwareCalls)
	if err != nil {
		return err
	}

	var commands []commandPattern
	for _, r := range cat.Commands {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("threat: compile command rule %q: %w", r.Name, err)
		}
		commands = append(commands, commandPattern{
			name:     r.Name,
			re:       re,
			severity: model.ParseSeverity(r.Severity),
		})
	}

	badHash := make(map[string]bool, len(cat.MalwareHashes))
	for _, h := range cat.MalwareHashes {
		badHash[h] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.patterns = patterns
	e.malware = malware
	e.commands = commands
	e.badHash = badHash
	return nil
}

func compileThreatRules(specs []rules.ThreatRule) ([]pattern, error) {
	var out []pattern
	for _, r := range specs {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("threat: compile rule %q: %w", r.Name, err)
		}
		out = append(out, pattern{
			name:        r.Name,
			re:          re,
			level:       model.ParseThreatLevel(r.Severity),
			description: r.Description,
			mitigations: r.Mitigations,
		})
	}
	return out, nil
}

// levelSeverity maps an ordinal threat level onto the 0-1 indicator
// severity scale.
func levelSeverity(l model.ThreatLevel) float64 {
	switch l {
	case model.ThreatCritical:
		return 1.0
	case model.ThreatHigh:
		return 0.75
	case model.ThreatMedium:
		return 0.5
	case model.ThreatLow:
		return 0.25
	default:
		return 0
	}
}
