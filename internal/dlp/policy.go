// Package dlp detects, classifies, and redacts sensitive data. Detection
// is driven by pattern policies: the built-in PII bundle redacts, the
// built-in Secrets bundle blocks.
package dlp

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
	"github.com/sentracore/sentra/internal/rules"
)

// Rule is one compiled sensitive-data pattern.
type Rule struct {
	Name        string
	Sensitivity model.Sensitivity
	re          *regexp.Regexp
}

// Policy is an ordered rule bundle with an enforcement action.
type Policy struct {
	ID     string
	Name   string
	Action model.PolicyAction
	Active bool
	Rules  []Rule
}

// Scanner applies every active policy's rules to content.
type Scanner struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	order    []string

	auditor *audit.Logger
	log     zerolog.Logger
}

// NewScanner builds a Scanner with the catalog's PII and Secrets bundles
// active.
func NewScanner(cat *rules.Catalog, auditor *audit.Logger, log zerolog.Logger) (*Scanner, error) {
	s := &Scanner{
		policies: make(map[string]*Policy),
		auditor:  auditor,
		log:      log,
	}
	if err := s.SetCatalog(cat); err != nil {
		return nil, err
	}
	return s, nil
}

// SetCatalog rebuilds the built-in policies from a (re)loaded catalog.
// Custom policies are left untouched.
func (s *Scanner) SetCatalog(cat *rules.Catalog) error {
	pii := &Policy{ID: "builtin-pii", Name: "PII", Action: model.ActionRedact, Active: true}
	secrets := &Policy{ID: "builtin-secrets", Name: "Secrets", Action: model.ActionBlock, Active: true}

	for _, r := range cat.DLP {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("dlp: compile rule %q: %w", r.Name, err)
		}
		rule := Rule{Name: r.Name, Sensitivity: model.ParseSensitivity(r.Sensitivity), re: re}
		switch r.Bundle {
		case "secrets":
			secrets.Rules = append(secrets.Rules, rule)
		default:
			pii.Rules = append(pii.Rules, rule)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[pii.ID] = pii
	s.policies[secrets.ID] = secrets
	s.order = orderedIDs(s.policies, []string{pii.ID, secrets.ID})
	return nil
}

// AddPolicy registers a custom policy. Patterns are compiled here; a bad
// pattern rejects the whole policy.
func (s *Scanner) AddPolicy(id, name string, action model.PolicyAction, ruleSpecs []rules.DLPRule) error {
	p := &Policy{ID: id, Name: name, Action: action, Active: true}
	for _, r := range ruleSpecs {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("dlp: compile rule %q: %w", r.Name, err)
		}
		p.Rules = append(p.Rules, Rule{Name: r.Name, Sensitivity: model.ParseSensitivity(r.Sensitivity), re: re})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[id]; ok {
		return fmt.Errorf("dlp: policy %q already exists", id)
	}
	s.policies[id] = p
	s.order = append(s.order, id)
	return nil
}

// RemovePolicy deletes a policy. Unknown ids are a no-op.
func (s *Scanner) RemovePolicy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.policies, id)
	s.order = orderedIDs(s.policies, s.order)
}

// SetPolicyActive flips a policy's active flag.
func (s *Scanner) SetPolicyActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[id]
	if !ok {
		return fmt.Errorf("dlp: policy %q not found", id)
	}
	p.Active = active
	return nil
}

// Policies returns a snapshot of the registered policies in order.
func (s *Scanner) Policies() []Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Policy, 0, len(s.order))
	for _, id := range s.order {
		if p, ok := s.policies[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// orderedIDs keeps prior ordering for ids that still exist, appending any
// new ones.
func orderedIDs(policies map[string]*Policy, prior []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range prior {
		if _, ok := policies[id]; ok && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for id := range policies {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}
