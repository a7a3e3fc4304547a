package rbac

import (
	"fmt"

	"github.com/sentracore/sentra/internal/audit"
)

// Policy is a named, activatable rule bundle. Policies carry no built-in
// evaluation logic; they exist to be queried by enforcement layers.
type Policy struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// CreatePolicy registers a policy.
func (m *Manager) CreatePolicy(p Policy) error {
	if p.ID == "" {
		return fmt.Errorf("rbac: policy id must not be empty")
	}

	m.mu.Lock()
	if _, ok := m.policies[p.ID]; ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: policy %q", ErrExists, p.ID)
	}
	m.policies[p.ID] = &p
	m.mu.Unlock()

	m.auditPolicyChange("policy_created", p.ID)
	return nil
}

// GetPolicy returns a copy of the policy.
func (m *Manager) GetPolicy(id string) (Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[id]
	if !ok {
		return Policy{}, fmt.Errorf("%w: policy %q", ErrNotFound, id)
	}
	return *p, nil
}

// ListPolicies returns copies of all policies.
func (m *Manager) ListPolicies() []Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Policy, 0, len(m.policies))
	for _, p := range m.policies {
		out = append(out, *p)
	}
	return out
}

// SetPolicyActive flips the active flag. Idempotent: setting the current
// state succeeds without a second audit entry.
func (m *Manager) SetPolicyActive(id string, active bool) error {
	m.mu.Lock()
	p, ok := m.policies[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: policy %q", ErrNotFound, id)
	}
	changed := p.Active != active
	p.Active = active
	m.mu.Unlock()

	if changed {
		name := "policy_deactivated"
		if active {
			name = "policy_activated"
		}
		m.auditPolicyChange(name, id)
	}
	return nil
}

func (m *Manager) auditPolicyChange(name, policyID string) {
	if m.auditor == nil {
		return
	}
	m.auditor.Log(audit.Entry{
		EventType:    audit.EventPolicyChange,
		Category:     "rbac",
		Name:         name,
		Description:  name + " " + policyID,
		ResourceType: "policy",
		ResourceID:   policyID,
		Success:      true,
	})
}

func auditSessionEntry(userID, name string, success bool) audit.Entry {
	return audit.Entry{
		UserID:      userID,
		EventType:   audit.EventSession,
		Category:    "rbac",
		Name:        name,
		Description: name + " for " + userID,
		Success:     success,
	}
}
