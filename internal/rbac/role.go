// Package rbac implements role-based access control: roles with
// permissions, user-role assignments, security sessions with MFA gating,
// and activatable security policies. Every mutating operation emits one
// audit entry.
package rbac

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentracore/sentra/internal/audit"
)

var (
	// ErrSystemRole is returned when a caller tries to mutate or delete a
	// seeded system role. Non-retryable.
	ErrSystemRole = errors.New("rbac: system roles are immutable")
	// ErrNotFound is returned for operations on unknown role or policy ids.
	ErrNotFound = errors.New("rbac: not found")
	// ErrExists is returned when creating a role with an id already in use.
	ErrExists = errors.New("rbac: already exists")
)

// Permission grants an action on a resource. Resource "*" matches any
// requested resource.
type Permission struct {
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Role is a named permission bundle. System roles are seeded at startup
// and immutable for the process lifetime.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	IsSystem    bool         `json:"is_system"`
	Permissions []Permission `json:"permissions"`
}

// Manager owns roles, user-role assignments, sessions, and policies.
// All maps are guarded by mu; the manager is safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	roles     map[string]*Role
	userRoles map[string]map[string]bool // user id -> set of role ids
	sessions  map[string]*Session
	policies  map[string]*Policy

	sessionTTL time.Duration
	auditor    *audit.Logger
	log        zerolog.Logger
}

// NewManager creates a Manager with the system roles seeded.
func NewManager(auditor *audit.Logger, log zerolog.Logger) *Manager {
	m := &Manager{
		roles:      make(map[string]*Role),
		userRoles:  make(map[string]map[string]bool),
		sessions:   make(map[string]*Session),
		policies:   make(map[string]*Policy),
		sessionTTL: defaultSessionTTL,
		auditor:    auditor,
		log:        log,
	}
	for _, r := range systemRoles() {
		m.roles[r.ID] = r
	}
	return m
}

// systemRoles returns the seeded immutable roles.
func systemRoles() []*Role {
	return []*Role{
		{
			ID: "administrator", Name: "Administrator", IsSystem: true,
			Description: "full access to every resource",
			Permissions: []Permission{{Name: "*", Resource: "*", Action: "*"}},
		},
		{
			ID: "developer", Name: "Developer", IsSystem: true,
			Description: "develop and execute code in sandboxes",
			Permissions: []Permission{
				{Name: "file.read", Resource: "*", Action: "read"},
				{Name: "file.write", Resource: "*", Action: "write"},
				{Name: "sandbox.execute", Resource: "*", Action: "execute"},
				{Name: "provider.access", Resource: "*", Action: "invoke"},
			},
		},
		{
			ID: "reviewer", Name: "Reviewer", IsSystem: true,
			Description: "read code and audit history",
			Permissions: []Permission{
				{Name: "file.read", Resource: "*", Action: "read"},
				{Name: "audit.read", Resource: "*", Action: "read"},
			},
		},
		{
			ID: "readonly", Name: "ReadOnly", IsSystem: true,
			Description: "read-only access",
			Permissions: []Permission{
				{Name: "file.read", Resource: "*", Action: "read"},
			},
		},
	}
}

// CreateRole registers a new custom role.
func (m *Manager) CreateRole(r Role) error {
	if r.ID == "" {
		return fmt.Errorf("rbac: role id must not be empty")
	}
	r.IsSystem = false

	m.mu.Lock()
	if _, ok := m.roles[r.ID]; ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: role %q", ErrExists, r.ID)
	}
	m.roles[r.ID] = &r
	m.mu.Unlock()

	m.auditRoleChange("", "role_created", r.ID, true)
	return nil
}

// UpdateRole replaces a custom role's name, description, and permissions.
// System roles cannot be updated.
func (m *Manager) UpdateRole(r Role) error {
	m.mu.Lock()
	existing, ok := m.roles[r.ID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: role %q", ErrNotFound, r.ID)
	}
	if existing.IsSystem {
		m.mu.Unlock()
		m.auditRoleChange("", "role_update_denied", r.ID, false)
		return fmt.Errorf("%w: %q", ErrSystemRole, r.ID)
	}
	existing.Name = r.Name
	existing.Description = r.Description
	existing.Permissions = append([]Permission(nil), r.Permissions...)
	m.mu.Unlock()

	m.auditRoleChange("", "role_updated", r.ID, true)
	return nil
}

// DeleteRole removes a custom role and all assignments of it. System
// roles cannot be deleted.
func (m *Manager) DeleteRole(id string) error {
	m.mu.Lock()
	existing, ok := m.roles[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: role %q", ErrNotFound, id)
	}
	if existing.IsSystem {
		m.mu.Unlock()
		m.auditRoleChange("", "role_delete_denied", id, false)
		return fmt.Errorf("%w: %q", ErrSystemRole, id)
	}
	delete(m.roles, id)
	for _, assigned := range m.userRoles {
		delete(assigned, id)
	}
	m.mu.Unlock()

	m.auditRoleChange("", "role_deleted", id, true)
	return nil
}

// GetRole returns a copy of the role.
func (m *Manager) GetRole(id string) (Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role %q", ErrNotFound, id)
	}
	return *r, nil
}

// ListRoles returns copies of all roles.
func (m *Manager) ListRoles() []Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, *r)
	}
	return out
}

// AssignRole grants a role to a user.
func (m *Manager) AssignRole(userID, roleID string) error {
	m.mu.Lock()
	if _, ok := m.roles[roleID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: role %q", ErrNotFound, roleID)
	}
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[string]bool)
	}
	m.userRoles[userID][roleID] = true
	m.mu.Unlock()

	m.auditRoleChange(userID, "role_assigned", roleID, true)
	return nil
}

// RemoveRole revokes a role from a user. Removing an unassigned role is a
// no-op.
func (m *Manager) RemoveRole(userID, roleID string) error {
	m.mu.Lock()
	if _, ok := m.roles[roleID]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: role %q", ErrNotFound, roleID)
	}
	delete(m.userRoles[userID], roleID)
	m.mu.Unlock()

	m.auditRoleChange(userID, "role_removed", roleID, true)
	return nil
}

// RolesOf returns the ids of the roles assigned to a user.
func (m *Manager) RolesOf(userID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for id := range m.userRoles[userID] {
		out = append(out, id)
	}
	return out
}

// HasPermission reports whether any role assigned to the user carries the
// named permission on any resource. Users with no assigned roles have no
// permissions.
func (m *Manager) HasPermission(userID, permission string) bool {
	return m.HasPermissionOnResource(userID, permission, "")
}

// HasPermissionOnResource reports whether the user holds the named
// permission scoped to the given resource. A permission with resource "*"
// matches any requested resource; an empty requested resource matches any
// scope.
func (m *Manager) HasPermissionOnResource(userID, permission, resource string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for roleID := range m.userRoles[userID] {
		role, ok := m.roles[roleID]
		if !ok {
			continue
		}
		for _, p := range role.Permissions {
			if p.Name != permission && p.Name != "*" {
				continue
			}
			if p.Resource == "*" || resource == "" || p.Resource == resource {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission reports whether the user holds at least one of the
// named permissions.
func (m *Manager) HasAnyPermission(userID string, permissions ...string) bool {
	for _, p := range permissions {
		if m.HasPermission(userID, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the user holds every named permission.
func (m *Manager) HasAllPermissions(userID string, permissions ...string) bool {
	for _, p := range permissions {
		if !m.HasPermission(userID, p) {
			return false
		}
	}
	return len(permissions) > 0
}

func (m *Manager) auditRoleChange(userID, name, roleID string, success bool) {
	if m.auditor == nil {
		return
	}
	m.auditor.Log(audit.Entry{
		UserID:       userID,
		EventType:    audit.EventRoleChange,
		Category:     "rbac",
		Name:         name,
		Description:  name + " " + roleID,
		ResourceType: "role",
		ResourceID:   roleID,
		Success:      success,
	})
}
