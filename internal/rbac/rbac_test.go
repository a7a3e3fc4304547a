package rbac

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentracore/sentra/internal/audit"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	auditor := audit.NewLogger(audit.NewMemoryStore(0), zerolog.Nop())
	return NewManager(auditor, zerolog.Nop())
}

func TestSystemRolesSeeded(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"administrator", "developer", "reviewer", "readonly"} {
		r, err := m.GetRole(id)
		require.NoError(t, err, id)
		assert.True(t, r.IsSystem, id)
	}
}

func TestSystemRolesImmutable(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"administrator", "developer", "reviewer", "readonly"} {
		err := m.UpdateRole(Role{ID: id, Name: "hijacked"})
		assert.ErrorIs(t, err, ErrSystemRole, "update %s", id)

		err = m.DeleteRole(id)
		assert.ErrorIs(t, err, ErrSystemRole, "delete %s", id)
	}
}

func TestCustomRoleLifecycle(t *testing.T) {
	m := newTestManager(t)
	role := Role{ID: "auditor", Name: "Auditor", Permissions: []Permission{
		{Name: "audit.read", Resource: "*", Action: "read"},
	}}

	require.NoError(t, m.CreateRole(role))
	assert.ErrorIs(t, m.CreateRole(role), ErrExists)

	role.Description = "reads audit logs"
	require.NoError(t, m.UpdateRole(role))

	got, err := m.GetRole("auditor")
	require.NoError(t, err)
	assert.Equal(t, "reads audit logs", got.Description)
	assert.False(t, got.IsSystem)

	require.NoError(t, m.DeleteRole("auditor"))
	_, err = m.GetRole("auditor")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeveloperPermissionScenario(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AssignRole("userA", "developer"))

	assert.True(t, m.HasPermission("userA", "file.read"))
	assert.False(t, m.HasPermission("userA", "security.manage"))
}

func TestNoRolesNoPermissions(t *testing.T) {
	m := newTestManager(t)
	assert.False(t, m.HasPermission("ghost", "file.read"))
	assert.False(t, m.HasAnyPermission("ghost", "file.read", "file.write"))
}

func TestWildcardResourceMatchesAny(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.CreateRole(Role{ID: "scoped", Permissions: []Permission{
		{Name: "db.read", Resource: "orders", Action: "read"},
		{Name: "cache.read", Resource: "*", Action: "read"},
	}}))
	require.NoError(t, m.AssignRole("u", "scoped"))

	assert.True(t, m.HasPermissionOnResource("u", "cache.read", "anything"))
	assert.True(t, m.HasPermissionOnResource("u", "db.read", "orders"))
	assert.False(t, m.HasPermissionOnResource("u", "db.read", "users"))
}

func TestAdministratorWildcardPermission(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AssignRole("root", "administrator"))
	assert.True(t, m.HasPermission("root", "security.manage"))
}

func TestHasAllPermissions(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AssignRole("dev", "developer"))

	assert.True(t, m.HasAllPermissions("dev", "file.read", "file.write"))
	assert.False(t, m.HasAllPermissions("dev", "file.read", "audit.read"))
	assert.False(t, m.HasAllPermissions("dev"))
}

func TestRemoveRoleRevokesPermissions(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AssignRole("u", "readonly"))
	require.True(t, m.HasPermission("u", "file.read"))

	require.NoError(t, m.RemoveRole("u", "readonly"))
	assert.False(t, m.HasPermission("u", "file.read"))
}

func TestDeleteRoleClearsAssignments(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.CreateRole(Role{ID: "temp", Permissions: []Permission{
		{Name: "x.read", Resource: "*", Action: "read"},
	}}))
	require.NoError(t, m.AssignRole("u", "temp"))
	require.NoError(t, m.DeleteRole("temp"))

	assert.False(t, m.HasPermission("u", "x.read"))
	assert.Empty(t, m.RolesOf("u"))
}

func TestUnknownRoleOperations(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.UpdateRole(Role{ID: "nope"}), ErrNotFound)
	assert.ErrorIs(t, m.DeleteRole("nope"), ErrNotFound)
	assert.ErrorIs(t, m.AssignRole("u", "nope"), ErrNotFound)
}

func TestPolicyActivationIdempotent(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.CreatePolicy(Policy{ID: "p1", Type: "dlp", Name: "strict"}))

	require.NoError(t, m.SetPolicyActive("p1", true))
	require.NoError(t, m.SetPolicyActive("p1", true))

	p, err := m.GetPolicy("p1")
	require.NoError(t, err)
	assert.True(t, p.Active)

	assert.True(t, errors.Is(m.SetPolicyActive("nope", true), ErrNotFound))
}

func TestMutationsAreAudited(t *testing.T) {
	store := audit.NewMemoryStore(0)
	m := NewManager(audit.NewLogger(store, zerolog.Nop()), zerolog.Nop())

	require.NoError(t, m.AssignRole("u", "developer"))
	entries, err := store.Query(audit.Filter{EventType: audit.EventRoleChange})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "role_assigned", entries[0].Name)
}
