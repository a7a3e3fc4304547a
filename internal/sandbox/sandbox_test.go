package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
	"github.com/sentracore/sentra/internal/rules"
	"github.com/sentracore/sentra/internal/threat"
)

func newTestManager(t *testing.T) (*Manager, *audit.MemoryStore) {
	t.Helper()
	store := audit.NewMemoryStore(1000)
	auditor := audit.NewLogger(store, zerolog.Nop())
	engine, err := threat.NewEngine(rules.Default(), auditor, zerolog.Nop())
	require.NoError(t, err)
	return NewManager(t.TempDir(), engine, auditor, zerolog.Nop()), store
}

func TestProcessSandboxLifecycle(t *testing.T) {
	m, store := newTestManager(t)

	env, err := m.CreateSandbox("alice", Config{Name: "build", Type: model.SandboxProcess})
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, env.Status)

	res, err := m.ExecuteInSandbox(context.Background(), "alice", env.ID, "echo hello")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "hello")
	assert.Positive(t, res.Duration)

	got, err := m.GetSandbox(env.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, got.Status)

	entries, err := store.Query(audit.Filter{EventType: audit.EventSandboxExec})
	require.NoError(t, err)
	assert.Len(t, entries, 2) // create + execute
}

func TestDangerousCommandBlocked(t *testing.T) {
	m, store := newTestManager(t)

	env, err := m.CreateSandbox("alice", Config{Name: "x", Type: model.SandboxProcess})
	require.NoError(t, err)

	res, err := m.ExecuteInSandbox(context.Background(), "alice", env.ID, "rm -rf /")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, -1, res.ExitCode)
	assert.Empty(t, res.Stdout, "no process may be spawned")
	require.NotEmpty(t, res.Violations)

	var blocked bool
	for _, v := range res.Violations {
		if v.Severity >= model.SeverityError {
			blocked = true
		}
	}
	assert.True(t, blocked, "expected an error-severity violation")

	entries, err := store.Query(audit.Filter{EventType: audit.EventSandboxExec, Search: "blocked"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNonZeroExitCode(t *testing.T) {
	m, _ := newTestManager(t)

	env, err := m.CreateSandbox("alice", Config{Name: "x", Type: model.SandboxProcess})
	require.NoError(t, err)

	res, err := m.ExecuteInSandbox(context.Background(), "alice", env.ID, "exit 3")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecutionTimeoutKillsChild(t *testing.T) {
	m, _ := newTestManager(t)

	env, err := m.CreateSandbox("alice", Config{
		Name:   "x",
		Type:   model.SandboxProcess,
		Limits: ResourceLimits{Timeout: 100 * time.Millisecond},
	})
	require.NoError(t, err)

	start := time.Now()
	res, err := m.ExecuteInSandbox(context.Background(), "alice", env.ID, "sleep 10")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, res.Error, "cancelled")
}

func TestFileSystemSandbox(t *testing.T) {
	m, _ := newTestManager(t)

	env, err := m.CreateSandbox("alice", Config{Name: "fs", Type: model.SandboxFileSystem})
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, env.Status)

	res, err := m.ExecuteInSandbox(context.Background(), "alice", env.ID,
		"echo data > out.txt && cat out.txt")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Stdout, "data")

	assert.True(t, m.DestroySandbox("alice", env.ID))
}

func TestUnsupportedTypesErrorOut(t *testing.T) {
	m, _ := newTestManager(t)

	for _, typ := range []model.SandboxType{model.SandboxContainer, model.SandboxWebAssembly} {
		_, err := m.CreateSandbox("alice", Config{Name: "stub", Type: typ})
		require.ErrorIs(t, err, ErrUnsupported)
	}

	for _, env := range m.ListSandboxes() {
		assert.Equal(t, model.StatusError, env.Status)

		_, err := m.ExecuteInSandbox(context.Background(), "alice", env.ID, "echo hi")
		assert.ErrorIs(t, err, ErrNotReady)
	}
}

func TestDestroyIdempotent(t *testing.T) {
	m, _ := newTestManager(t)

	assert.False(t, m.DestroySandbox("alice", "missing"))

	env, err := m.CreateSandbox("alice", Config{Name: "x", Type: model.SandboxProcess})
	require.NoError(t, err)

	assert.True(t, m.DestroySandbox("alice", env.ID))
	assert.False(t, m.DestroySandbox("alice", env.ID))
}

func TestDestroyedSandboxStaysQueryable(t *testing.T) {
	m, _ := newTestManager(t)

	env, err := m.CreateSandbox("alice", Config{Name: "x", Type: model.SandboxProcess})
	require.NoError(t, err)
	require.True(t, m.DestroySandbox("alice", env.ID))

	got, err := m.GetSandbox(env.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDestroyed, got.Status)
	require.NotNil(t, got.DestroyedAt)

	_, err = m.ExecuteInSandbox(context.Background(), "alice", env.ID, "echo hi")
	assert.ErrorIs(t, err, ErrNotReady)

	for _, listed := range m.ListSandboxes() {
		assert.NotEqual(t, env.ID, listed.ID, "destroyed sandbox must leave the active set")
	}
}

func TestDestroyDuringExecution(t *testing.T) {
	m, _ := newTestManager(t)

	env, err := m.CreateSandbox("alice", Config{Name: "x", Type: model.SandboxProcess})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	var execErr error
	var res *ExecResult
	go func() {
		defer wg.Done()
		res, execErr = m.ExecuteInSandbox(context.Background(), "alice", env.ID, "sleep 60")
	}()

	time.Sleep(100 * time.Millisecond)
	killed := time.Now()
	assert.True(t, m.DestroySandbox("alice", env.ID))
	wg.Wait()
	assert.Less(t, time.Since(killed), 10*time.Second, "destroy must kill the running process")

	require.Error(t, execErr)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.True(t, strings.Contains(res.Error, "destroyed"))

	got, err := m.GetSandbox(env.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDestroyed, got.Status)
}

func TestFileSystemSandboxSpacedBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "work dir")
	require.NoError(t, os.MkdirAll(base, 0o755))

	store := audit.NewMemoryStore(0)
	auditor := audit.NewLogger(store, zerolog.Nop())
	engine, err := threat.NewEngine(rules.Default(), auditor, zerolog.Nop())
	require.NoError(t, err)
	m := NewManager(base, engine, auditor, zerolog.Nop())

	env, err := m.CreateSandbox("alice", Config{Name: "fs", Type: model.SandboxFileSystem})
	require.NoError(t, err)

	res, err := m.ExecuteInSandbox(context.Background(), "alice", env.ID, "echo spaced")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Stdout, "spaced")
}

func TestUnknownSandboxType(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.CreateSandbox("alice", Config{Name: "x", Type: model.SandboxType("vm")})
	require.Error(t, err)
}
