// Package sandbox runs untrusted code inside isolated environments with
// resource limits, pre-execution screening, and a full audit trail.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
	"github.com/sentracore/sentra/internal/threat"
)

var (
	// ErrNotFound is returned for an unknown sandbox ID.
	ErrNotFound = errors.New("sandbox: not found")
	// ErrUnsupported is returned by strategies that are not implemented
	// on this build.
	ErrUnsupported = errors.New("sandbox: type not supported")
	// ErrNotReady is returned when executing against a sandbox that is
	// not in a runnable state.
	ErrNotReady = errors.New("sandbox: not ready")
)

// ResourceLimits bound what a sandboxed process may consume.
type ResourceLimits struct {
	MaxMemoryMB    int64         `json:"max_memory_mb"`
	MaxCPUPercent  float64       `json:"max_cpu_percent"`
	MaxDiskMB      int64         `json:"max_disk_mb"`
	MaxProcesses   int           `json:"max_processes"`
	MaxFileHandles int           `json:"max_file_handles"`
	Timeout        time.Duration `json:"timeout"`
}

// Usage is a point sample of what an execution actually consumed.
type Usage struct {
	MemoryMB   float64       `json:"memory_mb"`
	CPUPercent float64       `json:"cpu_percent"`
	CPUTime    time.Duration `json:"cpu_time"`
	WallTime   time.Duration `json:"wall_time"`
}

// Violation records a screening hit or a post-hoc limit breach.
type Violation struct {
	Rule        string         `json:"rule"`
	Severity    model.Severity `json:"severity"`
	Description string         `json:"description"`
}

// ExecResult is the outcome of one ExecuteInSandbox call.
type ExecResult struct {
	SandboxID  string        `json:"sandbox_id"`
	Success    bool          `json:"success"`
	ExitCode   int           `json:"exit_code"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	Duration   time.Duration `json:"duration"`
	Usage      Usage         `json:"usage"`
	Violations []Violation   `json:"violations,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Config describes the sandbox to create.
type Config struct {
	Name            string
	Type            model.SandboxType
	Limits          ResourceLimits
	NetworkIsolated bool
	Metadata        map[string]string
}

// Environment is one live sandbox record.
type Environment struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Type            model.SandboxType   `json:"type"`
	Status          model.SandboxStatus `json:"status"`
	Limits          ResourceLimits      `json:"limits"`
	NetworkIsolated bool                `json:"network_isolated"`
	Metadata        map[string]string   `json:"metadata,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	DestroyedAt     *time.Time          `json:"destroyed_at,omitempty"`

	// workDir is the isolated root for filesystem sandboxes.
	workDir string
	// cancelExec kills the in-flight execution, if any.
	cancelExec context.CancelFunc
}

// Screener vets code before any process is spawned.
type Screener interface {
	ScreenCommand(code string) []threat.CommandMatch
}

// Manager owns the active sandbox set. Safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	envs       map[string]*Environment
	strategies map[model.SandboxType]Strategy

	screener Screener
	auditor  *audit.Logger
	log      zerolog.Logger
}

// NewManager wires the strategy registry: process and filesystem are
// live, container and wasm are unsupported stubs.
func NewManager(baseDir string, screener Screener, auditor *audit.Logger, log zerolog.Logger) *Manager {
	return &Manager{
		envs: make(map[string]*Environment),
		strategies: map[model.SandboxType]Strategy{
			model.SandboxProcess:     &processStrategy{},
			model.SandboxFileSystem:  &fileSystemStrategy{baseDir: baseDir},
			model.SandboxContainer:   unsupportedStrategy{kind: model.SandboxContainer},
			model.SandboxWebAssembly: unsupportedStrategy{kind: model.SandboxWebAssembly},
		},
		screener: screener,
		auditor:  auditor,
		log:      log,
	}
}

// CreateSandbox allocates an environment, provisions it, and moves it to
// Ready. Provisioning failure leaves the record in Error and returns the
// error; it is not retried.
func (m *Manager) CreateSandbox(userID string, cfg Config) (*Environment, error) {
	strategy, ok := m.strategy(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("sandbox: unknown type %q", cfg.Type)
	}

	env := &Environment{
		ID:              uuid.NewString(),
		Name:            cfg.Name,
		Type:            cfg.Type,
		Status:          model.StatusCreating,
		Limits:          cfg.Limits,
		NetworkIsolated: cfg.NetworkIsolated,
		Metadata:        cfg.Metadata,
		CreatedAt:       time.Now(),
	}

	m.mu.Lock()
	m.envs[env.ID] = env
	m.mu.Unlock()

	if err := strategy.Provision(env); err != nil {
		m.setStatus(env.ID, model.StatusError)
		m.auditCreate(userID, env, false, err.Error())
		return nil, fmt.Errorf("sandbox: provision %s: %w", cfg.Type, err)
	}

	m.setStatus(env.ID, model.StatusReady)
	m.auditCreate(userID, env, true, "")
	m.log.Info().Str("sandbox", env.ID).Str("type", string(env.Type)).
		Msg("sandbox created")
	return m.snapshot(env.ID)
}

// GetSandbox returns a copy of the environment record.
func (m *Manager) GetSandbox(id string) (*Environment, error) {
	env, err := m.snapshot(id)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// ListSandboxes returns copies of the active environments, newest
// first. Destroyed sandboxes stay queryable by id but are not listed.
func (m *Manager) ListSandboxes() []*Environment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Environment, 0, len(m.envs))
	for _, env := range m.envs {
		if env.Status == model.StatusDestroying || env.Status == model.StatusDestroyed {
			continue
		}
		cp := *env
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// DestroySandbox kills any in-flight execution, tears the sandbox down,
// and removes it from the active set. The record itself is kept so a
// status query on the id still answers Destroyed. Unknown or already
// destroyed ids return false, making the call idempotent.
func (m *Manager) DestroySandbox(userID, id string) bool {
	m.mu.Lock()
	env, ok := m.envs[id]
	if !ok || env.Status == model.StatusDestroying || env.Status == model.StatusDestroyed {
		m.mu.Unlock()
		return false
	}
	env.Status = model.StatusDestroying
	cancel := env.cancelExec
	env.cancelExec = nil
	strategy := m.strategies[env.Type]
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if strategy != nil {
		if err := strategy.Teardown(env); err != nil {
			m.log.Warn().Err(err).Str("sandbox", id).Msg("teardown failed")
		}
	}

	now := time.Now()
	m.mu.Lock()
	env.Status = model.StatusDestroyed
	env.DestroyedAt = &now
	m.mu.Unlock()

	if m.auditor != nil {
		m.auditor.Log(audit.Entry{
			UserID:       userID,
			EventType:    audit.EventSandboxExec,
			Name:         "sandbox_destroyed",
			Description:  "sandbox " + id + " destroyed",
			ResourceType: "sandbox",
			ResourceID:   id,
			Severity:     model.SeverityInfo.String(),
			Success:      true,
		})
	}
	return true
}

func (m *Manager) strategy(t model.SandboxType) (Strategy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.strategies[t]
	return s, ok
}

func (m *Manager) setStatus(id string, st model.SandboxStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if env, ok := m.envs[id]; ok {
		env.Status = st
	}
}

// snapshot returns a copy of the record so callers never share the
// locked struct.
func (m *Manager) snapshot(id string) (*Environment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	env, ok := m.envs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *env
	return &cp, nil
}

func (m *Manager) auditCreate(userID string, env *Environment, success bool, reason string) {
	if m.auditor == nil {
		return
	}
	desc := "sandbox created (" + string(env.Type) + ")"
	sev := model.SeverityInfo
	if !success {
		desc = "sandbox provisioning failed: " + reason
		sev = model.SeverityError
	}
	m.auditor.Log(audit.Entry{
		UserID:       userID,
		EventType:    audit.EventSandboxExec,
		Name:         "sandbox_created",
		Description:  desc,
		ResourceType: "sandbox",
		ResourceID:   env.ID,
		Severity:     sev.String(),
		Success:      success,
	})
}
