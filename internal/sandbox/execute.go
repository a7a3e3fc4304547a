package sandbox

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
)

// ExecuteInSandbox screens code against the dangerous-command catalog
// and, if clear, dispatches it to the sandbox's strategy. Screening hits
// at severity Error or above block execution before any process is
// spawned. Exactly one audit entry is written per call.
func (m *Manager) ExecuteInSandbox(ctx context.Context, userID, id, code string) (*ExecResult, error) {
	m.mu.Lock()
	env, ok := m.envs[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if env.Status != model.StatusReady && env.Status != model.StatusRunning {
		status := env.Status
		m.mu.Unlock()
		res := &ExecResult{
			SandboxID: id,
			Success:   false,
			ExitCode:  -1,
			Error:     fmt.Sprintf("sandbox in state %s", status),
		}
		m.auditExec(userID, id, res, "rejected")
		return res, fmt.Errorf("%w: state %s", ErrNotReady, status)
	}
	env.Status = model.StatusRunning
	strategy := m.strategies[env.Type]
	// Destroy cancels this context to kill whatever is running.
	ctx, cancel := context.WithCancel(ctx)
	env.cancelExec = cancel
	envCopy := *env
	m.mu.Unlock()
	defer cancel()

	start := time.Now()

	if violations := m.screen(code); len(violations) > 0 {
		m.settle(id)
		res := &ExecResult{
			SandboxID:  id,
			Success:    false,
			ExitCode:   -1,
			Duration:   time.Since(start),
			Violations: violations,
			Error:      "execution blocked by security screening",
		}
		m.auditExec(userID, id, res, "blocked")
		m.log.Warn().Str("sandbox", id).Int("violations", len(violations)).
			Msg("execution blocked")
		return res, nil
	}

	if envCopy.Limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, envCopy.Limits.Timeout)
		defer cancel()
	}

	res, err := strategy.Execute(ctx, &envCopy, code)
	if res == nil {
		res = &ExecResult{SandboxID: id, Success: false, ExitCode: -1}
		if err != nil {
			res.Error = err.Error()
		}
	}
	res.SandboxID = id
	res.Duration = time.Since(start)
	res.Violations = append(res.Violations, limitViolations(envCopy.Limits, res.Usage)...)

	// The sandbox may have been destroyed while we ran; settle reports
	// whether it is still live.
	if !m.settle(id) {
		res.Success = false
		res.Error = "sandbox destroyed during execution"
		m.auditExec(userID, id, res, "interrupted")
		return res, fmt.Errorf("sandbox: %s destroyed during execution", id)
	}

	outcome := "ok"
	if !res.Success {
		outcome = "failed"
	}
	m.auditExec(userID, id, res, outcome)
	return res, err
}

// screen collects Error-and-above command matches as violations.
func (m *Manager) screen(code string) []Violation {
	if m.screener == nil {
		return nil
	}
	var out []Violation
	for _, hit := range m.screener.ScreenCommand(code) {
		if hit.Severity < model.SeverityError {
			continue
		}
		out = append(out, Violation{
			Rule:        hit.Rule,
			Severity:    hit.Severity,
			Description: "dangerous command pattern: " + hit.Rule,
		})
	}
	return out
}

// limitViolations compares a usage sample against the configured limits.
// Breaches are warnings; they never flip the execution result.
func limitViolations(limits ResourceLimits, u Usage) []Violation {
	var out []Violation
	if limits.MaxMemoryMB > 0 && u.MemoryMB > float64(limits.MaxMemoryMB) {
		out = append(out, Violation{
			Rule:     "memory limit",
			Severity: model.SeverityWarning,
			Description: fmt.Sprintf("used %.1f MB of %d MB allowed",
				u.MemoryMB, limits.MaxMemoryMB),
		})
	}
	if limits.MaxCPUPercent > 0 && u.CPUPercent > limits.MaxCPUPercent {
		out = append(out, Violation{
			Rule:     "cpu limit",
			Severity: model.SeverityWarning,
			Description: fmt.Sprintf("used %.1f%% of %.1f%% allowed",
				u.CPUPercent, limits.MaxCPUPercent),
		})
	}
	return out
}

// settle moves a still-live sandbox back from Running to Ready and
// reports whether it survived the execution. A destroy that raced the
// execution leaves the record in Destroying or Destroyed.
func (m *Manager) settle(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	env, ok := m.envs[id]
	if !ok {
		return false
	}
	env.cancelExec = nil
	if env.Status == model.StatusRunning {
		env.Status = model.StatusReady
	}
	return env.Status == model.StatusReady
}

func (m *Manager) auditExec(userID, id string, res *ExecResult, outcome string) {
	if m.auditor == nil {
		return
	}
	sev := model.SeverityInfo
	if !res.Success {
		sev = model.SeverityWarning
	}
	if outcome == "blocked" {
		sev = model.SeverityError
	}
	m.auditor.Log(audit.Entry{
		UserID:       userID,
		EventType:    audit.EventSandboxExec,
		Name:         "sandbox_execution",
		Description:  "execution " + outcome,
		ResourceType: "sandbox",
		ResourceID:   id,
		Severity:     sev.String(),
		Success:      res.Success,
		Metadata: map[string]string{
			"outcome":     outcome,
			"exit_code":   strconv.Itoa(res.ExitCode),
			"duration_ms": strconv.FormatInt(res.Duration.Milliseconds(), 10),
			"violations":  strconv.Itoa(len(res.Violations)),
		},
	})
}
