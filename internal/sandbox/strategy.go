package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sentracore/sentra/internal/model"
)

// Strategy is the type-specific execution backend.
type Strategy interface {
	Provision(env *Environment) error
	Execute(ctx context.Context, env *Environment, code string) (*ExecResult, error)
	Teardown(env *Environment) error
}

// processStrategy runs code as a shell child process with captured
// stdio. Context cancellation kills the child.
type processStrategy struct{}

func (processStrategy) Provision(env *Environment) error {
	if _, err := exec.LookPath("sh"); err != nil {
		return fmt.Errorf("no shell available: %w", err)
	}
	return nil
}

func (processStrategy) Execute(ctx context.Context, env *Environment, code string) (*ExecResult, error) {
	return runShell(ctx, env.workDir, code)
}

func (processStrategy) Teardown(*Environment) error { return nil }

// fileSystemStrategy gives the sandbox an isolated root directory. Code
// is written to run.sh inside it and executed with that directory as
// the working directory.
type fileSystemStrategy struct {
	baseDir string
}

func (s *fileSystemStrategy) Provision(env *Environment) error {
	base := s.baseDir
	if base == "" {
		base = os.TempDir()
	}
	dir, err := os.MkdirTemp(base, "sandbox-"+env.ID[:8]+"-")
	if err != nil {
		return fmt.Errorf("create sandbox root: %w", err)
	}
	env.workDir = dir
	return nil
}

func (s *fileSystemStrategy) Execute(ctx context.Context, env *Environment, code string) (*ExecResult, error) {
	if env.workDir == "" {
		return nil, errors.New("sandbox root not provisioned")
	}
	script := filepath.Join(env.workDir, "run.sh")
	if err := os.WriteFile(script, []byte(code), 0o700); err != nil {
		return nil, fmt.Errorf("write run script: %w", err)
	}
	// The script is invoked by argv, not through sh -c, so the path
	// survives whitespace in the work directory.
	return runCommand(ctx, env.workDir, "sh", script)
}

func (s *fileSystemStrategy) Teardown(env *Environment) error {
	if env.workDir == "" {
		return nil
	}
	return os.RemoveAll(env.workDir)
}

// unsupportedStrategy is the registered stub for backend types that are
// declared but not implemented. Provision fails, so environments of
// these types land in Error.
type unsupportedStrategy struct {
	kind model.SandboxType
}

func (u unsupportedStrategy) Provision(*Environment) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, u.kind)
}

func (u unsupportedStrategy) Execute(context.Context, *Environment, string) (*ExecResult, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, u.kind)
}

func (unsupportedStrategy) Teardown(*Environment) error { return nil }

// runShell executes code under sh -c with captured stdio and samples
// resource usage from the exited process.
func runShell(ctx context.Context, dir, code string) (*ExecResult, error) {
	return runCommand(ctx, dir, "sh", "-c", code)
}

func runCommand(ctx context.Context, dir, name string, args ...string) (*ExecResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	wall := time.Since(start)

	res := &ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case err == nil:
		res.Success = true
		res.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		res.Error = err.Error()
	}
	if ctx.Err() != nil {
		res.Error = "execution cancelled: " + ctx.Err().Error()
	}

	res.Usage = sampleUsage(cmd.ProcessState, wall)
	return res, nil
}

// sampleUsage is a point sample taken after the process exits: peak RSS
// and CPU time from rusage, CPU percent as time on one core over wall
// time.
func sampleUsage(ps *os.ProcessState, wall time.Duration) Usage {
	u := Usage{WallTime: wall}
	if ps == nil {
		return u
	}
	u.CPUTime = ps.UserTime() + ps.SystemTime()
	if wall > 0 {
		u.CPUPercent = float64(u.CPUTime) / float64(wall) * 100
	}
	if ru, ok := ps.SysUsage().(*syscall.Rusage); ok && ru != nil {
		// Linux reports Maxrss in kilobytes.
		u.MemoryMB = float64(ru.Maxrss) / 1024
	}
	return u
}
