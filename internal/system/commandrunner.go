package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// defaultWaitDelay bounds how long Wait keeps draining output after the
// child exits or its context is cancelled.
const defaultWaitDelay = 5 * time.Second

// CommandRunner launches one external process and waits for it to finish.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (*ProcessResult, error)
}

// ProcessResult holds the decoded output streams and exit status of a
// finished process.
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the process exited with status 0.
func (r *ProcessResult) Success() bool {
	return r.ExitCode == 0
}

// LaunchError is returned when an executable cannot be found or spawned.
// A process that ran and exited non-zero is not a LaunchError.
type LaunchError struct {
	Name string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Name, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExecCommandRunner runs commands directly with os/exec. Arguments are passed
// as discrete argv tokens and never go through a shell.
type ExecCommandRunner struct {
	// Dir is the working directory of launched processes (empty = inherit).
	Dir string
	// Env is appended to the inherited environment.
	Env []string
	// WaitDelay overrides defaultWaitDelay when positive.
	WaitDelay time.Duration
}

// NewCommandRunner returns the default os/exec backed runner.
func NewCommandRunner() *ExecCommandRunner {
	return &ExecCommandRunner{}
}

// Run starts the command and blocks until it exits and both output streams
// are drained. Cancelling ctx kills the child.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) (*ProcessResult, error) {
	p, err := r.Start(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return p.Wait()
}

// Start spawns the command without waiting for it. The returned Process is
// the handle callers use to wait for, or kill, the child.
func (r *ExecCommandRunner) Start(ctx context.Context, name string, args ...string) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("not starting %s: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	cmd.WaitDelay = defaultWaitDelay
	if r.WaitDelay > 0 {
		cmd.WaitDelay = r.WaitDelay
	}

	p := &Process{ctx: ctx, name: name, cmd: cmd}
	cmd.Stdout = &p.stdout
	cmd.Stderr = &p.stderr

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Name: name, Err: err}
	}
	return p, nil
}

// Process is a running child started by ExecCommandRunner.Start.
type Process struct {
	ctx    context.Context
	name   string
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// Pid returns the operating system process id of the child.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Kill terminates the child immediately.
func (p *Process) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill %s (pid %d): %w", p.name, p.Pid(), err)
	}
	return nil
}

// Wait blocks until the child exits. A non-zero exit is reported through
// ProcessResult.ExitCode, not as an error. Wait must be called once.
func (p *Process) Wait() (*ProcessResult, error) {
	waitErr := p.cmd.Wait()

	result := &ProcessResult{
		Stdout: DecodeOutput(p.stdout.Bytes()),
		Stderr: DecodeOutput(p.stderr.Bytes()),
	}

	if waitErr == nil || errors.Is(waitErr, exec.ErrWaitDelay) {
		return result, nil
	}

	if ctxErr := p.ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s interrupted: %w", p.name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return result, fmt.Errorf("failed waiting for %s: %w", p.name, waitErr)
}
