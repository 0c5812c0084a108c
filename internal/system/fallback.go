package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// AttemptKind classifies how a single candidate attempt ended.
type AttemptKind int

const (
	AttemptLaunchFailed AttemptKind = iota
	AttemptExitFailed
	AttemptSucceeded
)

func (k AttemptKind) String() string {
	switch k {
	case AttemptLaunchFailed:
		return "launch-failed"
	case AttemptExitFailed:
		return "exit-failed"
	case AttemptSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Attempt records one candidate tried by the Orchestrator.
type Attempt struct {
	Candidate string
	Kind      AttemptKind
	ExitCode  int
	Message   string
}

// Outcome is the single result of an Orchestrator invocation: either
// accepted output from the first clean run, or the last recorded error.
type Outcome struct {
	Accepted bool
	Output   string
	Err      string
	// Canceled is set when the caller's context ended the invocation.
	Canceled bool
	Attempts []Attempt
}

// Orchestrator tries interpreter candidates in order until one runs cleanly.
type Orchestrator struct {
	runner CommandRunner
	logger *log.Logger
}

// NewOrchestrator creates an Orchestrator. A nil logger discards output.
func NewOrchestrator(runner CommandRunner, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Orchestrator{runner: runner, logger: logger}
}

// Invoke runs args under each candidate in order. The first candidate that
// launches and exits 0 wins and later candidates are never started, even if
// its output is empty. Candidates are tried strictly one at a time.
func (o *Orchestrator) Invoke(ctx context.Context, candidates Candidates, args ...string) Outcome {
	var outcome Outcome

	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			return canceled(outcome, err)
		}

		result, err := o.runner.Run(ctx, name, args...)
		if err != nil {
			var launchErr *LaunchError
			if !errors.As(err, &launchErr) && ctx.Err() != nil {
				return canceled(outcome, ctx.Err())
			}
			o.logger.Debug("candidate unavailable", "candidate", name, "err", err)
			outcome.Err = err.Error()
			outcome.Attempts = append(outcome.Attempts, Attempt{
				Candidate: name,
				Kind:      AttemptLaunchFailed,
				Message:   outcome.Err,
			})
			continue
		}

		if result.Success() {
			o.logger.Debug("candidate succeeded", "candidate", name, "stdout_bytes", len(result.Stdout))
			outcome.Accepted = true
			outcome.Output = result.Stdout
			outcome.Err = ""
			outcome.Attempts = append(outcome.Attempts, Attempt{
				Candidate: name,
				Kind:      AttemptSucceeded,
			})
			return outcome
		}

		outcome.Err = FailureMessage(name, result)
		o.logger.Debug("candidate failed", "candidate", name, "exit_code", result.ExitCode)
		outcome.Attempts = append(outcome.Attempts, Attempt{
			Candidate: name,
			Kind:      AttemptExitFailed,
			ExitCode:  result.ExitCode,
			Message:   outcome.Err,
		})
	}

	return outcome
}

func canceled(outcome Outcome, err error) Outcome {
	outcome.Accepted = false
	outcome.Canceled = true
	outcome.Err = err.Error()
	return outcome
}

// FailureMessage picks the diagnostic for a non-zero exit: stderr when it has
// content, otherwise stdout, otherwise a message naming the exit code.
func FailureMessage(name string, result *ProcessResult) string {
	if strings.TrimSpace(result.Stderr) != "" {
		return result.Stderr
	}
	if strings.TrimSpace(result.Stdout) != "" {
		return result.Stdout
	}
	return fmt.Sprintf("%s exited with code %d", name, result.ExitCode)
}
