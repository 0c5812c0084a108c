// Package tasks builds the argument lists for each external Python task,
// runs them through the interpreter fallback and normalizes the result into
// either a text payload or a task-labeled error.
package tasks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gitit24x7/EPOQ/internal/system"
)

// BackendDir is the directory below the resource directory holding the
// task scripts.
const BackendDir = "python_backend"

// Kind names one external task.
type Kind string

const (
	KindTabular      Kind = "tabular"
	KindGPU          Kind = "gpu"
	KindSystemInfo   Kind = "system_info"
	KindDependencies Kind = "dependencies"
	KindInference    Kind = "inference"
)

// Kinds lists every task in display order.
func Kinds() []Kind {
	return []Kind{KindTabular, KindGPU, KindSystemInfo, KindDependencies, KindInference}
}

// Definition describes how a task is launched and how its output is treated.
type Definition struct {
	Kind Kind
	// Script is relative to <resource dir>/python_backend; empty for inline probes.
	Script string
	// Label prefixes failure messages.
	Label string
	// Trim strips leading and trailing whitespace from the payload.
	Trim bool
	// RequireOutput turns an empty payload from a clean exit into a failure.
	RequireOutput bool
}

var definitions = map[Kind]Definition{
	KindTabular:      {Kind: KindTabular, Script: "tabular_processor.py", Label: "Tabular processing failed"},
	KindGPU:          {Kind: KindGPU, Script: "check_gpu.py", Label: "GPU detection failed", Trim: true, RequireOutput: true},
	KindSystemInfo:   {Kind: KindSystemInfo, Script: "system_info.py", Label: "System info failed", Trim: true, RequireOutput: true},
	KindDependencies: {Kind: KindDependencies, Label: "Dependency check failed", Trim: true, RequireOutput: true},
	KindInference:    {Kind: KindInference, Script: "inference.py", Label: "Inference failed", Trim: true, RequireOutput: true},
}

// TaskError is the caller-facing failure of a task. Error() renders as
// "<label>: <message>" so a UI can tell which task failed.
type TaskError struct {
	Task     Kind
	Label    string
	Message  string
	Canceled bool
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %s", e.Label, e.Message)
}

// invalidRequest labels a request rejected before any process was started.
func invalidRequest(kind Kind, err error) *TaskError {
	d := definitions[kind]
	return &TaskError{Task: kind, Label: d.Label, Message: "invalid request: " + err.Error()}
}

// Invoker runs an argument list under an ordered list of interpreters.
// *system.Orchestrator implements it.
type Invoker interface {
	Invoke(ctx context.Context, candidates system.Candidates, args ...string) system.Outcome
}

// Facade is the per-task command layer. It holds no per-call state and is
// safe for concurrent use.
type Facade struct {
	invoker     Invoker
	candidates  system.Candidates
	resourceDir string
	logger      *log.Logger
}

// New creates a Facade. Scripts are resolved below resourceDir.
func New(invoker Invoker, candidates system.Candidates, resourceDir string, logger *log.Logger) *Facade {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Facade{
		invoker:     invoker,
		candidates:  candidates.Clone(),
		resourceDir: resourceDir,
		logger:      logger,
	}
}

// ResourceDir returns the base directory scripts are resolved against.
func (f *Facade) ResourceDir() string {
	return f.resourceDir
}

// Candidates returns a copy of the interpreter candidates.
func (f *Facade) Candidates() system.Candidates {
	return f.candidates.Clone()
}

// ScriptPath returns the location of a task script. It does not touch the
// filesystem.
func (f *Facade) ScriptPath(kind Kind) string {
	d := definitions[kind]
	if d.Script == "" {
		return ""
	}
	return filepath.Join(f.resourceDir, BackendDir, d.Script)
}

// ProbeGPU runs check_gpu.py and returns its trimmed output.
func (f *Facade) ProbeGPU(ctx context.Context) (string, error) {
	return f.run(ctx, KindGPU, []string{f.ScriptPath(KindGPU)})
}

// ProbeSystemInfo runs system_info.py and returns its trimmed JSON.
func (f *Facade) ProbeSystemInfo(ctx context.Context) (string, error) {
	return f.run(ctx, KindSystemInfo, []string{f.ScriptPath(KindSystemInfo)})
}

func (f *Facade) run(ctx context.Context, kind Kind, args []string) (string, error) {
	d := definitions[kind]
	logger := f.logger.With("task", string(kind))

	outcome := f.invoker.Invoke(ctx, f.candidates.Clone(), args...)
	if !outcome.Accepted {
		logger.Debug("task rejected", "attempts", len(outcome.Attempts), "err", outcome.Err)
		return "", &TaskError{Task: kind, Label: d.Label, Message: outcome.Err, Canceled: outcome.Canceled}
	}

	payload := outcome.Output
	if d.Trim {
		payload = strings.TrimSpace(payload)
	}
	if d.RequireOutput && strings.TrimSpace(payload) == "" {
		logger.Debug("task produced no output")
		return "", &TaskError{Task: kind, Label: d.Label, Message: "script produced no output"}
	}

	logger.Debug("task accepted", "bytes", len(payload))
	return payload, nil
}
