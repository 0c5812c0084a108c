// Package bridge exposes the task façade to asynchronous callers: a
// Dispatcher that turns named commands into futures, and a WebSocket server
// that relays them to a desktop UI.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gitit24x7/EPOQ/internal/tasks"
)

// Command names understood by the Dispatcher.
const (
	CommandTabular      = "run_tabular_processor"
	CommandGPU          = "run_check_gpu"
	CommandSystemInfo   = "run_system_info"
	CommandDependencies = "check_dependencies"
	CommandInference    = "run_inference"
)

// Tasks is the set of operations the Dispatcher can call. *tasks.Facade
// implements it.
type Tasks interface {
	RunTabular(ctx context.Context, req tasks.TabularRequest) (string, error)
	RunInference(ctx context.Context, req tasks.InferenceRequest) (string, error)
	ProbeGPU(ctx context.Context) (string, error)
	ProbeSystemInfo(ctx context.Context) (string, error)
	ProbeDependencies(ctx context.Context) string
}

// Request asks for one command to run. Args is the command's JSON argument
// object and may be empty for the probes.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Response is the single result delivered for a Request.
type Response struct {
	ID       string `json:"id"`
	OK       bool   `json:"ok"`
	Payload  string `json:"payload,omitempty"`
	Error    string `json:"error,omitempty"`
	Canceled bool   `json:"canceled,omitempty"`
}

type handler func(ctx context.Context, args json.RawMessage) (string, error)

// Dispatcher maps command names to façade operations.
type Dispatcher struct {
	handlers map[string]handler
	logger   *log.Logger
}

// NewDispatcher creates a Dispatcher over t. A nil logger discards output.
func NewDispatcher(t Tasks, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	d := &Dispatcher{logger: logger}
	d.handlers = map[string]handler{
		CommandTabular: func(ctx context.Context, args json.RawMessage) (string, error) {
			var req tasks.TabularRequest
			if err := decodeArgs(args, &req); err != nil {
				return "", err
			}
			return t.RunTabular(ctx, req)
		},
		CommandInference: func(ctx context.Context, args json.RawMessage) (string, error) {
			var req tasks.InferenceRequest
			if err := decodeArgs(args, &req); err != nil {
				return "", err
			}
			return t.RunInference(ctx, req)
		},
		CommandGPU: func(ctx context.Context, _ json.RawMessage) (string, error) {
			return t.ProbeGPU(ctx)
		},
		CommandSystemInfo: func(ctx context.Context, _ json.RawMessage) (string, error) {
			return t.ProbeSystemInfo(ctx)
		},
		CommandDependencies: func(ctx context.Context, _ json.RawMessage) (string, error) {
			return t.ProbeDependencies(ctx), nil
		},
	}
	return d
}

// Commands lists the registered command names in lexical order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call starts req on its own goroutine and returns immediately. The
// returned Future resolves exactly once. A request without an ID is
// assigned a random one.
func (d *Dispatcher) Call(ctx context.Context, req Request) *Future {
	if strings.TrimSpace(req.ID) == "" {
		req.ID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(ctx)
	f := &Future{id: req.ID, done: make(chan struct{}), cancel: cancel}

	go func() {
		defer cancel()
		resp := d.execute(ctx, req)
		f.resp = resp
		close(f.done)
	}()
	return f
}

// Do runs req and waits for its response.
func (d *Dispatcher) Do(ctx context.Context, req Request) Response {
	f := d.Call(ctx, req)
	<-f.Done()
	return f.resp
}

func (d *Dispatcher) execute(ctx context.Context, req Request) (resp Response) {
	resp.ID = req.ID
	logger := d.logger.With("id", req.ID, "command", req.Command)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("command panicked", "panic", r)
			resp = Response{ID: req.ID, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	h, ok := d.handlers[req.Command]
	if !ok {
		resp.Error = fmt.Sprintf("unknown command: %s", req.Command)
		return resp
	}

	logger.Debug("command started")
	payload, err := h(ctx, req.Args)
	if err != nil {
		resp.Error = err.Error()
		var taskErr *tasks.TaskError
		if errors.As(err, &taskErr) {
			resp.Canceled = taskErr.Canceled
		}
		logger.Debug("command failed", "err", err)
		return resp
	}

	resp.OK = true
	resp.Payload = payload
	logger.Debug("command finished", "bytes", len(payload))
	return resp
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// Future is the pending result of a Dispatcher call.
type Future struct {
	id     string
	done   chan struct{}
	resp   Response
	cancel context.CancelFunc
}

// ID returns the request ID the response will carry.
func (f *Future) ID() string {
	return f.id
}

// Done is closed once the response is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the response is available or ctx ends. Abandoning the
// wait does not cancel the call; use Cancel for that.
func (f *Future) Wait(ctx context.Context) (Response, error) {
	select {
	case <-f.done:
		return f.resp, nil
	case <-ctx.Done():
		return Response{}, fmt.Errorf("waiting for %s: %w", f.id, ctx.Err())
	}
}

// Cancel stops the call, killing its child process if one is running. The
// future still resolves, with a failed response.
func (f *Future) Cancel() {
	f.cancel()
}
