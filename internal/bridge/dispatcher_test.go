package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitit24x7/EPOQ/internal/tasks"
)

// fakeTasks records calls and can block until its context ends.
type fakeTasks struct {
	mu       sync.Mutex
	tabular  []tasks.TabularRequest
	infer    []tasks.InferenceRequest
	gpu      string
	gpuErr   error
	block    bool
	started  chan struct{}
	panicked bool
}

func (f *fakeTasks) RunTabular(ctx context.Context, req tasks.TabularRequest) (string, error) {
	f.mu.Lock()
	f.tabular = append(f.tabular, req)
	f.mu.Unlock()
	return "rows=3", nil
}

func (f *fakeTasks) RunInference(ctx context.Context, req tasks.InferenceRequest) (string, error) {
	f.mu.Lock()
	f.infer = append(f.infer, req)
	f.mu.Unlock()
	return `{"label":"cat"}`, nil
}

func (f *fakeTasks) ProbeGPU(ctx context.Context) (string, error) {
	if f.panicked {
		panic("boom")
	}
	if f.block {
		if f.started != nil {
			close(f.started)
		}
		<-ctx.Done()
		return "", &tasks.TaskError{Task: tasks.KindGPU, Label: "GPU detection failed", Message: ctx.Err().Error(), Canceled: true}
	}
	return f.gpu, f.gpuErr
}

func (f *fakeTasks) ProbeSystemInfo(ctx context.Context) (string, error) {
	return `{"os":"Linux"}`, nil
}

func (f *fakeTasks) ProbeDependencies(ctx context.Context) string {
	return `{"python":false,"version":null,"pandas":false,"sklearn":false,"torch":false,"error":"x"}`
}

func TestDispatcherCommands(t *testing.T) {
	d := NewDispatcher(&fakeTasks{}, nil)
	assert.Equal(t, []string{
		CommandDependencies,
		CommandGPU,
		CommandInference,
		CommandSystemInfo,
		CommandTabular,
	}, d.Commands())
}

func TestDispatcherSuccess(t *testing.T) {
	d := NewDispatcher(&fakeTasks{gpu: "CUDA available"}, nil)

	resp := d.Do(context.Background(), Request{ID: "r1", Command: CommandGPU})
	assert.Equal(t, Response{ID: "r1", OK: true, Payload: "CUDA available"}, resp)
}

func TestDispatcherAssignsID(t *testing.T) {
	d := NewDispatcher(&fakeTasks{}, nil)

	f := d.Call(context.Background(), Request{Command: CommandSystemInfo})
	_, err := uuid.Parse(f.ID())
	require.NoError(t, err)

	resp, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.ID(), resp.ID)
	assert.True(t, resp.OK)
}

func TestDispatcherDecodesArgs(t *testing.T) {
	ft := &fakeTasks{}
	d := NewDispatcher(ft, nil)

	resp := d.Do(context.Background(), Request{
		Command: CommandTabular,
		Args:    json.RawMessage(`{"file":"/data/x.csv","action":"describe","params":"{\"n\":5}"}`),
	})
	require.True(t, resp.OK, resp.Error)
	require.Len(t, ft.tabular, 1)
	assert.Equal(t, "/data/x.csv", ft.tabular[0].File)
	require.NotNil(t, ft.tabular[0].Params)
	assert.Equal(t, `{"n":5}`, *ft.tabular[0].Params)
	assert.Nil(t, ft.tabular[0].Out)

	resp = d.Do(context.Background(), Request{
		Command: CommandInference,
		Args:    json.RawMessage(`{"image":"a.png","model":"m.pt","model_type":"cnn","classes":["cat","dog"]}`),
	})
	require.True(t, resp.OK, resp.Error)
	require.Len(t, ft.infer, 1)
	assert.Equal(t, []string{"cat", "dog"}, ft.infer[0].Classes)
}

func TestDispatcherErrors(t *testing.T) {
	d := NewDispatcher(&fakeTasks{gpuErr: &tasks.TaskError{Label: "GPU detection failed", Message: "no driver"}}, nil)

	tests := []struct {
		name    string
		req     Request
		wantErr string
	}{
		{"unknown command", Request{ID: "a", Command: "format_disk"}, "unknown command: format_disk"},
		{"missing args", Request{ID: "b", Command: CommandTabular}, "missing arguments"},
		{"bad args", Request{ID: "c", Command: CommandInference, Args: json.RawMessage(`[1]`)}, "invalid arguments"},
		{"task error", Request{ID: "d", Command: CommandGPU}, "GPU detection failed: no driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := d.Do(context.Background(), tt.req)
			assert.False(t, resp.OK)
			assert.Equal(t, tt.req.ID, resp.ID)
			assert.Contains(t, resp.Error, tt.wantErr)
			assert.Empty(t, resp.Payload)
		})
	}
}

func TestDispatcherDependenciesAlwaysOK(t *testing.T) {
	d := NewDispatcher(&fakeTasks{}, nil)
	resp := d.Do(context.Background(), Request{Command: CommandDependencies})
	assert.True(t, resp.OK)
	assert.Contains(t, resp.Payload, `"python":false`)
}

func TestDispatcherRecoversPanic(t *testing.T) {
	d := NewDispatcher(&fakeTasks{panicked: true}, nil)
	resp := d.Do(context.Background(), Request{ID: "p", Command: CommandGPU})
	assert.False(t, resp.OK)
	assert.Equal(t, "p", resp.ID)
	assert.Contains(t, resp.Error, "boom")
}

func TestFutureCancel(t *testing.T) {
	ft := &fakeTasks{block: true, started: make(chan struct{})}
	d := NewDispatcher(ft, nil)

	f := d.Call(context.Background(), Request{ID: "slow", Command: CommandGPU})
	<-ft.started

	select {
	case <-f.Done():
		t.Fatal("future resolved before cancel")
	default:
	}

	f.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.True(t, resp.Canceled)
}

func TestFutureWaitAbandoned(t *testing.T) {
	ft := &fakeTasks{block: true, started: make(chan struct{})}
	d := NewDispatcher(ft, nil)

	f := d.Call(context.Background(), Request{Command: CommandGPU})
	defer f.Cancel()
	<-ft.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
