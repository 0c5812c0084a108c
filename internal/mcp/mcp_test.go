package mcp

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitit24x7/EPOQ/internal/system"
	"github.com/gitit24x7/EPOQ/internal/tasks"
)

// fakeInvoker answers by the base name of the first argument.
type fakeInvoker struct {
	mu       sync.Mutex
	outcomes map[string]system.Outcome
	calls    [][]string
}

func (f *fakeInvoker) Invoke(ctx context.Context, candidates system.Candidates, args ...string) system.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	key := args[0]
	if i := strings.LastIndexAny(key, `/\`); i >= 0 {
		key = key[i+1:]
	}
	if o, ok := f.outcomes[key]; ok {
		return o
	}
	return system.Outcome{Err: "failed to launch python: executable file not found in $PATH"}
}

// setup creates a server and client over in-memory transports.
func setup(t *testing.T, inv *fakeInvoker) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	facade := tasks.New(inv, system.Candidates{"python", "python3"}, "/opt/image-trainer", nil)
	server := NewServer(facade, "test")

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool(%s)", name)
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func TestListTools(t *testing.T) {
	cs := setup(t, &fakeInvoker{})

	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"tabular", "gpu", "system_info", "dependencies", "inference"}, names)
}

func TestGPUTool(t *testing.T) {
	cs := setup(t, &fakeInvoker{outcomes: map[string]system.Outcome{
		"check_gpu.py": {Accepted: true, Output: "CUDA available: RTX 3060\n"},
	}})

	res := callTool(t, cs, "gpu", map[string]any{})
	assert.False(t, res.IsError)
	assert.Equal(t, "CUDA available: RTX 3060", resultText(res))
}

func TestSystemInfoToolFailure(t *testing.T) {
	cs := setup(t, &fakeInvoker{outcomes: map[string]system.Outcome{
		"system_info.py": {Err: "No module named psutil"},
	}})

	res := callTool(t, cs, "system_info", map[string]any{})
	assert.True(t, res.IsError)
	assert.Equal(t, "System info failed: No module named psutil", resultText(res))
}

func TestDependenciesToolNeverErrors(t *testing.T) {
	cs := setup(t, &fakeInvoker{})

	res := callTool(t, cs, "dependencies", map[string]any{})
	assert.False(t, res.IsError)

	report, err := tasks.ParseDependencyReport(resultText(res))
	require.NoError(t, err)
	assert.False(t, report.Python)
	assert.Contains(t, report.Error, "failed to launch python")
}

func TestTabularToolPassesArguments(t *testing.T) {
	inv := &fakeInvoker{outcomes: map[string]system.Outcome{
		"tabular_processor.py": {Accepted: true, Output: "  rows: 3\n"},
	}}
	cs := setup(t, inv)

	res := callTool(t, cs, "tabular", map[string]any{
		"file":   "/data/x.csv",
		"action": "describe",
		"out":    "/data/y.csv",
	})
	require.False(t, res.IsError, resultText(res))
	assert.Equal(t, "  rows: 3\n", resultText(res))

	require.Len(t, inv.calls, 1)
	assert.Equal(t, []string{"--action", "describe", "--file", "/data/x.csv", "--out", "/data/y.csv"}, inv.calls[0][1:])
}

func TestInferenceToolValidation(t *testing.T) {
	inv := &fakeInvoker{}
	cs := setup(t, inv)

	res := callTool(t, cs, "inference", map[string]any{
		"image":      "cat.png",
		"model":      "model.pt",
		"model_type": "cnn",
		"classes":    []string{},
	})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "Inference failed: invalid request")
	assert.Empty(t, inv.calls)
}
