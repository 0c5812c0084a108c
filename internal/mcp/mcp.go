// Package mcp serves the external tasks as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gitit24x7/EPOQ/internal/tasks"
)

const instructions = `Tools in this server run local Python scripts on the user's machine.
Probe tools (gpu, system_info, dependencies) take no arguments and are cheap.
Call dependencies first when a task fails: it reports whether Python,
pandas, scikit-learn and PyTorch are installed.`

// handler holds shared dependencies for all tool handlers.
type handler struct {
	facade *tasks.Facade
}

// NewServer creates an MCP server exposing each task as a tool.
func NewServer(facade *tasks.Facade, version string) *mcp.Server {
	h := &handler{facade: facade}

	s := mcp.NewServer(&mcp.Implementation{Name: "image-trainer", Version: version}, &mcp.ServerOptions{
		Instructions: instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	})

	mcp.AddTool(s, &mcp.Tool{
		Name: "tabular",
		Description: `Run one action of tabular_processor.py on a data file (CSV, Excel, ...).

Returns the script's output unchanged. params is passed through as a single
string, usually JSON understood by the chosen action.`,
	}, h.tabularHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "gpu",
		Description: "Report whether a CUDA or other accelerator is available.",
	}, h.gpuHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "system_info",
		Description: "Return a JSON summary of the host: OS, CPU, memory and Python build.",
	}, h.systemInfoHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "dependencies",
		Description: `Report the Python interpreter and whether pandas, sklearn and torch import.

Always succeeds; when no interpreter runs, every flag is false and error explains why.`,
	}, h.dependenciesHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "inference",
		Description: "Classify one image with a trained model and return the prediction as JSON.",
	}, h.inferenceHandler)

	return s
}

type tabularParams struct {
	File   string  `json:"file" jsonschema:"path of the data file"`
	Action string  `json:"action" jsonschema:"processing action, e.g. describe or clean"`
	Params *string `json:"params,omitempty" jsonschema:"optional action parameters, passed as one argument"`
	Out    *string `json:"out,omitempty" jsonschema:"optional output file path"`
}

func (h *handler) tabularHandler(ctx context.Context, _ *mcp.CallToolRequest, p tabularParams) (*mcp.CallToolResult, any, error) {
	return taskResult(h.facade.RunTabular(ctx, tasks.TabularRequest{
		File:   p.File,
		Action: p.Action,
		Params: p.Params,
		Out:    p.Out,
	}))
}

type inferenceParams struct {
	Image     string   `json:"image" jsonschema:"path of the image to classify"`
	Model     string   `json:"model" jsonschema:"path of the trained model file"`
	ModelType string   `json:"model_type" jsonschema:"model architecture the file was trained with"`
	Classes   []string `json:"classes" jsonschema:"class names in training order"`
}

func (h *handler) inferenceHandler(ctx context.Context, _ *mcp.CallToolRequest, p inferenceParams) (*mcp.CallToolResult, any, error) {
	return taskResult(h.facade.RunInference(ctx, tasks.InferenceRequest{
		Image:     p.Image,
		Model:     p.Model,
		ModelType: p.ModelType,
		Classes:   p.Classes,
	}))
}

type noParams struct{}

func (h *handler) gpuHandler(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	return taskResult(h.facade.ProbeGPU(ctx))
}

func (h *handler) systemInfoHandler(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	return taskResult(h.facade.ProbeSystemInfo(ctx))
}

func (h *handler) dependenciesHandler(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	return textResult(h.facade.ProbeDependencies(ctx))
}

// taskResult maps a task outcome to a tool result. Task failures are tool
// errors the model can read; only cancellation is a protocol error.
func taskResult(payload string, err error) (*mcp.CallToolResult, any, error) {
	if err == nil {
		return textResult(payload)
	}
	var taskErr *tasks.TaskError
	if errors.As(err, &taskErr) && taskErr.Canceled {
		return nil, nil, err
	}
	return errorResult(err.Error())
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
