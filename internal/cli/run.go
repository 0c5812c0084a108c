package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gitit24x7/EPOQ/internal/tasks"
)

// RunTabular runs one data-processing action and prints its output.
func RunTabular(ctx context.Context, app *AppContext, req tasks.TabularRequest) error {
	ctx, cancel := app.TaskContext(ctx)
	defer cancel()

	app.Logger.Debug("running tabular action", "action", req.Action, "file", req.File)
	return app.emit(app.Facade.RunTabular(ctx, req))
}

// RunInference runs single-image inference and prints its output.
func RunInference(ctx context.Context, app *AppContext, req tasks.InferenceRequest) error {
	ctx, cancel := app.TaskContext(ctx)
	defer cancel()

	app.Logger.Debug("running inference", "image", req.Image, "model_type", req.ModelType)
	return app.emit(app.Facade.RunInference(ctx, req))
}

// RunProbe runs the GPU, system-info or dependency probe and prints it.
func RunProbe(ctx context.Context, app *AppContext, kind tasks.Kind) error {
	ctx, cancel := app.TaskContext(ctx)
	defer cancel()

	switch kind {
	case tasks.KindGPU:
		return app.emit(app.Facade.ProbeGPU(ctx))
	case tasks.KindSystemInfo:
		return app.emit(app.Facade.ProbeSystemInfo(ctx))
	case tasks.KindDependencies:
		payload := app.Facade.ProbeDependencies(ctx)
		if report, err := tasks.ParseDependencyReport(payload); err == nil {
			DescribeDependencies(app, report)
		}
		return app.emit(payload, nil)
	default:
		return fmt.Errorf("%s is not a probe", kind)
	}
}

// ProbeResult is the outcome of one probe run by ProbeAll.
type ProbeResult struct {
	Task    tasks.Kind `json:"task"`
	Payload string     `json:"payload,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// ProbeAll runs the three probes concurrently. They share nothing, so one
// failing does not affect the others. Results keep a fixed order.
func ProbeAll(ctx context.Context, facade *tasks.Facade) []ProbeResult {
	results := []ProbeResult{
		{Task: tasks.KindGPU},
		{Task: tasks.KindSystemInfo},
		{Task: tasks.KindDependencies},
	}

	var g errgroup.Group
	g.Go(func() error {
		results[0].Payload, results[0].Error = split(facade.ProbeGPU(ctx))
		return nil
	})
	g.Go(func() error {
		results[1].Payload, results[1].Error = split(facade.ProbeSystemInfo(ctx))
		return nil
	})
	g.Go(func() error {
		results[2].Payload = facade.ProbeDependencies(ctx)
		return nil
	})
	_ = g.Wait()

	return results
}

// RunProbeAll runs every probe and prints the combined results as one JSON
// document. It fails only if every probe failed.
func RunProbeAll(ctx context.Context, app *AppContext) error {
	ctx, cancel := app.TaskContext(ctx)
	defer cancel()

	results := ProbeAll(ctx, app.Facade)

	failed := 0
	doc := make(map[string]any, len(results))
	for _, r := range results {
		if r.Error != "" {
			failed++
			app.UI.Error(r.Error)
			doc[string(r.Task)] = map[string]string{"error": r.Error}
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(r.Payload), &decoded); err == nil {
			doc[string(r.Task)] = decoded
		} else {
			doc[string(r.Task)] = r.Payload
		}
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode probe results: %w", err)
	}
	if err := app.UI.Payload(string(b)); err != nil {
		return err
	}
	if failed == len(results) {
		return fmt.Errorf("all probes failed")
	}
	return nil
}

// DescribeDependencies prints a human summary of a dependency report.
func DescribeDependencies(app *AppContext, report tasks.DependencyReport) {
	if !report.Python {
		app.UI.Error("Python interpreter not available")
		if report.Error != "" {
			app.UI.Infof("  %s", report.Error)
		}
		return
	}

	version := "unknown version"
	if report.Version != nil {
		version = *report.Version
	}
	if report.Executable != nil {
		app.UI.Successf("Python %s (%s)", version, *report.Executable)
	} else {
		app.UI.Successf("Python %s", version)
	}

	flags := map[string]bool{"pandas": report.Pandas, "sklearn": report.Sklearn, "torch": report.Torch}
	for _, name := range tasks.Capabilities {
		if flags[name] {
			app.UI.Successf("  ✓ %s is installed", name)
		} else {
			app.UI.Warningf("  ✗ %s is NOT installed", name)
		}
	}
}

func (a *AppContext) emit(payload string, err error) error {
	if err != nil {
		return err
	}
	return a.UI.Payload(payload)
}

func split(payload string, err error) (string, string) {
	if err != nil {
		return "", err.Error()
	}
	return payload, ""
}
