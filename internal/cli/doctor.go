package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/gitit24x7/EPOQ/internal/system"
	"github.com/gitit24x7/EPOQ/internal/tasks"
)

// ScriptStatus reports whether a task script exists on disk.
type ScriptStatus struct {
	Task  tasks.Kind
	Path  string
	Found bool
}

// Diagnosis is the environment snapshot printed by the doctor command.
type Diagnosis struct {
	ConfigPath  string
	ResourceDir string
	Candidates  []system.CandidateStatus
	Scripts     []ScriptStatus
}

// Healthy reports whether at least one candidate resolves and every task
// script is present.
func (d Diagnosis) Healthy() bool {
	found := false
	for _, c := range d.Candidates {
		if c.Found {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, s := range d.Scripts {
		if !s.Found {
			return false
		}
	}
	return true
}

// Diagnose inspects PATH and the resource directory without launching
// anything.
func Diagnose(app *AppContext) Diagnosis {
	d := Diagnosis{
		ConfigPath:  app.Config.FilePath(),
		ResourceDir: app.Facade.ResourceDir(),
		Candidates:  system.Available(app.Facade.Candidates()),
	}
	for _, kind := range tasks.Kinds() {
		path := app.Facade.ScriptPath(kind)
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		d.Scripts = append(d.Scripts, ScriptStatus{
			Task:  kind,
			Path:  path,
			Found: err == nil && !info.IsDir(),
		})
	}
	return d
}

// RunDoctor prints the diagnosis and then runs the dependency probe.
func RunDoctor(ctx context.Context, app *AppContext) error {
	d := Diagnose(app)

	app.UI.Header("Environment Check")
	app.UI.Infof("Configuration file: %s", d.ConfigPath)
	app.UI.Infof("Resource directory: %s", d.ResourceDir)
	app.UI.Separator()

	app.UI.Bold("Interpreter candidates (tried in order):")
	for _, c := range d.Candidates {
		if c.Found {
			app.UI.Successf("  ✓ %s → %s", c.Name, c.Path)
		} else {
			app.UI.Warningf("  ✗ %s not found on PATH", c.Name)
		}
	}
	app.UI.Separator()

	app.UI.Bold("Task scripts:")
	for _, s := range d.Scripts {
		if s.Found {
			app.UI.Successf("  ✓ %s: %s", s.Task, s.Path)
		} else {
			app.UI.Warningf("  ✗ %s: %s is missing", s.Task, s.Path)
		}
	}
	app.UI.Separator()

	ctx, cancel := app.TaskContext(ctx)
	defer cancel()

	app.UI.Bold("Python dependencies:")
	report, err := tasks.ParseDependencyReport(app.Facade.ProbeDependencies(ctx))
	if err != nil {
		app.UI.Error(err.Error())
	} else {
		DescribeDependencies(app, report)
	}
	app.UI.Separator()

	if !d.Healthy() {
		return fmt.Errorf("environment check found problems")
	}
	app.UI.Success("Environment looks good")
	return nil
}
