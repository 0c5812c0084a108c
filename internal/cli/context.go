// Package cli wires configuration, logging, the interpreter fallback and the
// task façade together for the command-line entry points and the
// interactive menu.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gitit24x7/EPOQ/internal/config"
	"github.com/gitit24x7/EPOQ/internal/logging"
	"github.com/gitit24x7/EPOQ/internal/system"
	"github.com/gitit24x7/EPOQ/internal/tasks"
	"github.com/gitit24x7/EPOQ/internal/ui"
)

// Settings are the effective options after flags, environment, the config
// file and defaults have been layered.
type Settings struct {
	ConfigPath  string
	ResourceDir string
	Candidates  string
	Timeout     time.Duration
	LogLevel    string
	Format      string
	BridgeAddr  string
}

// AppContext holds all dependencies needed to run tasks
type AppContext struct {
	Settings Settings
	Config   *config.Config
	UI       *ui.UI
	Logger   *log.Logger
	Facade   *tasks.Facade
}

// NewAppContext creates an AppContext with all dependencies initialized
func NewAppContext(s Settings) (*AppContext, error) {
	cfg := config.New(s.ConfigPath)
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(s.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	format, err := ui.ParseFormat(s.Format)
	if err != nil {
		return nil, err
	}
	uiInstance := ui.New()
	uiInstance.SetFormat(format)

	resourceDir, err := config.ResolveResourceDir(s.ResourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve resource directory: %w", err)
	}

	return NewAppContextWith(s, cfg, uiInstance, logger, system.NewCommandRunner(), resourceDir), nil
}

// NewAppContextWith assembles an AppContext from prepared parts (useful for
// testing with a fake runner).
func NewAppContextWith(s Settings, cfg *config.Config, u *ui.UI, logger *log.Logger, runner system.CommandRunner, resourceDir string) *AppContext {
	orchestrator := system.NewOrchestrator(runner, logger.WithPrefix("process"))
	facade := tasks.New(orchestrator, system.ParseCandidates(s.Candidates), resourceDir, logger.WithPrefix("tasks"))

	return &AppContext{
		Settings: s,
		Config:   cfg,
		UI:       u,
		Logger:   logger,
		Facade:   facade,
	}
}

// TaskContext derives the context a single task runs under, applying the
// configured timeout when one is set.
func (a *AppContext) TaskContext(parent context.Context) (context.Context, context.CancelFunc) {
	if a.Settings.Timeout > 0 {
		return context.WithTimeout(parent, a.Settings.Timeout)
	}
	return context.WithCancel(parent)
}
