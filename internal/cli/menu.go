package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"

	"github.com/gitit24x7/EPOQ/internal/common"
	"github.com/gitit24x7/EPOQ/internal/config"
	"github.com/gitit24x7/EPOQ/internal/tasks"
)

// ErrExit is returned when the user chooses to exit the menu
var ErrExit = errors.New("exit")

// Menu provides an interactive menu interface
type Menu struct {
	ctx *AppContext
}

// NewMenu creates a new Menu instance
func NewMenu(ctx *AppContext) *Menu {
	return &Menu{ctx: ctx}
}

type menuItem struct {
	label  string
	action func(context.Context) error
}

// clearScreen clears the terminal screen using ANSI escape codes
func clearScreen() {
	fmt.Print("\033[2J\033[H")
}

func (m *Menu) items() []menuItem {
	return []menuItem{
		{"Check GPU", func(ctx context.Context) error { return RunProbe(ctx, m.ctx, tasks.KindGPU) }},
		{"Show system info", func(ctx context.Context) error { return RunProbe(ctx, m.ctx, tasks.KindSystemInfo) }},
		{"Check Python dependencies", func(ctx context.Context) error { return RunProbe(ctx, m.ctx, tasks.KindDependencies) }},
		{"Process a data file", m.runTabular},
		{"Classify an image", m.runInference},
		{"Environment check", func(ctx context.Context) error { return RunDoctor(ctx, m.ctx) }},
		{"Edit settings", m.editSettings},
		{"Help", m.showHelp},
		{"Exit", func(context.Context) error { return ErrExit }},
	}
}

// Show displays the main menu and handles user input
func (m *Menu) Show(ctx context.Context) error {
	items := m.items()
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.label
	}

	for {
		clearScreen()
		m.displayHeader()

		choice, err := m.ctx.UI.PromptSelect("What would you like to do?", labels)
		if err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		}

		item := items[choice]
		clearScreen()
		m.ctx.UI.Header(item.label)

		if err := item.action(ctx); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			if errors.Is(err, terminal.InterruptErr) {
				continue
			}
			m.ctx.UI.Error(err.Error())
		}

		m.pause()
	}
}

func (m *Menu) displayHeader() {
	cyan := color.New(color.FgCyan, color.Bold)

	border := strings.Repeat("=", 70)
	cyan.Println(border)
	cyan.Println("  Image Trainer")
	cyan.Println(border)
	fmt.Println()

	m.ctx.UI.Infof("Resource directory: %s", m.ctx.Facade.ResourceDir())
	m.ctx.UI.Infof("Interpreters: %s", m.ctx.Facade.Candidates())
	fmt.Println()
}

func (m *Menu) pause() {
	fmt.Println()
	m.ctx.UI.Info("Press Enter to return to menu...")
	fmt.Scanln()
}

func (m *Menu) runTabular(ctx context.Context) error {
	file, err := m.ctx.UI.PromptInputWithValidation("Data file", "", common.ValidateFilePath)
	if err != nil {
		return err
	}
	action, err := m.ctx.UI.PromptInputWithValidation("Action", "describe", func(s string) error {
		return common.ValidateArgument("action", s)
	})
	if err != nil {
		return err
	}
	params, err := m.ctx.UI.PromptInput("Parameters (JSON, optional)", "")
	if err != nil {
		return err
	}
	out, err := m.ctx.UI.PromptInput("Output file (optional)", "")
	if err != nil {
		return err
	}

	req := tasks.TabularRequest{File: file, Action: action}
	if strings.TrimSpace(params) != "" {
		req.Params = &params
	}
	if strings.TrimSpace(out) != "" {
		req.Out = &out
	}
	return RunTabular(ctx, m.ctx, req)
}

func (m *Menu) runInference(ctx context.Context) error {
	image, err := m.ctx.UI.PromptInputWithValidation("Image file", "", common.ValidateFilePath)
	if err != nil {
		return err
	}
	model, err := m.ctx.UI.PromptInputWithValidation("Model file", "", common.ValidateFilePath)
	if err != nil {
		return err
	}
	modelType, err := m.ctx.UI.PromptInputWithValidation("Model type", "cnn", func(s string) error {
		return common.ValidateArgument("model type", s)
	})
	if err != nil {
		return err
	}
	classes, err := m.ctx.UI.PromptInputWithValidation("Class names (comma separated)", "", func(s string) error {
		return common.ValidateClassList(SplitClasses(s))
	})
	if err != nil {
		return err
	}

	return RunInference(ctx, m.ctx, tasks.InferenceRequest{
		Image:     image,
		Model:     model,
		ModelType: modelType,
		Classes:   SplitClasses(classes),
	})
}

func (m *Menu) editSettings(context.Context) error {
	keys := config.Keys()
	options := make([]string, len(keys))
	for i, k := range keys {
		options[i] = fmt.Sprintf("%s = %s", k, m.ctx.Config.GetOrDefault(k, ""))
	}

	idx, err := m.ctx.UI.PromptSelect("Setting to change", options)
	if err != nil {
		return err
	}
	key := keys[idx]

	value, err := m.ctx.UI.PromptInput(key, m.ctx.Config.GetOrDefault(key, ""))
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)

	confirm, err := m.ctx.UI.PromptYesNo(fmt.Sprintf("Save %s=%s?", key, value), true)
	if err != nil {
		return err
	}
	if !confirm {
		m.ctx.UI.Info("Nothing changed")
		return nil
	}

	if err := m.ctx.Config.Set(key, value); err != nil {
		return err
	}

	m.ctx.UI.Successf("Saved %s to %s", key, m.ctx.Config.FilePath())
	m.ctx.UI.Info("New values take effect the next time image-trainer starts")
	return nil
}

func (m *Menu) showHelp(context.Context) error {
	help := `
Image Trainer - Help

Every action runs a Python script from <resource dir>/python_backend with the
first interpreter that starts cleanly. If "python" is missing or fails, the
next candidate ("python3", then "py" on Windows) is tried.

ACTIONS:

  Check GPU                  check_gpu.py
  Show system info           system_info.py
  Check Python dependencies  inline probe for pandas, sklearn and torch
  Process a data file        tabular_processor.py --action A --file F
  Classify an image          inference.py --image I --model M ...

COMMAND-LINE MODE:

    image-trainer probe gpu|sysinfo|deps|all
    image-trainer tabular --file data.csv --action describe
    image-trainer infer --image x.png --model m.pt --model-type cnn --classes cat,dog
    image-trainer serve        # WebSocket bridge for the desktop UI
    image-trainer mcp          # MCP tool server on stdio
    image-trainer doctor       # environment check
    image-trainer config list  # show settings
`
	fmt.Println(help)
	return nil
}

// SplitClasses splits a comma separated class list, dropping surrounding
// whitespace. Empty entries are kept so validation can reject them.
func SplitClasses(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
