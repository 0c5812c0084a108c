// Package ui prints colored status lines to stderr and task payloads to
// stdout, and wraps the interactive prompts used by the menu.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// UI provides user interface methods
type UI struct {
	output  io.Writer // status lines
	payload io.Writer // task results
	format  Format
	// Color functions
	colorInfo    *color.Color
	colorSuccess *color.Color
	colorWarning *color.Color
	colorError   *color.Color
	colorBold    *color.Color
	colorCyan    *color.Color
}

// New creates a UI writing status to stderr and payloads to stdout.
func New() *UI {
	return &UI{
		output:       os.Stderr,
		payload:      os.Stdout,
		format:       FormatText,
		colorInfo:    color.New(color.FgBlue),
		colorSuccess: color.New(color.FgGreen),
		colorWarning: color.New(color.FgYellow),
		colorError:   color.New(color.FgRed),
		colorBold:    color.New(color.Bold),
		colorCyan:    color.New(color.FgCyan, color.Bold),
	}
}

// NewWithWriter creates a UI sending everything to w (useful for testing)
func NewWithWriter(w io.Writer) *UI {
	ui := New()
	ui.output = w
	ui.payload = w
	return ui
}

// NewWithWriters creates a UI with separate status and payload writers.
func NewWithWriters(status, payload io.Writer) *UI {
	ui := New()
	ui.output = status
	ui.payload = payload
	return ui
}

// SetFormat selects how payloads are rendered.
func (u *UI) SetFormat(f Format) {
	u.format = f
}

// Format returns the payload format.
func (u *UI) Format() Format {
	return u.format
}

// Info prints an info message
func (u *UI) Info(msg string) {
	u.colorInfo.Fprintf(u.output, "[INFO] %s\n", msg)
}

// Infof prints a formatted info message
func (u *UI) Infof(format string, args ...interface{}) {
	u.Info(fmt.Sprintf(format, args...))
}

// Success prints a success message
func (u *UI) Success(msg string) {
	u.colorSuccess.Fprintf(u.output, "[✓] %s\n", msg)
}

// Successf prints a formatted success message
func (u *UI) Successf(format string, args ...interface{}) {
	u.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (u *UI) Warning(msg string) {
	u.colorWarning.Fprintf(u.output, "[WARNING] %s\n", msg)
}

// Warningf prints a formatted warning message
func (u *UI) Warningf(format string, args ...interface{}) {
	u.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message
func (u *UI) Error(msg string) {
	u.colorError.Fprintf(u.output, "[ERROR] %s\n", msg)
}

// Errorf prints a formatted error message
func (u *UI) Errorf(format string, args ...interface{}) {
	u.Error(fmt.Sprintf(format, args...))
}

// Header prints a header with a box
func (u *UI) Header(title string) {
	border := strings.Repeat("=", 70)

	fmt.Fprintln(u.output)
	u.colorCyan.Fprintln(u.output, border)
	u.colorCyan.Fprintf(u.output, "  %s\n", title)
	u.colorCyan.Fprintln(u.output, border)
	fmt.Fprintln(u.output)
}

// Separator prints a separator line
func (u *UI) Separator() {
	u.colorCyan.Fprintln(u.output, strings.Repeat("-", 70))
}

// Bold prints bold text
func (u *UI) Bold(msg string) {
	u.colorBold.Fprintln(u.output, msg)
}

// Payload writes a task result to the payload writer in the selected format.
func (u *UI) Payload(text string) error {
	rendered, err := Render(text, u.format)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	_, err = io.WriteString(u.payload, rendered)
	return err
}
