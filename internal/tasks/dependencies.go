package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Capabilities are the Python modules the dependency probe looks for.
var Capabilities = []string{"pandas", "sklearn", "torch"}

// DependencyReport is the capability state reported to the UI. It is
// always produced, with Error set when the probe itself could not run.
type DependencyReport struct {
	Python     bool    `json:"python"`
	Executable *string `json:"executable,omitempty"`
	Version    *string `json:"version"`
	Pandas     bool    `json:"pandas"`
	Sklearn    bool    `json:"sklearn"`
	Torch      bool    `json:"torch"`
	Error      string  `json:"error,omitempty"`
}

// UnavailableReport is the report used when no interpreter could run the
// probe: every flag false and the sanitized reason in Error.
func UnavailableReport(reason string) DependencyReport {
	return DependencyReport{Error: SanitizeError(reason)}
}

// JSON encodes the report. Quotes and control characters are escaped by
// the encoder.
func (r DependencyReport) JSON() string {
	// Only strings, string pointers and bools: Marshal cannot fail.
	b, _ := json.Marshal(r)
	return string(b)
}

// ParseDependencyReport decodes a probe payload.
func ParseDependencyReport(payload string) (DependencyReport, error) {
	var r DependencyReport
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return DependencyReport{}, fmt.Errorf("failed to parse dependency report: %w", err)
	}
	return r, nil
}

// SanitizeError collapses line breaks to single spaces so the message fits
// on one line of the report.
func SanitizeError(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}

// dependencyProbeSource is the inline program passed with -c.
func dependencyProbeSource() string {
	mods := make([]string, len(Capabilities))
	for i, m := range Capabilities {
		mods[i] = "'" + m + "'"
	}
	return "import importlib.util, json, sys; " +
		"r = {m: importlib.util.find_spec(m) is not None for m in (" + strings.Join(mods, ", ") + ",)}; " +
		"r.update(python=True, executable=sys.executable, version=sys.version.split()[0]); " +
		"print(json.dumps(r))"
}

// DependencyArgs returns the argument list of the dependency probe.
func (f *Facade) DependencyArgs() []string {
	return []string{"-c", dependencyProbeSource()}
}

// ProbeDependencies reports interpreter presence and capability flags. It
// never fails: when the probe cannot run, the returned payload is an
// UnavailableReport carrying the failure text.
func (f *Facade) ProbeDependencies(ctx context.Context) string {
	payload, err := f.run(ctx, KindDependencies, f.DependencyArgs())
	if err != nil {
		reason := err.Error()
		var taskErr *TaskError
		if errors.As(err, &taskErr) {
			reason = taskErr.Message
		}
		if reason == "" {
			reason = "no Python interpreter candidates configured"
		}
		f.logger.Debug("dependency probe failed", "err", reason)
		return UnavailableReport(reason).JSON()
	}
	f.logger.Debug("dependency probe output", "stdout", payload)
	return payload
}
