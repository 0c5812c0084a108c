package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how payloads are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json and yaml.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// Render formats a payload. Text passes through untouched. JSON and YAML
// re-encode the payload when it is JSON; anything else is emitted as a
// JSON or YAML string.
func Render(payload string, f Format) (string, error) {
	switch f {
	case FormatText, "":
		return payload, nil
	case FormatJSON:
		var buf bytes.Buffer
		if json.Valid([]byte(payload)) {
			if err := json.Indent(&buf, []byte(payload), "", "  "); err != nil {
				return "", fmt.Errorf("failed to indent payload: %w", err)
			}
			return buf.String(), nil
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("failed to encode payload: %w", err)
		}
		return string(b), nil
	case FormatYAML:
		var doc any = payload
		if json.Valid([]byte(payload)) {
			var decoded any
			if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
				return "", fmt.Errorf("failed to decode payload: %w", err)
			}
			doc = decoded
		}
		b, err := yaml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("failed to encode payload as yaml: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", f)
	}
}
