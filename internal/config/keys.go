package config

import (
	"fmt"
	"time"

	"github.com/gitit24x7/EPOQ/internal/common"
	"github.com/gitit24x7/EPOQ/internal/logging"
	"github.com/gitit24x7/EPOQ/internal/system"
)

// Configuration key constants to prevent typos and enable autocomplete
const (
	// Locations
	KeyResourceDir = "RESOURCE_DIR" // Directory containing python_backend/

	// Interpreters
	KeyPythonCandidates = "PYTHON_CANDIDATES" // Comma separated, tried in order

	// Process handling
	KeyProcessTimeout = "PROCESS_TIMEOUT" // Go duration; 0 disables

	// Bridge server
	KeyBridgeAddr = "BRIDGE_ADDR"

	// Output
	KeyLogLevel     = "LOG_LEVEL"
	KeyOutputFormat = "OUTPUT_FORMAT" // text, json or yaml
)

// Default values for configuration keys
var Defaults = map[string]string{
	KeyProcessTimeout: "0",
	KeyBridgeAddr:     "127.0.0.1:7421",
	KeyLogLevel:       logging.DefaultLevel,
	KeyOutputFormat:   "text",
}

// Keys lists every known key in display order.
func Keys() []string {
	return []string{
		KeyResourceDir,
		KeyPythonCandidates,
		KeyProcessTimeout,
		KeyBridgeAddr,
		KeyLogLevel,
		KeyOutputFormat,
	}
}

// ValidateKey rejects keys image-trainer does not know.
func ValidateKey(key string) error {
	for _, k := range Keys() {
		if k == key {
			return nil
		}
	}
	return fmt.Errorf("unknown config key: %s", key)
}

// ValidateValue checks a value before it is stored under key. Unknown keys
// are rejected.
func ValidateValue(key, value string) error {
	switch key {
	case KeyResourceDir:
		return common.ValidateFilePath(value)
	case KeyPythonCandidates:
		for _, name := range system.ParseCandidates(value) {
			if err := common.ValidateCandidateName(name); err != nil {
				return err
			}
		}
		return nil
	case KeyProcessTimeout:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		if d < 0 {
			return fmt.Errorf("timeout cannot be negative: %s", value)
		}
		return nil
	case KeyBridgeAddr:
		return common.ValidateListenAddr(value)
	case KeyLogLevel:
		_, err := logging.ParseLevel(value)
		return err
	case KeyOutputFormat:
		switch value {
		case "text", "json", "yaml":
			return nil
		}
		return fmt.Errorf("output format must be text, json or yaml, got: %s", value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}
