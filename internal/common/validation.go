// Package common holds input validation shared by the CLI, the bridge and
// the task façade.
package common

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ValidateNotEmpty validates that a string is not empty
func ValidateNotEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("value cannot be empty")
	}
	return nil
}

// ValidateFilePath validates a path handed to an external script. Relative
// paths are allowed; empty paths and NUL bytes are not.
func ValidateFilePath(path string) error {
	if err := ValidateNotEmpty(path); err != nil {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a NUL byte: %q", path)
	}
	return nil
}

// ValidateArgument validates an opaque value passed to a script as the
// operand of a flag, such as a tabular action or a model type. The script
// interprets it; only values that would be misread as a flag are refused.
func ValidateArgument(kind, value string) error {
	if err := ValidateNotEmpty(value); err != nil {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("%s contains a NUL byte: %q", kind, value)
	}
	if strings.HasPrefix(value, "-") {
		return fmt.Errorf("%s cannot start with '-': %s", kind, value)
	}
	return nil
}

// ValidateClassList validates inference class labels. Labels are joined
// with commas on the command line, so a label may not contain one.
func ValidateClassList(classes []string) error {
	if len(classes) == 0 {
		return fmt.Errorf("class list cannot be empty")
	}
	for i, c := range classes {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("class %d is empty", i)
		}
		if strings.Contains(c, ",") {
			return fmt.Errorf("class %q cannot contain a comma", c)
		}
	}
	return nil
}

// ValidatePort validates a port number (1-65535)
func ValidatePort(port string) error {
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", port)
	}

	if p < 1 || p > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", p)
	}

	return nil
}

// ValidateListenAddr validates a host:port listen address. The host may be
// empty (all interfaces).
func ValidateListenAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if host != "" && host != "localhost" && net.ParseIP(host) == nil {
		return fmt.Errorf("invalid listen host: %s", host)
	}
	return ValidatePort(port)
}

// ValidateCandidateName validates an interpreter name or path.
func ValidateCandidateName(name string) error {
	if name == "" {
		return fmt.Errorf("interpreter name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\r\n,") {
		return fmt.Errorf("interpreter name cannot contain whitespace or commas: %q", name)
	}
	return nil
}
