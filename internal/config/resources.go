package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// backendDirName must match tasks.BackendDir.
const backendDirName = "python_backend"

// ResolveResourceDir returns the directory whose python_backend/ subfolder
// holds the task scripts. A configured value wins (with ~ expanded);
// otherwise the directory of the running executable is searched, then
// ../share/image-trainer next to it. Failing to locate the executable is
// the only error.
func ResolveResourceDir(configured string) (string, error) {
	if configured != "" {
		expanded, err := homedir.Expand(configured)
		if err != nil {
			return "", fmt.Errorf("failed to expand resource dir %q: %w", configured, err)
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return "", fmt.Errorf("failed to resolve resource dir %q: %w", configured, err)
		}
		return abs, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	exeDir := filepath.Dir(exe)

	for _, dir := range []string{exeDir, filepath.Join(exeDir, "..", "share", "image-trainer")} {
		if info, err := os.Stat(filepath.Join(dir, backendDirName)); err == nil && info.IsDir() {
			return filepath.Clean(dir), nil
		}
	}
	return exeDir, nil
}
