// Package config provides thread-safe persistent settings for image-trainer.
// Settings are KEY=value pairs in a dotenv-style file; writes are atomic.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
)

// Config manages image-trainer settings with thread-safe operations
type Config struct {
	filePath string
	data     map[string]string
	loaded   bool // Track if configuration has been loaded from disk
	mu       sync.RWMutex
}

// ensureLoaded loads configuration data from disk once before read operations.
// This method must only be called while holding c.mu.Lock.
func (c *Config) ensureLoaded() error {
	if c.loaded {
		return nil
	}
	return c.load()
}

// DefaultPath returns ~/.config/image-trainer/image-trainer.conf.
func DefaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "image-trainer", "image-trainer.conf")
}

// New creates a new Config instance. An empty filePath selects DefaultPath.
func New(filePath string) *Config {
	if filePath == "" {
		filePath = DefaultPath()
	} else if expanded, err := homedir.Expand(filePath); err == nil {
		filePath = expanded
	}

	return &Config{
		filePath: filePath,
		data:     make(map[string]string),
	}
}

// Load reads configuration from file
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *Config) load() error {
	// If file doesn't exist, that's okay - we'll create it on Save
	if _, err := os.Stat(c.filePath); os.IsNotExist(err) {
		c.loaded = true
		return nil
	}

	data, err := godotenv.Read(c.filePath)
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", c.filePath, err)
	}

	c.data = data
	c.loaded = true
	return nil
}

// save writes configuration to file using atomic write pattern.
// Must be called with c.mu held.
func (c *Config) save() error {
	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	body, err := godotenv.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// Create temporary file in the same directory for atomic rename
	tmpFile, err := os.CreateTemp(dir, ".image-trainer.conf.tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath) // Cleanup on error

	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}

	fmt.Fprintln(tmpFile, "# image-trainer configuration")
	fmt.Fprintf(tmpFile, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintln(tmpFile, body)

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, c.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file to config: %w", err)
	}

	return nil
}

// Get retrieves a stored value (thread-safe). Defaults are not consulted.
func (c *Config) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	value, exists := c.data[key]
	if !exists {
		return "", fmt.Errorf("config key not found: %s", key)
	}
	return value, nil
}

// GetOrDefault retrieves a value or returns default if not found (thread-safe)
// First checks the config, then the Defaults table, then the provided fallback
func (c *Config) GetOrDefault(key, defaultValue string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return defaultValue
	}
	if value, exists := c.data[key]; exists {
		return value
	}
	if tableDefault, exists := Defaults[key]; exists {
		return tableDefault
	}
	return defaultValue
}

// Set validates and stores a value, then saves the file (thread-safe).
func (c *Config) Set(key, value string) error {
	if err := ValidateValue(key, value); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Load existing configuration first to avoid overwriting
	if err := c.ensureLoaded(); err != nil {
		return fmt.Errorf("failed to load existing config before set: %w", err)
	}

	c.data[key] = value
	return c.save()
}

// Exists checks if a key exists (thread-safe)
func (c *Config) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return false
	}
	_, exists := c.data[key]
	return exists
}

// GetAll returns all stored configuration data (thread-safe)
func (c *Config) GetAll() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return map[string]string{}
	}
	// Return a copy to prevent external modification
	result := make(map[string]string, len(c.data))
	for k, v := range c.data {
		result[k] = v
	}
	return result
}

// SortedKeys returns the stored keys in lexical order.
func (c *Config) SortedKeys() []string {
	all := c.GetAll()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Delete removes a configuration key (thread-safe)
func (c *Config) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(); err != nil {
		return fmt.Errorf("failed to load existing config before delete: %w", err)
	}

	delete(c.data, key)
	return c.save()
}

// FilePath returns the configuration file path
func (c *Config) FilePath() string {
	return c.filePath
}
