// Package filex contains filesystem helpers for the device data directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold filePath, so SQLite can
// create the database file on first open. Relative paths resolve against the
// working directory. The absolute file path is returned.
func EnsureParentDir(filePath string) (string, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", filePath, err)
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return abs, nil
}

// DefaultDataDir returns <user config dir>/wecare, falling back to ./wecare
// when the platform has no config directory.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return "wecare"
	}
	return filepath.Join(base, "wecare")
}
