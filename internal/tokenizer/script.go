package tokenizer

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

// dumpScript reads PHP source from stdin and prints token_get_all() as JSON.
//
//go:embed dump.php
var dumpScript []byte

// getScriptPath returns the location the dump script is materialized to.
// Declared as a variable to allow redirection in tests.
var getScriptPath = func() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(dir, "phptdd", "dump.php"), nil
}

// ensureScript writes the dump script to disk unless an identical copy is
// already there, and returns its path.
func ensureScript() (string, error) {
	path, err := getScriptPath()
	if err != nil {
		return "", err
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, dumpScript) {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create script directory: %w", err)
	}

	// Atomic write: concurrent processes may race on first use
	tmp, err := os.CreateTemp(filepath.Dir(path), "dump-*.php")
	if err != nil {
		return "", fmt.Errorf("failed to create temp script: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(dumpScript); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write script: %w", err)
	}
	tmp.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to install script: %w", err)
	}
	return path, nil
}
