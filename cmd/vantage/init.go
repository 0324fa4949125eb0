package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vdbops/vantage/internal/defaults"
)

// runInit initializes a Vantage working directory with a starter
// config. Existing files are never overwritten.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing Vantage workspace in %s\n", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	// The config may hold an API key, so keep it operator-readable only.
	configPath := filepath.Join(dir, "config.yaml")
	if err := writeIfMissing(configPath, defaults.ConfigYAML, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ %s\n", configPath)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edit config.yaml to point backend.url at your deployment,")
	fmt.Fprintln(w, "then start the console with: vantage serve")
	return nil
}

// writeIfMissing writes content to path only if the file does not already
// exist. This ensures init never overwrites operator customizations.
func writeIfMissing(path string, content []byte, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return nil // already exists, skip
	}
	return os.WriteFile(path, content, perm)
}
