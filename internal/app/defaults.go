package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - SHOEBOX_HOME: the managed directory (default: current working directory)
//
// Everything else lives under the .shoebox sentinel inside the managed
// directory.
func GetDefaults() (map[string]string, error) {
	home, err := getHomeDir()
	if err != nil {
		return nil, err
	}

	boxDir := filepath.Join(home, ".shoebox")
	return map[string]string{
		"home_dir":     home,
		"box_dir":      boxDir,
		"config_path":  filepath.Join(boxDir, "config.toml"),
		"catalog_path": filepath.Join(boxDir, "catalog.db"),
		"log_dir":      filepath.Join(boxDir, "log"),
	}, nil
}

// getHomeDir returns the managed directory, checking the SHOEBOX_HOME env
// var first, then falling back to the current working directory.
func getHomeDir() (string, error) {
	if path := os.Getenv("SHOEBOX_HOME"); path != "" {
		return path, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine working directory: %w", err)
	}
	return wd, nil
}
