package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetCapstudyHome returns the capstudy home directory.
// Priority order:
//  1. CAPSTUDY_HOME environment variable (if set)
//  2. ~/.capstudy
//  3. .capstudy in the current working directory (no home directory)
//
// The directory is created if it doesn't exist.
func GetCapstudyHome() (string, error) {
	home := os.Getenv("CAPSTUDY_HOME")
	if home == "" {
		if userHome, err := os.UserHomeDir(); err == nil && userHome != "" {
			home = filepath.Join(userHome, ".capstudy")
		} else {
			cwd, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("get working directory: %w", err)
			}
			home = filepath.Join(cwd, ".capstudy")
		}
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create capstudy home directory: %w", err)
	}
	return home, nil
}

// GetHistoryDBPath returns the absolute path to the history database.
// Always returns: $CAPSTUDY_HOME/history.db
func GetHistoryDBPath() (string, error) {
	home, err := GetCapstudyHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}
