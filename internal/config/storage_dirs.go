package config

import (
	"os"
	"path/filepath"
)

const (
	APP_DIR_NAME = "smart-air-monitor"
)

// DataDir holds the default SQLite database: $XDG_DATA_HOME/smart-air-monitor,
// else ~/.local/share/smart-air-monitor, else ~/.smart-air-monitor.
func DataDir() string {
	return appDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ConfigDir is searched for config.yaml.
func ConfigDir() string {
	return appDir("XDG_CONFIG_HOME", ".config")
}

func appDir(xdgEnv, homeRelative string) string {
	if base := os.Getenv(xdgEnv); base != "" {
		return filepath.Join(base, APP_DIR_NAME)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Without a home directory fall back to the working directory
		if workDir, err := os.Getwd(); err == nil {
			return workDir
		}
		return "."
	}

	if _, err := os.Stat(filepath.Join(homeDir, homeRelative)); err == nil {
		return filepath.Join(homeDir, homeRelative, APP_DIR_NAME)
	}

	return filepath.Join(homeDir, "."+APP_DIR_NAME)
}
