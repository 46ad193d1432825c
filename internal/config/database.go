package config

import (
	"path/filepath"
)

const (
	DB_NAME = "air-monitor.sqlite"
)

// DefaultDatabaseURL is used when no DATABASE_URL is configured: a local
// SQLite file, handy for development and for running without a server.
func DefaultDatabaseURL() string {
	return "sqlite://" + filepath.Join(DataDir(), DB_NAME)
}
