package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/config"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/database"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/store"
)

// app holds the resources a command runs with. It is built once per
// invocation and torn down by Close.
type app struct {
	config  *config.Config
	logger  *slog.Logger
	store   *store.Store
	logFile *os.File
}

// newApp loads the configuration, sets up logging, opens the connection
// pool and brings a managed schema up to date.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	a := &app{config: cfg}
	if err := a.setupLogger(); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.logger.Debug("Connected to database", "dialect", database.Dialect(db))

	applied, err := database.Migrate(db)
	if err != nil {
		_ = database.Close(db)
		a.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if len(applied) > 0 {
		a.logger.Info("Applied database migrations", "versions", applied)
	}

	a.store = store.New(db, store.WithLogger(a.logger))

	return a, nil
}

// setupLogger configures the logger based on the verbose flag
func (a *app) setupLogger() error {
	level := slog.LevelInfo
	if verbose || a.config.Verbose {
		level = slog.LevelDebug
	}

	var output io.Writer = os.Stdout
	if a.config.LogFile != "" {
		file, err := os.OpenFile(a.config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = file
		output = io.MultiWriter(os.Stdout, file)
	}

	a.logger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: level,
	}))

	// Set as default logger
	slog.SetDefault(a.logger)

	return nil
}

// Close releases the connection pool and the log file.
func (a *app) Close() error {
	var errs []error

	if a.store != nil {
		a.logger.Debug("Closing database pool")
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
		a.store = nil
	}

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, err)
		}
		a.logFile = nil
	}

	return errors.Join(errs...)
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
