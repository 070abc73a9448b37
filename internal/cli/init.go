// Package cli holds the initialization steps shared by cmd/scope and
// cmd/scope-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/BigTvz/Scope/internal/config"
	applog "github.com/BigTvz/Scope/internal/log"
	"github.com/BigTvz/Scope/internal/storage"
)

// SetupLogger builds the component logger and installs it as the slog
// default.
func SetupLogger(component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Component = component
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads a local .env file when present. Missing files are
// fine in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits the process when
// it does not validate.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the SQLite-backed key-value store, running pending
// migrations, and exits the process on failure.
func InitStore(logger *applog.Logger, dbPath string) *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Error("Failed to open store", applog.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("Store ready", "path", dbPath, "driver", "sqlite")
	return store
}
