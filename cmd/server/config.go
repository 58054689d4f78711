package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/platform/logger"
)

// loadAppConfig loads the application configuration from environment
// variables and the optional config file.
func loadAppConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupAppLogger installs the JSON logger configured by cfg and logs the
// non-secret parts of the configuration.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("metrics_enabled", cfg.Server.MetricsEnabled),
		slog.Bool("realtime_require_auth", cfg.Realtime.RequireAuth),
		slog.Bool("realtime_emit_crud_events", cfg.Realtime.EmitCRUDEvents))
	l.Debug("Database configuration", slog.Bool("url_present", cfg.Database.URL != ""))

	return l, nil
}
