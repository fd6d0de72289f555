// Package app assembles sixmcp from its catalog, cache and tool layers.
package app

import (
	"context"

	"go.uber.org/zap"

	"sixmcp/internal/domain"
	"sixmcp/internal/infra/config"
)

// App runs sixmcp commands with a shared logger.
type App struct {
	logger *zap.Logger
}

// ServeConfig holds the resolved configuration for Serve.
type ServeConfig struct {
	Config domain.Config
}

// ValidateConfig selects the config file checked by ValidateConfig and
// optional overrides applied before validation.
type ValidateConfig struct {
	ConfigPath string
	Overrides  func(*domain.Config)
}

// New creates an App, falling back to a no-op logger.
func New(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{logger: logger}
}

// LoadConfig reads path, applies overrides and validates the result.
func LoadConfig(ctx context.Context, path string, overrides func(*domain.Config), logger *zap.Logger) (domain.Config, error) {
	cfg, err := config.NewLoader(logger).Load(ctx, path)
	if err != nil {
		return domain.Config{}, err
	}
	if overrides == nil {
		return cfg, nil
	}
	overrides(&cfg)
	if err := config.Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Serve runs the MCP server until ctx is canceled.
func (a *App) Serve(ctx context.Context, cfg ServeConfig) error {
	application, err := InitializeApplication(ctx, cfg.Config, LoggingConfig{Logger: a.logger})
	if err != nil {
		return err
	}
	return application.Run()
}

// ValidateConfig validates the configuration at the provided path.
func (a *App) ValidateConfig(ctx context.Context, cfg ValidateConfig) error {
	loaded, err := LoadConfig(ctx, cfg.ConfigPath, cfg.Overrides, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("configuration validated",
		zap.String("config", cfg.ConfigPath),
		zap.String("source", string(loaded.Catalog.Source)),
		zap.String("transport", string(loaded.Server.Transport)),
	)
	return nil
}
