// Package setup bootstraps application dependencies in the correct order,
// ensuring each component has its required dependencies available.
package setup

import (
	"go.uber.org/zap"

	"github.com/mottoworks/botto/internal/airtable"
	"github.com/mottoworks/botto/internal/setup/config"
)

// App bundles the core dependencies needed by the bot process.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Storage airtable.Storage
}

// InitializeApp loads configuration, builds the logger and connects the
// storage adapter. Configuration errors are returned before any network
// component is constructed.
func InitializeApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	client := airtable.NewClient(cfg.Auth.AirtableBase, cfg.Auth.AirtableKey, logger.Named("airtable"))
	storage := airtable.NewStorage(client, cfg.BotID, cfg.RandomSourceView, logger.Named("storage"))

	return &App{
		Config:  cfg,
		Logger:  logger,
		Storage: storage,
	}, nil
}

// Cleanup flushes any buffered log entries. Safe to call on a partially
// initialized App.
func (a *App) Cleanup() {
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
