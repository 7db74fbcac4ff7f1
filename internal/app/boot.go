package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"telpy/internal/config"
	"telpy/internal/logger"
	"telpy/internal/store"
)

// App bundles what every command needs once booted.
type App struct {
	Config *config.Config
	Store  *store.Store
	Logger *slog.Logger
}

// Boot loads the configuration, sets up logging and opens the history store.
// A missing file at the default path is not an error; the built-in defaults
// are used instead.
func Boot(configPath string, quiet bool) (*App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Loggers, quiet)

	// Prepare the data store
	dir := cfg.Paths.Data
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data path: %w", err)
	}

	st, err := store.New(filepath.Clean(filepath.Join(dir, "history.sqlite3")), true)
	if err != nil {
		return nil, fmt.Errorf("failed to open the history store: %w", err)
	}

	if len(cfg.LoadedFiles) > 0 {
		log.Debug("Loaded configuration", "files", cfg.LoadedFiles)
	}

	return &App{Config: cfg, Store: st, Logger: log}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && path == DefaultConfigPath {
		return config.Default(), nil
	}
	return cfg, err
}

// DefaultConfigPath is used when neither --config nor TELPY_CONFIG is set.
const DefaultConfigPath = "telpy.yml"
