package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/adapters/remote"
	"github.com/technova/phishing-shield/internal/config"
	"github.com/technova/phishing-shield/internal/core"
	"github.com/technova/phishing-shield/internal/factory"
	"github.com/technova/phishing-shield/internal/heuristic"
	"github.com/technova/phishing-shield/internal/history"
	"github.com/technova/phishing-shield/internal/logging"
	"github.com/technova/phishing-shield/internal/patterns"
)

// app bundles the wired-up services a subcommand needs. The CLI builds
// its dependencies directly from configuration rather than through the
// daemon's container.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	client     *remote.Client
	engine     *core.Engine
	store      core.ScanStore
	reconciler *history.Reconciler
}

// buildApp wires the CLI services from the config file and flag
// overrides.
func buildApp() (*app, error) {
	logger, err := logging.InitConsoleLogger(verbose, jsonLog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	remoteTimeout, err := cfg.GetDuration("remote.timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid remote timeout: %w", err)
	}
	client := remote.NewClient(cfg.GetString("remote.base_url"), remoteTimeout, logger)

	library := patterns.DefaultLibrary()
	fallback := heuristic.New(library, logger)
	engine := core.NewEngine(client, fallback, logger, cfg.GetInt("engine.batch_concurrency"))

	storeFactory := factory.NewStoreFactory(cfg, logger)
	store, err := storeFactory.CreateScanStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create scan store: %w", err)
	}

	historyTimeout, err := cfg.GetDuration("history.remote_timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid history remote timeout: %w", err)
	}
	reconciler := history.NewReconciler(store, client, logger, historyTimeout, cfg.GetInt("history.remote_limit"))

	return &app{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		engine:     engine,
		store:      store,
		reconciler: reconciler,
	}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if closer, ok := a.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Error("Failed to close scan store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		v := config.NewEmptyViper()
		v.SetConfigFile(cfgFile)
		if readErr := v.ReadInConfig(); readErr != nil {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
		cfg = config.NewFromViper(v)
	} else {
		cfg, err = config.New()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	v := cfg.GetViper()
	if baseURL != "" {
		v.Set("remote.base_url", baseURL)
	}
	if timeout != "" {
		v.Set("remote.timeout", timeout)
	}
	if storeType != "" {
		v.Set("store.type", storeType)
	}
	if sqlitePath != "" {
		v.Set("store.sqlite_path", sqlitePath)
	}
	if mysqlDSN != "" {
		v.Set("store.mysql_dsn", mysqlDSN)
	}

	return cfg, nil
}
