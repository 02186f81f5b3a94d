package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/adapters/remote"
	"github.com/technova/phishing-shield/internal/config"
	"github.com/technova/phishing-shield/internal/core"
	"github.com/technova/phishing-shield/internal/factory"
	"github.com/technova/phishing-shield/internal/heuristic"
	"github.com/technova/phishing-shield/internal/history"
	"github.com/technova/phishing-shield/internal/logging"
	"github.com/technova/phishing-shield/internal/patterns"
	"github.com/technova/phishing-shield/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register remote classification client
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*remote.Client, error) {
		timeout, err := cfg.GetDuration("remote.timeout")
		if err != nil {
			return nil, err
		}
		return remote.NewClient(cfg.GetString("remote.base_url"), timeout, logger), nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *remote.Client) core.RemoteClassifier {
		return c
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *remote.Client) core.AuditLog {
		return c
	}); err != nil {
		return nil, err
	}

	// Register heuristic fallback classifier
	if err := container.Provide(patterns.DefaultLibrary); err != nil {
		return nil, err
	}
	if err := container.Provide(heuristic.New); err != nil {
		return nil, err
	}

	// Register classification engine
	if err := container.Provide(func(cfg *config.Config, remoteClassifier core.RemoteClassifier, fallback *heuristic.Classifier, logger *zap.Logger) *core.Engine {
		return core.NewEngine(remoteClassifier, fallback, logger, cfg.GetInt("engine.batch_concurrency"))
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewGateFactory); err != nil {
		return nil, err
	}

	// Register scan store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ScanStore, error) {
		return f.CreateScanStore()
	}); err != nil {
		return nil, err
	}

	// Register history reconciler and poller
	if err := container.Provide(func(cfg *config.Config, store core.ScanStore, audit core.AuditLog, logger *zap.Logger) (*history.Reconciler, error) {
		historyCfg := cfg.GetHistory()
		remoteTimeout, err := cfg.GetDuration("history.remote_timeout")
		if err != nil {
			return nil, err
		}
		return history.NewReconciler(store, audit, logger, remoteTimeout, historyCfg.RemoteLimit), nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, reconciler *history.Reconciler, logger *zap.Logger) (*history.Poller, error) {
		interval, err := cfg.GetDuration("history.poll_interval")
		if err != nil {
			return nil, err
		}
		return history.NewPoller(reconciler, logger, interval), nil
	}); err != nil {
		return nil, err
	}

	// Register mail gate
	if err := container.Provide(func(f *factory.GateFactory) (ports.MessageGate, error) {
		return f.CreateMessageGate()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
