package factory

import (
	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/adapters/mailgate"
	"github.com/technova/phishing-shield/internal/config"
	"github.com/technova/phishing-shield/internal/core"
	"github.com/technova/phishing-shield/internal/ports"
	"github.com/technova/phishing-shield/internal/trust"
)

// GateFactory creates the SMTP mail gate
type GateFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *core.Engine
	store  core.ScanStore
}

// NewGateFactory creates a new gate factory
func NewGateFactory(cfg *config.Config, logger *zap.Logger, engine *core.Engine, store core.ScanStore) *GateFactory {
	return &GateFactory{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		store:  store,
	}
}

// CreateMessageGate creates the mail gate from configuration
func (f *GateFactory) CreateMessageGate() (ports.MessageGate, error) {
	serverCfg := f.cfg.GetServer()
	trusted := trust.NewChecker(serverCfg.TrustedDomains, f.logger)

	return mailgate.New(f.engine, f.store, trusted, f.logger, mailgate.Options{
		ListenAddr:    serverCfg.ListenAddress,
		BlockPhishing: serverCfg.BlockPhishing,
		VerdictHeader: serverCfg.VerdictHeader,
		RiskHeader:    serverCfg.RiskHeader,
		ReasonHeader:  serverCfg.ReasonHeader,
		RelayEnabled:  serverCfg.RelayEnabled,
		RelayAddr:     serverCfg.RelayAddress,
		RelayPort:     serverCfg.RelayPort,
	}), nil
}
