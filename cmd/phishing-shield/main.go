package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/config"
	"github.com/technova/phishing-shield/internal/core"
	"github.com/technova/phishing-shield/internal/di"
	"github.com/technova/phishing-shield/internal/history"
	"github.com/technova/phishing-shield/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	gate ports.MessageGate,
	poller *history.Poller,
	store core.ScanStore,
) error {
	defer logger.Sync()

	// Start the mail gate
	if cfg.GetBool("server.enabled") {
		if err := gate.Start(); err != nil {
			logger.Fatal("Failed to start mail gate", zap.Error(err))
			return err
		}
	} else {
		logger.Info("Mail gate disabled by configuration")
	}

	// Start the history poller
	if err := poller.Start(); err != nil {
		logger.Fatal("Failed to start history poller", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the mail gate
	if cfg.GetBool("server.enabled") {
		if err := gate.Stop(); err != nil {
			logger.Error("Failed to stop mail gate", zap.Error(err))
		}
	}

	// Stop the poller
	poller.Stop()

	// Close any resources that need closing
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close scan store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
