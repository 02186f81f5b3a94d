// Package logging builds the process logger. Every binary funnels
// through build so the daemon and the CLI emit identical fields and
// only differ in level and encoding.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/technova/phishing-shield/internal/config"
)

// FormatJSON selects the machine-readable encoder; anything else gets
// the human console encoder.
const FormatJSON = "json"

// InitLogger creates a logger from the logging.level and logging.format
// configuration keys.
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	return build(cfg.GetString("logging.level"), cfg.GetString("logging.format"))
}

// InitConsoleLogger creates a logger for interactive CLI use. verbose
// lowers the level to debug, jsonFormat switches to the JSON encoder.
func InitConsoleLogger(verbose, jsonFormat bool) (*zap.Logger, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	format := "console"
	if jsonFormat {
		format = FormatJSON
	}
	return build(level, format)
}

func build(level, format string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zapCfg zap.Config
	if format == FormatJSON {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(parsed)
	// Stack traces on warnings drown the fallback path, which warns on
	// every remote outage.
	zapCfg.DisableStacktrace = true

	return zapCfg.Build()
}
