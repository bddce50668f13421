package logger_test

import (
	"errors"

	"github.com/ftsfr/wrds-crsp-compustat/pkg/config"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Pipeline started")
	log.WithField("rows", 3_400_000).Info("Loaded security months")
}

// Example_withFields demonstrates the per-stage summary line
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	log.WithRunID("4f1c").WithFields(map[string]interface{}{
		"stage":       "S1_UNIVERSE",
		"input_rows":  3400000,
		"output_rows": 2100000,
		"duration_ms": 812,
	}).Info("stage completed")
}

// Example_withError demonstrates error logging
func Example_withError() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "error",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	err := errors.New("MISSING_COLUMN: Compustat column \"seq\"")
	log.WithError(err).Error("Pipeline aborted")
}
