// Package logging constructs the single structured logger every
// subsystem in the engine is handed at startup.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a *zap.SugaredLogger. debug selects zap's human-readable
// development encoder (console, stack traces on warn+); production
// selects the JSON encoder suited to log aggregation.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}
