package app

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the logr.Logger handed to the simulation. Debug mode uses
// the development encoder and enables at least verbosity 1.
func newLogger(debug bool, verbosity int) (logr.Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		verbosity = max(verbosity, 1)
	}

	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, err
	}

	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}
