// Package logging builds the zap logger used by the widget binary.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr at the given level ("debug", "info",
// "warn" or "error") in the given format ("json" or "console").
func New(level string, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var conf zap.Config
	switch format {
	case "json":
		conf = zap.NewProductionConfig()
	case "console":
		conf = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %q", format)
	}
	conf.Level = zap.NewAtomicLevelAt(lvl)
	conf.OutputPaths = []string{"stderr"}
	conf.ErrorOutputPaths = []string{"stderr"}

	return conf.Build()
}
