package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. Unknown levels fall back to info; verbose forces debug.
func New(level string, development, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// ParseLevel maps a config string to a zap level.
func ParseLevel(value string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(value))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
