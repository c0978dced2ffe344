// Package logging builds the node's *zap.Logger at construction time.
// Every component takes a logger through its constructor; nothing here
// is reached through a package-level global, the way this corpus's own
// go-ethereum-style logging shims warn against hidden singletons
// (spec.md §9: "express [...] the logging initializer as
// construction-time parameters on the node builder, not as hidden
// globals").
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger's level and encoding.
type Config struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// JSON selects structured JSON output; otherwise a human-readable
	// console encoder is used.
	JSON bool
}

// New builds a *zap.Logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	if !cfg.JSON {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}
