// Package applog builds the zap logger used across authcached, and wires
// the REDIS_DEBUG environment variable the store package checks
// (spec.md §6 "Environment variables").
package applog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger at level, matching the teacher's convention of a
// human-readable development config at "debug" and a production JSON
// config otherwise.
func New(level string) (*zap.Logger, error) {
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// RedisDebugEnabled reports whether REDIS_DEBUG is set, matching
// internal/store's own check so callers can log the setting once at
// startup instead of leaving it silent.
func RedisDebugEnabled() bool {
	return os.Getenv("REDIS_DEBUG") != ""
}
