// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logging constructs the process-wide logger. The level comes from
// the environment once at startup; tests inject a no-op logger instead of
// reading the environment.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/luxfi/log"
)

// EnvVar controls log verbosity: error, warn, info, debug, or trace.
const EnvVar = "RANKED_VOTE_LOG_LEVEL"

// LevelTrace sits below slog's debug level.
const LevelTrace = slog.Level(-8)

// ParseLevel maps a level name to its slog level. Unknown names map to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelWarn
	}
}

// New returns a named logger at the level named by the environment,
// defaulting to warn.
func New(name string) log.Logger {
	logger := log.NewLogger(name)
	logger.SetLevel(ParseLevel(os.Getenv(EnvVar)))
	return logger
}

// NewNoOpLogger returns a logger that discards everything.
func NewNoOpLogger() log.Logger {
	return log.NewNoOpLogger()
}
