// Package logging sets up the process-wide zerolog logger used by every
// other forge package. It must be imported (and its init run) before any
// package that logs during its own init.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// base is the shared, process-wide logger. Packages reach it through
// logging.Log() or logging.For() rather than constructing their own.
var base zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if v := os.Getenv("FORGE_LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	base = zerolog.New(writer).With().Timestamp().Logger()
}

// Log returns the shared logger.
func Log() *zerolog.Logger {
	return &base
}

// For returns a child logger scoped to a named component, e.g.
// logging.For("toolchain").
func For(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}
