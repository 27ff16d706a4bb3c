// Package logging builds the structured logger shared by the server and the
// command. Logs always go to stderr because stdout carries the protocol.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "HSL_MATTE_LOG_LEVEL"  // debug, info, warn, error, disabled
	EnvFormat = "HSL_MATTE_LOG_FORMAT" // json (default) or console
)

// New returns a timestamped logger writing to w. An empty or unknown level
// falls back to info. Format "console" selects human-readable output.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "hsl-matte-mcp").
		Logger()
}

// FromEnv builds the logger from EnvLevel and EnvFormat, writing to stderr.
func FromEnv() zerolog.Logger {
	return New(os.Stderr, os.Getenv(EnvLevel), os.Getenv(EnvFormat))
}
