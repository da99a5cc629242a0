// Package logger configures the global zerolog logger shared by the commands.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points log.Logger at a console writer on stderr with the given level.
// An unparsable level falls back to info.
func Setup(logLevel string) {
	SetupWriter(os.Stderr, logLevel)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, logLevel string) {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	log.Logger = log.Logger.Level(ParseLevel(logLevel))
}

// ParseLevel parses a zerolog level name, defaulting to info.
func ParseLevel(logLevel string) zerolog.Level {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || logLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}
