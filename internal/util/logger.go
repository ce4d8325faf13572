// internal/util/logger.go
package util

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger *zerolog.Logger

// InitLogger initializes the global structured logger.
// JSON goes to stdout unless pretty asks for the console writer.
// An unknown level falls back to info.
func InitLogger(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "membership").Logger()
	logger = &l
	return l
}

// GetLogger returns the initialized global logger.
func GetLogger() zerolog.Logger {
	if logger == nil {
		return InitLogger("info", false)
	}
	return *logger
}
