// Package logging sets up the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global level, and writes human-readable lines to stderr when
// format is "console" or JSON lines otherwise.
func Init(level, format string) error {
	return InitTo(os.Stderr, level, format)
}

// InitTo is Init, writing to w.
func InitTo(w io.Writer, level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("bad log level '%s': %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch format {
	case "console":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	case "json":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	default:
		return fmt.Errorf("bad log format '%s': want console or json", format)
	}

	zerolog.SetGlobalLevel(lvl)
	return nil
}
