package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. level is one of debug, info, warn or
// error (default info). format "console" switches from JSON lines, which
// CloudWatch indexes, to human readable output for local runs.
func Init(level, format string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = New(os.Stderr, format)
}

// New returns a timestamped logger writing to w in the given format.
func New(w io.Writer, format string) zerolog.Logger {
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
