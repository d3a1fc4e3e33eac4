package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Init configures the global zerolog logger. A nil writer means stderr.
func Init(level, format string, w io.Writer) error {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("[logging Init] invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	switch format {
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	case FormatJSON, "":
	default:
		return fmt.Errorf("[logging Init] unknown log format %q", format)
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	// zerolog.Ctx falls back to the global logger for contexts without one.
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}
