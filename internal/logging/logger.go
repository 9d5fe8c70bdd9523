package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// EnvLevel overrides the configured log level.
	EnvLevel = "TIERED_LOG_LEVEL"
	// EnvNoColor disables colored console output when truthy.
	EnvNoColor = "TIERED_LOG_NOCOLOR"
)

// Options controls logger construction.
type Options struct {
	App     string
	Level   string
	NoColor bool
	// JSON writes structured lines instead of the console format.
	JSON bool
	Out  io.Writer
}

// New builds the process logger and installs it as the zerolog global.
// Environment overrides win over opts.
func New(opts Options) zerolog.Logger {
	applyEnv(&opts)

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}
	}

	logger := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("app", opts.App).
		Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func applyEnv(opts *Options) {
	if v := strings.TrimSpace(os.Getenv(EnvLevel)); v != "" {
		opts.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNoColor)); v != "" {
		if noColor, err := strconv.ParseBool(v); err == nil {
			opts.NoColor = noColor
		}
	}
}
