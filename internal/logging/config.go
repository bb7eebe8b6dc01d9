package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "MCPPROXY_LOG_LEVEL"
	EnvLogTimestamp = "MCPPROXY_LOG_TIMESTAMP"
	EnvLogNoColor   = "MCPPROXY_LOG_NOCOLOR"
)

// Config controls the diagnostic logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

// DefaultConfig returns the runtime configuration; verbose lowers the level to debug.
func DefaultConfig(verbose bool) Config {
	cfg := Config{Level: zerolog.InfoLevel, Timestamp: true}
	if verbose {
		cfg.Level = zerolog.DebugLevel
	}
	return cfg
}

// New creates a console logger writing to w, with environment overrides applied
// and a per run id attached.
func New(w io.Writer, verbose bool) zerolog.Logger {
	cfg := DefaultConfig(verbose)
	applyEnvOverrides(&cfg)
	return cfg.Logger(w).With().Str("run", uuid.NewString()).Logger()
}

// Logger builds a zerolog logger for cfg.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: w, NoColor: c.NoColor, TimeFormat: time.RFC3339}
	if !c.Timestamp {
		writer.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(writer).Level(c.Level).With()
	if c.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "warning":
		return zerolog.WarnLevel, true
	case "off", "none":
		return zerolog.Disabled, true
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
