// Package logging configures the global zerolog logger. The terminal belongs
// to the UI, so log output goes to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a config level name onto a zerolog level
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// New builds a logger writing to w at level
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Setup points the global logger at the file at path. The returned closer
// must be closed on shutdown.
func Setup(level, path string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = New(f, lvl)
	log.Debug().Str("path", path).Str("level", lvl.String()).Msg("logging initialised")
	return f, nil
}

// Console points the global logger at stderr, for non-interactive commands
func Console(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	log.Logger = New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, lvl)
	return nil
}
