// Package logging configures zerolog for the promptpoll command and adapts it to promptpoll.Logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written: debug, info, warn or error.
	Level string

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a timestamped logger from cfg.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, NoColor: true}
	}
	return zerolog.New(output).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// OpenFile opens path for appending, creating it if needed.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Adapter satisfies promptpoll.Logger on top of a zerolog.Logger.
type Adapter struct {
	Logger zerolog.Logger
}

func NewAdapter(l zerolog.Logger) *Adapter {
	return &Adapter{Logger: l}
}

func (a *Adapter) Debug(args ...interface{}) {
	a.Logger.Debug().Msg(fmt.Sprint(args...))
}

func (a *Adapter) Debugf(format string, args ...interface{}) {
	a.Logger.Debug().Msgf(format, args...)
}

func (a *Adapter) Info(args ...interface{}) {
	a.Logger.Info().Msg(fmt.Sprint(args...))
}

func (a *Adapter) Infof(format string, args ...interface{}) {
	a.Logger.Info().Msgf(format, args...)
}

func (a *Adapter) Warn(args ...interface{}) {
	a.Logger.Warn().Msg(fmt.Sprint(args...))
}

func (a *Adapter) Warnf(format string, args ...interface{}) {
	a.Logger.Warn().Msgf(format, args...)
}

func (a *Adapter) Error(args ...interface{}) {
	a.Logger.Error().Msg(fmt.Sprint(args...))
}

func (a *Adapter) Errorf(format string, args ...interface{}) {
	a.Logger.Error().Msgf(format, args...)
}
