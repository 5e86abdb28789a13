// Package logs is the process-wide leveled logger.
//
// Call sites use printf-style helpers (Infof, Warnf, Errf, ...) and the
// message convention "pkg.Type.method key=value ...". Output goes through
// zerolog; Configure swaps the backing logger atomically.
package logs

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Level = zerolog.Level

const (
	TraceLevel = zerolog.TraceLevel
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	Disabled   = zerolog.Disabled
)

// Config selects level and console formatting for the process logger.
type Config struct {
	Level     Level
	Timestamp bool
	NoColor   bool
	// Bypass writes raw JSON lines instead of the console format.
	Bypass bool
	Out    io.Writer
}

func DefaultConfig() Config {
	return Config{
		Level:     InfoLevel,
		Timestamp: true,
		Out:       os.Stderr,
	}
}

var current atomic.Pointer[zerolog.Logger]

func init() {
	l := build(DefaultConfig())
	current.Store(&l)
}

// Configure replaces the process logger.
func Configure(cfg Config) {
	l := build(cfg)
	current.Store(&l)
}

// Logger returns the current zerolog logger for structured call sites.
func Logger() zerolog.Logger {
	return *current.Load()
}

func build(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if !cfg.Bypass {
		cw := zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
		}
		if !cfg.Timestamp {
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		out = cw
	}
	ctx := zerolog.New(out).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func Tracef(format string, args ...any) {
	l := current.Load()
	l.Trace().Msgf(format, args...)
}

func Debugf(format string, args ...any) {
	l := current.Load()
	l.Debug().Msgf(format, args...)
}

func Debug(msg string) {
	l := current.Load()
	l.Debug().Msg(msg)
}

func Infof(format string, args ...any) {
	l := current.Load()
	l.Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	l := current.Load()
	l.Warn().Msgf(format, args...)
}

func Errf(format string, args ...any) {
	l := current.Load()
	l.Error().Msgf(format, args...)
}

// Logf writes without a level so it survives any level filter except Disabled.
func Logf(format string, args ...any) {
	l := current.Load()
	l.Log().Msgf(format, args...)
}
