// Package logger implements a logging adapter using log/slog.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/masq"
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Logger = (*Logger)(nil)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger *slog.Logger
	mu     sync.RWMutex
	output io.Writer
	format domain.LogFormat
	level  slog.Level
}

// New creates a new Logger writing text to stderr.
func New() ports.Logger {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a new Logger writing text to w.
func NewWithWriter(w io.Writer) *Logger {
	l := &Logger{
		output: w,
		format: domain.LogFormatText,
		level:  slog.LevelInfo,
	}
	l.logger = slog.New(newHandler(l.output, l.format, l.level))
	return l
}

// SetOutput updates the logger's output destination.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.logger = slog.New(newHandler(l.output, l.format, l.level))
}

// Configure switches the output format and minimum level.
func (l *Logger) Configure(format, level string) error {
	lvl, ok := domain.ParseLogLevel(level)
	if !ok {
		return errors.Join(domain.ErrInvalidOption, zerr.With(zerr.New("invalid log level"), "value", level))
	}

	f := domain.LogFormat(format)
	switch f {
	case domain.LogFormatText, domain.LogFormatJSON:
	case "":
		f = domain.LogFormatText
	default:
		return errors.Join(
			domain.ErrInvalidOption,
			zerr.With(zerr.New("invalid log format, should be 'json' or 'text'"), "value", format),
		)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.format = f
	l.level = slog.Level(lvl)
	l.logger = slog.New(newHandler(l.output, l.format, l.level))
	return nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg, args...)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Error("operation failed", "error", err)
}

func newHandler(w io.Writer, format domain.LogFormat, level slog.Level) slog.Handler {
	filter := newFilter()

	if format == domain.LogFormatJSON {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	}

	return clog.New(
		clog.WithWriter(w),
		clog.WithLevel(level),
		clog.WithReplaceAttr(filter),
	)
}

func newFilter() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		// Mask value with `masq:"secret"` tag
		masq.WithTag("secret"),
		masq.WithType[domain.Token](masq.MaskWithSymbol('*', 16)),
	)
}
