package v2

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// loggerImpl implements Logger on top of logrus
type loggerImpl struct {
	logrus *logrus.Logger
	files  []*os.File
	fields []Field // preset fields for child loggers
}

// New creates a logger from cfg. Empty fields fall back to DefaultConfig.
func New(cfg Config) (Logger, error) {
	def := DefaultConfig()
	if cfg.Level == "" {
		cfg.Level = def.Level
	}
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if cfg.Output == "" {
		cfg.Output = def.Output
	}

	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	l.SetLevel(level)

	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
	l.SetReportCaller(true)

	var files []*os.File
	var writer io.Writer

	switch strings.ToLower(cfg.Output) {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := openLogFile(cfg.Output)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		writer = f
	}

	if cfg.FilePath != "" {
		f, err := openLogFile(cfg.FilePath)
		if err != nil {
			closeAll(files)
			return nil, err
		}
		files = append(files, f)
		writer = io.MultiWriter(writer, f)
	}

	l.SetOutput(writer)

	return &loggerImpl{
		logrus: l,
		files:  files,
	}, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	//nolint:gosec // G304: path comes from operator configuration
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// NewDefault creates a logger with DefaultConfig, falling back to a no-op
// logger if that somehow fails.
func NewDefault() Logger {
	l, err := New(DefaultConfig())
	if err != nil {
		return NewNoop()
	}
	return l
}

// NewNoop creates a logger that discards everything. Used by tests.
func NewNoop() Logger {
	return &noopLogger{}
}

type noopLogger struct{}

func (n *noopLogger) Debug(msg string, fields ...Field)            {}
func (n *noopLogger) Info(msg string, fields ...Field)             {}
func (n *noopLogger) Warn(msg string, fields ...Field)             {}
func (n *noopLogger) Error(msg string, err error, fields ...Field) {}
func (n *noopLogger) Fatal(msg string, err error, fields ...Field) {}
func (n *noopLogger) With(fields ...Field) Logger                  { return n }
func (n *noopLogger) Close() error                                 { return nil }

func (l *loggerImpl) entry(fields []Field) *logrus.Entry {
	lf := make(logrus.Fields, len(l.fields)+len(fields))
	for _, f := range l.fields {
		lf[f.Key] = f.Value
	}
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return l.logrus.WithFields(lf)
}

func (l *loggerImpl) Debug(msg string, fields ...Field) {
	l.entry(fields).Debug(msg)
}

func (l *loggerImpl) Info(msg string, fields ...Field) {
	l.entry(fields).Info(msg)
}

func (l *loggerImpl) Warn(msg string, fields ...Field) {
	l.entry(fields).Warn(msg)
}

func (l *loggerImpl) Error(msg string, err error, fields ...Field) {
	e := l.entry(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func (l *loggerImpl) Fatal(msg string, err error, fields ...Field) {
	e := l.entry(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Fatal(msg)
}

func (l *loggerImpl) With(fields ...Field) Logger {
	// Copy so sibling children never share a backing array.
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &loggerImpl{
		logrus: l.logrus,
		fields: merged,
	}
}

func (l *loggerImpl) Close() error {
	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.files = nil
	return firstErr
}
