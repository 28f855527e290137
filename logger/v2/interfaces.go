package v2

// Logger is the logging interface used across julesmcp.
// Implementations must be safe for concurrent use: every tool call logs
// through the same instance.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Fatal(msg string, err error, fields ...Field)

	// With returns a child logger that attaches fields to every entry.
	With(fields ...Field) Logger

	// Close releases any file handle opened by New.
	Close() error
}

// Field is a single structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}
