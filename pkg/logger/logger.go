// Package logger defines the logging contract used across the client. By
// default the client logs nothing; pass an adapter (for example
// pkg/logger/zerolog) to see output.
package logger

// Logger accepts a message and alternating key/value args, the same shape
// log/slog and most structured loggers use.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noop struct{}

func (noop) Trace(string, ...any) {}
func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}

// NewNoOp returns a Logger that discards everything.
func NewNoOp() Logger { return noop{} }

// OrNoOp substitutes the no-op logger for nil so call sites never have to
// nil-check.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return noop{}
	}
	return l
}
