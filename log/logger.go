package log

// Logger defines a common interface shared by logging engines. The emission pipeline only ever
// logs through this interface, so callers can plug in whichever engine their process uses.
type Logger interface {
	// Debug logs a debug message.
	Debug(format string, v ...interface{})

	// Info logs an informational message.
	Info(format string, v ...interface{})

	// Warn logs a warning message.
	Warn(format string, v ...interface{})

	// Error logs an error message.
	Error(format string, v ...interface{})

	// Level returns the currently configured logging level.
	Level() Level
}

// NopLogger implements Logger but discards every message.
type NopLogger struct{}

// NewNopLogger creates a logger that discards everything.
func NewNopLogger() Logger {
	return &NopLogger{}
}

// Debug noops.
func (l *NopLogger) Debug(format string, v ...interface{}) {}

// Info noops.
func (l *NopLogger) Info(format string, v ...interface{}) {}

// Warn noops.
func (l *NopLogger) Warn(format string, v ...interface{}) {}

// Error noops.
func (l *NopLogger) Error(format string, v ...interface{}) {}

// Level reports Error, the least verbose level.
func (l *NopLogger) Level() Level {
	return Error
}
