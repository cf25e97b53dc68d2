package log

import (
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface. Messages are formatted printf
// style and emitted as the zerolog message field.
type ZerologLogger struct {
	logger zerolog.Logger
	level  Level
}

// NewZerologLogger creates a structured JSON logger writing to out, limited to the specified level.
func NewZerologLogger(level Level, out io.Writer) Logger {
	logger := zerolog.New(out).
		Level(zerologLevel(level)).
		With().
		Timestamp().
		Logger()

	return &ZerologLogger{logger: logger, level: level}
}

// WrapZerolog adapts an existing zerolog.Logger. Its own level, if any, still applies.
func WrapZerolog(logger zerolog.Logger, level Level) Logger {
	return &ZerologLogger{logger: logger, level: level}
}

// Debug logs a debug message.
func (l *ZerologLogger) Debug(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

// Info logs an informational message.
func (l *ZerologLogger) Info(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Warn logs a warning message.
func (l *ZerologLogger) Warn(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

// Error logs an error message.
func (l *ZerologLogger) Error(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

// Level reads the current logging level.
func (l *ZerologLogger) Level() Level {
	return l.level
}

// zerologLevel maps a Level onto the equivalent zerolog level.
func zerologLevel(level Level) zerolog.Level {
	switch level {
	case Debug:
		return zerolog.DebugLevel
	case Info:
		return zerolog.InfoLevel
	case Warn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
