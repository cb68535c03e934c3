package ember

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// LogLevel represents log severity levels.
// Aligned with slog.Level for compatibility with the standard library.
type LogLevel int

const (
	// LogLevelDebug logs detailed diagnostic information
	LogLevelDebug LogLevel = -4

	// LogLevelInfo logs general informational messages
	LogLevelInfo LogLevel = 0

	// LogLevelWarn logs warning messages (degraded pipeline stages)
	LogLevelWarn LogLevel = 4

	// LogLevelError logs error conditions
	LogLevelError LogLevel = 8
)

// LogFormat defines the output format for log messages.
type LogFormat string

const (
	// LogFormatJSON outputs structured JSON logs
	// Best for: production, log aggregation, parsing
	LogFormatJSON LogFormat = "json"

	// LogFormatText outputs human-readable text logs
	// Best for: development, console output
	LogFormatText LogFormat = "text"
)

// LoggerConfig holds logger configuration.
//
// Configuration Philosophy:
//   - Development: text format, debug level
//   - Production: JSON format, info level
type LoggerConfig struct {
	// Level specifies the minimum log level to output.
	// Messages below this level are discarded.
	Level LogLevel

	// Format specifies output format (json or text).
	Format LogFormat

	// Output specifies where logs are written.
	// Default: os.Stdout
	Output io.Writer

	// AddSource includes source code location in logs.
	// Useful for debugging but adds overhead.
	AddSource bool

	// TimeFormat specifies the timestamp format.
	// Default: time.RFC3339
	TimeFormat string

	// AppName is added to all log entries as the "app" field.
	AppName string
}

// DefaultLoggerConfig returns a logger configuration suitable for
// development: text output at info level on stdout.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      LogLevelInfo,
		Format:     LogFormatText,
		Output:     os.Stdout,
		TimeFormat: time.RFC3339,
	}
}

// ProductionLoggerConfig returns a logger configuration suitable for
// production: JSON output at info level on stdout.
func ProductionLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      LogLevelInfo,
		Format:     LogFormatJSON,
		Output:     os.Stdout,
		TimeFormat: time.RFC3339,
	}
}

// Logger wraps slog.Logger as the process-wide diagnostic sink.
// All pipeline warnings (minifier, compressor and ETag failures) and server
// access logs are written through it.
type Logger struct {
	slog   *slog.Logger
	config LoggerConfig
}

// NewLogger creates a logger from the given configuration.
//
// Example:
//
//	logger := ember.NewLogger(ember.ProductionLoggerConfig())
//	cfg.Logger = logger
func NewLogger(config LoggerConfig) *Logger {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.TimeFormat == "" {
		config.TimeFormat = time.RFC3339
	}

	opts := &slog.HandlerOptions{
		Level:     slog.Level(config.Level),
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(config.TimeFormat))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch config.Format {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(config.Output, opts)
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}

	logger := slog.New(handler)
	if config.AppName != "" {
		logger = logger.With("app", config.AppName)
	}

	return &Logger{slog: logger, config: config}
}

// With returns a logger with the given attributes attached to every entry.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{slog: l.slog.With(args...), config: l.config}
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.slog.Debug(msg, args...)
}

// Info logs a message at info level.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.slog.Info(msg, args...)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.slog.Warn(msg, args...)
}

// Error logs a message at error level.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.slog.Error(msg, args...)
}

// Underlying returns the wrapped slog.Logger for advanced use.
func (l *Logger) Underlying() *slog.Logger {
	return l.slog
}

var (
	defaultLogger   *Logger
	defaultLoggerMu sync.RWMutex
)

// SetDefaultLogger replaces the package default logger used by handlers
// constructed without an explicit Config.Logger.
func SetDefaultLogger(logger *Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// GetDefaultLogger returns the package default logger, creating it with
// DefaultLoggerConfig on first use.
func GetDefaultLogger() *Logger {
	defaultLoggerMu.RLock()
	if defaultLogger != nil {
		defer defaultLoggerMu.RUnlock()
		return defaultLogger
	}
	defaultLoggerMu.RUnlock()

	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(DefaultLoggerConfig())
	}
	return defaultLogger
}
