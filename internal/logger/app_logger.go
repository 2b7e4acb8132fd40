package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AppLogger reports the facility's own diagnostics: absorbed write
// failures, rotation problems, degraded metadata persistence. It writes
// to stderr so diagnostics never mix with an endpoint's payload, and it
// is deliberately tiny -- the endpoints themselves are the real logging
// surface.
type AppLogger struct {
	mu     sync.Mutex
	writer io.Writer
	level  Level
}

// Global instance
var (
	defaultAppLogger *AppLogger
	appLoggerOnce    sync.Once
)

// GetAppLogger returns the singleton instance of the diagnostics logger.
func GetAppLogger() *AppLogger {
	appLoggerOnce.Do(func() {
		defaultAppLogger = &AppLogger{
			writer: os.Stderr,
			level:  LevelWarning, // Default level
		}
	})
	return defaultAppLogger
}

// SetLogLevel sets the minimum diagnostics level.
func (l *AppLogger) SetLogLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetLogLevelFromString sets the diagnostics level from a level name.
func (l *AppLogger) SetLogLevelFromString(levelName string) error {
	level, err := ParseLevel(levelName)
	if err != nil {
		return err
	}
	l.SetLogLevel(level)
	return nil
}

// SetWriter redirects diagnostics output. Used by tests.
func (l *AppLogger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// logf formats and logs a message if the level is sufficient.
// PERFORMANCE: Lock is only held during checks and write, not during formatting.
func (l *AppLogger) logf(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	shouldSkip := !l.level.Allows(level)
	l.mu.Unlock()
	if shouldSkip {
		return
	}

	// Format message OUTSIDE the lock - this is the slow part
	now := time.Now().Format("2006-01-02T15:04:05Z07:00")
	message := fmt.Sprintf(format, args...)
	logLine := fmt.Sprintf("[%s] %s: %s\n", now, level.String(), message)

	l.mu.Lock()
	_, _ = fmt.Fprint(l.writer, logLine)
	l.mu.Unlock()
}

// Debug logs a diagnostic at DEBUG level
func (l *AppLogger) Debug(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

// Info logs a diagnostic at INFO level
func (l *AppLogger) Info(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

// Warn logs a diagnostic at WARNING level
func (l *AppLogger) Warn(format string, args ...interface{}) {
	l.logf(LevelWarning, format, args...)
}

// Error logs a diagnostic at ERROR level
func (l *AppLogger) Error(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}
