package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Logger is a wrapper around the standard library logger
type Logger struct {
	*log.Logger
	tag   string
	debug bool
}

// New creates a new logger tagged with the given component or session.
// Debug output is enabled by setting LOG_DEBUG.
func New(tag string) *Logger {
	return &Logger{
		Logger: log.New(os.Stdout, "", 0),
		tag:    tag,
		debug:  os.Getenv("LOG_DEBUG") != "",
	}
}

// NewWithWriter creates a logger writing to w. Tests pass io.Discard.
func NewWithWriter(w io.Writer, tag string) *Logger {
	return &Logger{
		Logger: log.New(w, "", 0),
		tag:    tag,
		debug:  true,
	}
}

// With returns a logger sharing the output of l but carrying a different tag
func (l *Logger) With(tag string) *Logger {
	return &Logger{
		Logger: l.Logger,
		tag:    tag,
		debug:  l.debug,
	}
}

// formatMessage formats a log message with timestamp and tag
func (l *Logger) formatMessage(level, format string, v ...interface{}) string {
	timestamp := time.Now().Format(time.RFC3339)
	message := fmt.Sprintf(format, v...)

	if l.tag != "" {
		return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, level, l.tag, message)
	}

	return fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.Logger.Println(l.formatMessage("INFO", format, v...))
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.Logger.Println(l.formatMessage("ERROR", format, v...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	if !l.debug {
		return
	}
	l.Logger.Println(l.formatMessage("DEBUG", format, v...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.Logger.Println(l.formatMessage("WARN", format, v...))
}

// Global logger instance for application-wide logging
var Global = New("")

// SetGlobal sets the global logger
func SetGlobal(logger *Logger) {
	Global = logger
}
