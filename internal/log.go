package internal

import (
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel orders log verbosity; a logger prints everything at or below its level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE"}

func (l LogLevel) String() string {
	if l < LogLevelError || l > LogLevelTrace {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel maps a LOG_LEVEL value to a level, case-insensitively
func ParseLogLevel(s string) (LogLevel, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i), true
		}
	}
	return LogLevelInfo, false
}

// Logger is a leveled logger. Component loggers share the parent's sink and
// level and prefix each line with "[Component]".
type Logger struct {
	level     LogLevel
	component string
	out       *log.Logger
}

// NewLogger creates a logger writing to the standard logger's output
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level, out: log.Default()}
}

// NewLoggerTo creates a logger writing to w with the standard flags
func NewLoggerTo(w io.Writer, level LogLevel) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// NewDefaultLogger creates a logger based on the LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	level, _ := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	return NewLogger(level)
}

// Component returns a logger tagging every line with name
func (l *Logger) Component(name string) *Logger {
	return &Logger{level: l.level, component: name, out: l.out}
}

func (l *Logger) printf(level LogLevel, format string, args ...interface{}) {
	if l.level < level {
		return
	}
	prefix := "[" + level.String() + "] "
	if l.component != "" {
		prefix += "[" + l.component + "] "
	}
	l.out.Printf(prefix+format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) { l.printf(LogLevelError, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.printf(LogLevelWarn, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.printf(LogLevelInfo, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.printf(LogLevelDebug, format, args...) }
func (l *Logger) Trace(format string, args ...interface{}) { l.printf(LogLevelTrace, format, args...) }

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// DefaultLogger is the process-wide logger, configured from LOG_LEVEL
var DefaultLogger = NewDefaultLogger()
