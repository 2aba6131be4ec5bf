package dbfactory

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// LogLevel determines which messages a std Logger writes
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
)

// LogFormat is the output format of a std Logger
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Logger is an option that can be passed to Open and NewExecutor
//
// SQL is called once for every statement executed, with the error (if any) the statement failed with
type Logger interface {
	Info(format string, args ...any)
	Error(format string, args ...any)
	SQL(query string, duration time.Duration, err error, args ...any)
}

// NopLogger is the default Logger - it discards everything
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)                       {}
func (nopLogger) Error(string, ...any)                      {}
func (nopLogger) SQL(string, time.Duration, error, ...any) {}

// NewStdLogger creates a Logger writing to w
//
// failed statements are written at LogLevelError, all others at LogLevelInfo
func NewStdLogger(w io.Writer, level LogLevel, format LogFormat) Logger {
	if format == "" {
		format = LogFormatText
	}
	return &stdLogger{
		writer: w,
		level:  level,
		format: format,
	}
}

type stdLogger struct {
	mu     sync.Mutex
	writer io.Writer
	level  LogLevel
	format LogFormat
}

func (l *stdLogger) Info(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.log("INFO", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) Error(format string, args ...any) {
	if l.level >= LogLevelError {
		l.log("ERROR", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) SQL(query string, duration time.Duration, err error, args ...any) {
	if err != nil && l.level >= LogLevelError {
		l.log("ERROR", query, map[string]any{"duration": duration.String(), "args": args, "error": err.Error()})
	} else if err == nil && l.level >= LogLevelInfo {
		l.log("SQL", query, map[string]any{"duration": duration.String(), "args": args})
	}
}

func (l *stdLogger) log(level string, msg string, fields map[string]any) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.format == LogFormatJSON {
		data := make(map[string]any, len(fields)+3)
		for k, v := range fields {
			data[k] = v
		}
		data["time"] = now.Format(time.RFC3339)
		data["level"] = level
		data["msg"] = msg
		_ = json.NewEncoder(l.writer).Encode(data)
		return
	}
	if fields == nil {
		_, _ = fmt.Fprintf(l.writer, "[DBFACTORY] %s %s: %s\n", now.Format(time.DateTime), level, msg)
	} else if errMsg, ok := fields["error"]; ok {
		_, _ = fmt.Fprintf(l.writer, "[DBFACTORY] %s %s: [%s] %s | args: %v | error: %s\n", now.Format(time.DateTime), level, fields["duration"], msg, fields["args"], errMsg)
	} else {
		_, _ = fmt.Fprintf(l.writer, "[DBFACTORY] %s %s: [%s] %s | args: %v\n", now.Format(time.DateTime), level, fields["duration"], msg, fields["args"])
	}
}
