// Package logging provides the leveled, structured diagnostics log of grok-cli.
//
// Diagnostics never go to the terminal the chat is drawn on unless asked for:
// the default logger discards everything until Setup points it at stderr
// (--verbose) or at a log file (log_file in config.yaml).
//
// # Usage
//
//	closeLog, err := logging.Setup(logging.Config{
//	    Level:   "debug",
//	    Format:  "json",
//	    File:    "/tmp/grok.log",
//	})
//	defer closeLog()
//
//	log := logging.Named("api")
//	log.Debug("request sent", logging.Fields{"model": "grok-3"})
//
// Text output is a single line per entry with fields sorted by key:
//
//	[2026-01-02 15:04:05.000] DEBUG api: request sent model=grok-3
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = iota
	// LevelInfo is for general informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
	// LevelNone disables all logging
	LevelNone
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "NONE", "OFF":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Format represents the output format
type Format int

const (
	// FormatText outputs one human-readable line per entry
	FormatText Format = iota
	// FormatJSON outputs one JSON object per entry
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON and anything else to FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Fields is a map of structured log fields
type Fields map[string]any

// LogEntry is the JSON shape of a single entry
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Options configures a Logger
type Options struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger writes entries at or above its level. Loggers derived with Named
// share the parent's sink and settings.
type Logger struct {
	sink      *sink
	component string
	fields    Fields
}

type sink struct {
	mu     sync.Mutex
	level  Level
	format Format
	output io.Writer
	now    func() time.Time
}

// DefaultLogger is the process-wide logger. It discards output until Setup
// or SetOutput is called.
var DefaultLogger = New(Options{
	Level:  LevelInfo,
	Format: FormatText,
	Output: io.Discard,
})

// New creates a new Logger with the given options
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	return &Logger{sink: &sink{
		level:  opts.Level,
		format: opts.Format,
		output: opts.Output,
		now:    time.Now,
	}}
}

// Named returns a logger that tags its entries with component.
func (l *Logger) Named(component string) *Logger {
	name := component
	if l.component != "" {
		name = l.component + "." + component
	}
	return &Logger{sink: l.sink, component: name, fields: l.fields}
}

// WithFields returns a logger that adds fields to every entry.
func (l *Logger) WithFields(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, component: l.component, fields: merged}
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Level returns the current log level
func (l *Logger) Level() Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// SetFormat changes the output format
func (l *Logger) SetFormat(format Format) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.format = format
}

// SetOutput changes the output writer. A nil writer discards output.
func (l *Logger) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.Level() && level != LevelNone
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.log(LevelDebug, msg, nil, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Fields) {
	l.log(LevelInfo, msg, nil, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.log(LevelWarn, msg, nil, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, fields ...Fields) {
	l.log(LevelError, msg, err, fields)
}

func (l *Logger) log(level Level, msg string, err error, extra []Fields) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level || s.level == LevelNone {
		return
	}

	entry := LogEntry{
		Timestamp: s.now(),
		Level:     level.String(),
		Component: l.component,
		Message:   msg,
	}

	if len(l.fields) > 0 || len(extra) > 0 {
		merged := make(Fields, len(l.fields))
		for k, v := range l.fields {
			merged[k] = v
		}
		for _, f := range extra {
			for k, v := range f {
				merged[k] = v
			}
		}
		entry.Fields = merged
	}

	if err != nil {
		entry.Error = err.Error()
	}

	var line string
	if s.format == FormatJSON {
		line = formatJSON(entry)
	} else {
		line = formatText(entry)
	}

	fmt.Fprintln(s.output, line)
}

func formatJSON(entry LogEntry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal log entry: %s"}`, err.Error())
	}
	return string(data)
}

func formatText(entry LogEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s ", entry.Timestamp.Format("2006-01-02 15:04:05.000"), entry.Level)
	if entry.Component != "" {
		sb.WriteString(entry.Component)
		sb.WriteString(": ")
	}
	sb.WriteString(entry.Message)

	if entry.Error != "" {
		fmt.Fprintf(&sb, " error=%q", entry.Error)
	}

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Fields[k])
	}

	return sb.String()
}

// Config selects where the default logger writes.
type Config struct {
	Level   string
	Format  string
	File    string
	Verbose bool
}

// Setup configures DefaultLogger from cfg and returns a function that closes
// the log file, if one was opened. With neither Verbose nor File set the
// logger keeps discarding output.
func Setup(cfg Config) (func() error, error) {
	DefaultLogger.SetLevel(ParseLevel(cfg.Level))
	DefaultLogger.SetFormat(ParseFormat(cfg.Format))

	switch {
	case cfg.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		DefaultLogger.SetOutput(f)
		return func() error {
			DefaultLogger.SetOutput(io.Discard)
			return f.Close()
		}, nil
	case cfg.Verbose:
		if cfg.Level == "" {
			DefaultLogger.SetLevel(LevelDebug)
		}
		DefaultLogger.SetOutput(os.Stderr)
	default:
		DefaultLogger.SetOutput(io.Discard)
	}
	return func() error { return nil }, nil
}

// Named returns a component logger derived from DefaultLogger
func Named(component string) *Logger {
	return DefaultLogger.Named(component)
}

// Debug logs a debug message using the default logger
func Debug(msg string, fields ...Fields) {
	DefaultLogger.Debug(msg, fields...)
}

// Info logs an info message using the default logger
func Info(msg string, fields ...Fields) {
	DefaultLogger.Info(msg, fields...)
}

// Warn logs a warning message using the default logger
func Warn(msg string, fields ...Fields) {
	DefaultLogger.Warn(msg, fields...)
}

// Error logs an error message using the default logger
func Error(msg string, err error, fields ...Fields) {
	DefaultLogger.Error(msg, err, fields...)
}
