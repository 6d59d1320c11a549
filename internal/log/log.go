// Package log provides structured, leveled logging for the register store.
// It is the telemetry sink for non-fatal engine outcomes (unresolved
// references, write-back failures) and logs structured key-value context
// (object id, target id, field path). Logging is disabled until Init is
// called; every logging function is a no-op before that.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

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
	default:
		return "UNKNOWN"
	}
}

// Category groups related log messages by subsystem.
type Category string

const (
	CatAnalyzer  Category = "analyzer"  // schema analysis and composition
	CatResolver  Category = "resolver"  // reference classification
	CatScanner   Category = "scanner"   // relation edge discovery
	CatCascade   Category = "cascade"   // inline child creation
	CatWriteBack Category = "writeback" // inverse relation write-back
	CatSQLite    Category = "sqlite"    // storage backend operations
	CatCLI       Category = "cli"       // command-line interface
)

// Logger writes timestamped, leveled, categorized key-value entries.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	enabled  bool
	minLevel Level
}

var (
	defaultLogger *Logger
	defaultMu     sync.Mutex
)

// Init initializes the global logger writing to the given file path.
// Returns a cleanup function that closes the log file.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	defaultMu.Lock()
	defaultLogger = &Logger{
		file:     f,
		writer:   f,
		enabled:  true,
		minLevel: LevelDebug,
	}
	defaultMu.Unlock()

	return func() { _ = f.Close() }, nil
}

// InitWriter initializes the global logger writing to an arbitrary writer.
// Used by tests and by the CLI when logging to stderr.
func InitWriter(w io.Writer) {
	defaultMu.Lock()
	defaultLogger = &Logger{
		writer:   w,
		enabled:  true,
		minLevel: LevelDebug,
	}
	defaultMu.Unlock()
}

// SetEnabled toggles logging on or off.
func SetEnabled(enabled bool) {
	defaultMu.Lock()
	l := defaultLogger
	defaultMu.Unlock()
	if l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel sets the minimum level that is written.
func SetMinLevel(level Level) {
	defaultMu.Lock()
	l := defaultLogger
	defaultMu.Unlock()
	if l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	write(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	write(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	write(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	write(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error message with the error value appended as a field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	write(LevelError, cat, msg, fields...)
}

func write(level Level, cat Category, msg string, fields ...any) {
	defaultMu.Lock()
	l := defaultLogger
	defaultMu.Unlock()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || level < l.minLevel {
		return
	}

	// Format: 2026-08-29T10:45:00 [WARN] [scanner] message key=value
	timestamp := time.Now().Format("2006-01-02T15:04:05")
	entry := fmt.Sprintf("%s [%s] [%s] %s", timestamp, level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		entry += fmt.Sprintf(" %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		entry += fmt.Sprintf(" %v=", fields[len(fields)-1])
	}

	fmt.Fprintln(l.writer, entry)
}
