// Package logger is the leveled key/value logger shared by the fleet server
// and its CLI. Entries go to the console, a rotating log file and an
// in-memory ring buffer.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	TRACE
)

var levelNames = map[LogLevel]string{
	ERROR: "ERROR",
	WARN:  "WARN",
	INFO:  "INFO",
	DEBUG: "DEBUG",
	TRACE: "TRACE",
}

// LogFileName is the active log file inside the log directory. Rotated files
// are named fleet_<timestamp>.log.
const LogFileName = "fleet.log"

// MarshalText renders the level by name ("WARN").
func (l LogLevel) MarshalText() ([]byte, error) {
	name, ok := levelNames[l]
	if !ok {
		return nil, fmt.Errorf("unknown log level %d", int(l))
	}
	return []byte(name), nil
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Logger provides structured logging with levels
type Logger struct {
	mu              sync.RWMutex
	level           LogLevel
	logDir          string
	currentFile     *os.File
	currentFilePath string
	buffer          []LogEntry
	maxBufferSize   int
	rotationPolicy  RotationPolicy
	rateLimiters    map[string]time.Time
	console         io.Writer
	onLog           func(LogEntry)
}

// RotationPolicy defines when rotated log files are created and pruned.
type RotationPolicy struct {
	Enabled    bool
	MaxSizeMB  int
	MaxAgeDays int
	MaxFiles   int
}

// New creates a Logger. An empty logDir disables file output.
func New(level LogLevel, logDir string, maxBufferSize int) *Logger {
	if maxBufferSize <= 0 {
		maxBufferSize = 1
	}
	return &Logger{
		level:         level,
		logDir:        logDir,
		buffer:        make([]LogEntry, 0, maxBufferSize),
		maxBufferSize: maxBufferSize,
		rateLimiters:  make(map[string]time.Time),
		console:       os.Stdout,
		rotationPolicy: RotationPolicy{
			Enabled:    true,
			MaxSizeMB:  50,
			MaxAgeDays: 7,
			MaxFiles:   10,
		},
	}
}

// SetConsoleOutput enables or disables console output
func (l *Logger) SetConsoleOutput(enabled bool) {
	if enabled {
		l.SetConsoleWriter(os.Stdout)
		return
	}
	l.SetConsoleWriter(nil)
}

// SetConsoleWriter redirects console output; nil disables it.
func (l *Logger) SetConsoleWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
}

// SetOnLogCallback registers fn to receive every entry that passes the level
// filter. nil removes the callback.
func (l *Logger) SetOnLogCallback(fn func(LogEntry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLog = fn
}

// SetRotationPolicy configures log rotation
func (l *Logger) SetRotationPolicy(policy RotationPolicy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rotationPolicy = policy
}

// Error logs an error level message
func (l *Logger) Error(msg string, context ...interface{}) {
	l.log(ERROR, msg, context...)
}

// Warn logs a warning level message
func (l *Logger) Warn(msg string, context ...interface{}) {
	l.log(WARN, msg, context...)
}

// WarnRateLimited logs a warning at most once per interval for a given key.
func (l *Logger) WarnRateLimited(key string, interval time.Duration, msg string, context ...interface{}) {
	l.mu.Lock()
	now := time.Now()
	if last, ok := l.rateLimiters[key]; ok && now.Sub(last) < interval {
		l.mu.Unlock()
		return
	}
	l.rateLimiters[key] = now
	l.mu.Unlock()

	l.log(WARN, msg, context...)
}

// Info logs an info level message
func (l *Logger) Info(msg string, context ...interface{}) {
	l.log(INFO, msg, context...)
}

// Debug logs a debug level message
func (l *Logger) Debug(msg string, context ...interface{}) {
	l.log(DEBUG, msg, context...)
}

// Trace logs a trace level message
func (l *Logger) Trace(msg string, context ...interface{}) {
	l.log(TRACE, msg, context...)
}

func (l *Logger) log(level LogLevel, msg string, context ...interface{}) {
	l.mu.Lock()
	if level > l.level {
		l.mu.Unlock()
		return
	}

	ctx := make(map[string]interface{}, len(context)/2)
	for i := 0; i+1 < len(context); i += 2 {
		if key, ok := context[i].(string); ok {
			ctx[key] = context[i+1]
		}
	}
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Context:   ctx,
	}

	if len(l.buffer) >= l.maxBufferSize {
		l.buffer = l.buffer[1:]
	}
	l.buffer = append(l.buffer, entry)

	line := formatLogEntry(entry)
	if l.console != nil {
		fmt.Fprintln(l.console, line)
	}
	l.writeToFile(line)

	callback := l.onLog
	l.mu.Unlock()

	// Called without the lock so the callback may log.
	if callback != nil {
		callback(entry)
	}
}

func (l *Logger) writeToFile(line string) {
	if l.logDir == "" {
		return
	}
	if l.currentFile == nil {
		if err := os.MkdirAll(l.logDir, 0o755); err != nil {
			return
		}
		path := filepath.Join(l.logDir, LogFileName)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		l.currentFile = f
		l.currentFilePath = path
	}

	_, _ = l.currentFile.WriteString(line + "\n")

	if l.shouldRotate() {
		l.rotate()
	}
}

// formatLogEntry renders "timestamp [LEVEL] message k=v ..." with context
// keys sorted.
func formatLogEntry(entry LogEntry) string {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(levelNames[entry.Level])
	b.WriteString("] ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Context))
	for k := range entry.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Context[k])
	}
	return b.String()
}

func (l *Logger) shouldRotate() bool {
	if !l.rotationPolicy.Enabled || l.currentFile == nil || l.rotationPolicy.MaxSizeMB <= 0 {
		return false
	}
	stat, err := l.currentFile.Stat()
	if err != nil {
		return false
	}
	return stat.Size() >= int64(l.rotationPolicy.MaxSizeMB)*1024*1024
}

// rotate renames the active file to a timestamped backup and prunes old
// backups. Callers hold l.mu.
func (l *Logger) rotate() {
	if l.currentFile != nil {
		_ = l.currentFile.Close()
		l.currentFile = nil
		if l.currentFilePath != "" {
			backup := filepath.Join(l.logDir, "fleet_"+time.Now().Format("20060102_150405.000")+".log")
			_ = os.Rename(l.currentFilePath, backup)
		}
	}
	l.cleanOldFiles()
}

func (l *Logger) cleanOldFiles() {
	if l.logDir == "" {
		return
	}
	files, err := filepath.Glob(filepath.Join(l.logDir, "fleet_*.log"))
	if err != nil {
		return
	}
	sort.Strings(files)

	if l.rotationPolicy.MaxAgeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -l.rotationPolicy.MaxAgeDays)
		kept := files[:0]
		for _, f := range files {
			if stat, err := os.Stat(f); err == nil && stat.ModTime().Before(cutoff) {
				_ = os.Remove(f)
				continue
			}
			kept = append(kept, f)
		}
		files = kept
	}

	if max := l.rotationPolicy.MaxFiles; max > 0 && len(files) > max {
		for _, f := range files[:len(files)-max] {
			_ = os.Remove(f)
		}
	}
}

// GetBuffer returns a copy of the in-memory log buffer
func (l *Logger) GetBuffer() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.buffer)
}

// GetBufferFiltered returns buffered entries at or above the given severity.
func (l *Logger) GetBufferFiltered(minLevel LogLevel) []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	filtered := []LogEntry{}
	for _, entry := range l.buffer {
		if entry.Level <= minLevel {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// ForceRotate immediately rotates the current log file
func (l *Logger) ForceRotate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rotate()
}

// Close closes the current log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentFile != nil {
		err := l.currentFile.Close()
		l.currentFile = nil
		return err
	}
	return nil
}

// ParseLevel converts a level name (any case) to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return ERROR, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "INFO":
		return INFO, nil
	case "DEBUG":
		return DEBUG, nil
	case "TRACE":
		return TRACE, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
}

// LevelToString converts a LogLevel to a string
func LevelToString(level LogLevel) string {
	return levelNames[level]
}
