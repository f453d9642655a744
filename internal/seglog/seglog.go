// Package seglog implements Kite's per-segment log stream: a timestamped,
// line-oriented file sink (truncated when the logger is created, appended
// thereafter) with an optional mirror to a shared console.
package seglog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cblog "github.com/charmbracelet/log"
)

// timeFormat renders millisecond-resolution local time per the spec's line
// format: [HH:MM:SS.mmm] [<segment>] <payload>.
const timeFormat = "15:04:05.000"

// Console mirrors severity-colored entries to a shared writer. Distinct
// segment Loggers sharing a Console serialize at the console's own mutex,
// so concurrent segments never interleave partial lines.
type Console struct {
	mu     sync.Mutex
	logger *cblog.Logger
}

// NewConsole builds a Console writing ANSI-colored entries to w.
func NewConsole(w io.Writer) *Console {
	return &Console{logger: cblog.NewWithOptions(w, cblog.Options{
		ReportTimestamp: false,
	})}
}

func (c *Console) mirror(segment, level, line string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch level {
	case "debug":
		c.logger.Debug(line, "segment", segment)
	case "warn":
		c.logger.Warn(line, "segment", segment)
	case "error":
		c.logger.Error(line, "segment", segment)
	default:
		c.logger.Info(line, "segment", segment)
	}
}

// Logger is the per-segment log stream handed to an executing segment's
// body through its ExecutionContext. One Logger instance exists per
// segment; concurrent segments each own a distinct instance writing to a
// distinct file, so there is no cross-segment interleaving at the file
// sink.
type Logger struct {
	segment string
	file    *os.File
	console *Console
	mu      sync.Mutex
}

// Open creates (truncating) the per-segment log file at
// <logDir>/<segment>.log, creating logDir on demand, and returns a Logger
// that writes to it. console may be nil to disable mirroring.
func Open(logDir, segment string, console *Console) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", logDir, err)
	}

	path := filepath.Join(logDir, segment+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	return &Logger{segment: segment, file: f, console: console}, nil
}

// Close releases the underlying log file. It is invoked by the scheduler
// once a segment's body returns, whatever the outcome.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) write(level, payload string) {
	if l == nil {
		return
	}
	ts := time.Now().Format(timeFormat)
	line := fmt.Sprintf("[%s] [%s] %s", ts, l.segment, payload)

	l.mu.Lock()
	fmt.Fprintln(l.file, line)
	l.mu.Unlock()

	l.console.mirror(l.segment, level, payload)
}

// Info writes an informational entry.
func (l *Logger) Info(message string) { l.write("info", message) }

// Debug writes a debug entry.
func (l *Logger) Debug(message string) { l.write("debug", message) }

// Warn writes a warning entry.
func (l *Logger) Warn(message string) { l.write("warn", message) }

// Error writes an error entry.
func (l *Logger) Error(message string) { l.write("error", message) }

// LogCommandStart records the invocation of an external command.
func (l *Logger) LogCommandStart(command string) {
	l.write("info", "$ "+command)
}

// LogCommandOutput records one chunk of command output, splitting it into
// lines and dropping any blank ones. isError selects the severity used for
// the mirrored console entry.
func (l *Logger) LogCommandOutput(text string, isError bool) {
	level := "info"
	if isError {
		level = "warn"
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		l.write(level, line)
	}
}

// LogCommandComplete records a command's terminal exit status and duration.
func (l *Logger) LogCommandComplete(command string, exitCode int, durationMs int64) {
	mark := "✓"
	level := "info"
	if exitCode != 0 {
		mark = "✗"
		level = "error"
	}
	l.write(level, fmt.Sprintf("Command %s (exit: %d, %dms)", mark, exitCode, durationMs))
}
