// Package diagnostics implements the ambient logging component: a
// small log.Logger wrapper with level prefixes that, in MCP/stdio
// mode, writes to a file instead of stdout/stderr so it never corrupts
// the MCP stdio transport's framing. Adapted directly from the
// teacher's internal/mcp/diagnostics.go DiagnosticLogger.
package diagnostics

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level is a diagnostic severity prefix.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger writes leveled diagnostics either to stderr (CLI mode) or to
// a timestamped file under the OS temp directory (stdio/MCP mode,
// where stdout/stderr are reserved for protocol framing).
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	logger   *log.Logger
	filePath string
	stdio    bool
}

// New builds a Logger. stdio must be true whenever stdout/stderr carry
// a wire protocol (the "serve" MCP mode); false is safe for ordinary
// CLI invocations.
func New(stdio bool) *Logger {
	l := &Logger{stdio: stdio}

	if !stdio {
		l.logger = log.New(os.Stderr, "[ctxpack] ", log.LstdFlags)
		return l
	}

	logDir := filepath.Join(os.TempDir(), "ctxpack-logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			logDir = filepath.Join(home, ".ctxpack-logs")
			_ = os.MkdirAll(logDir, 0o755)
		}
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("ctxpack-%s.log", time.Now().Format("2006-01-02T150405")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.logger = log.New(io.Discard, "", 0)
		return l
	}
	l.file = file
	l.filePath = logPath
	l.logger = log.New(file, "[ctxpack] ", log.LstdFlags)
	return l
}

func (l *Logger) log(level Level, format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("%s: %s", level, fmt.Sprintf(format, args...))
}

// Info logs at LevelInfo.
func (l *Logger) Info(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Error logs at LevelError.
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

// Close releases the backing log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// LogPath returns the diagnostic log file path, empty in CLI mode.
func (l *Logger) LogPath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Discard suppresses all logging; used by tests.
var Discard = &Logger{logger: log.New(io.Discard, "", 0)}
