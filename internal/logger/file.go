package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harrison/casegen/internal/budget"
	"github.com/harrison/casegen/internal/models"
)

// LatestLogName is the symlink that always points at the newest run log.
const LatestLogName = "latest.log"

// FileLogger writes a timestamped run log and keeps LatestLogName pointing
// at the most recent run.
type FileLogger struct {
	mu    sync.Mutex
	out   *os.File
	path  string
	level string
}

// NewFileLogger opens run-YYYYMMDD-HHMMSS.log in dir, creating the
// directory when needed.
func NewFileLogger(dir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	started := time.Now()
	path := filepath.Join(dir, "run-"+started.Format("20060102-150405")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	if err := pointLatest(dir, filepath.Base(path)); err != nil {
		f.Close()
		return nil, err
	}

	fl := &FileLogger{out: f, path: path, level: normalizeLogLevel(logLevel)}
	fl.write(fmt.Sprintf("=== casegen run log ===\nStarted at: %s\n\n", started.Format(time.RFC3339)))
	return fl, nil
}

// pointLatest replaces the latest.log symlink in dir with one to name.
func pointLatest(dir, name string) error {
	link := filepath.Join(dir, LatestLogName)
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace %s: %w", LatestLogName, err)
	}
	if err := os.Symlink(name, link); err != nil {
		return fmt.Errorf("link %s: %w", LatestLogName, err)
	}
	return nil
}

// Path returns the run log path.
func (fl *FileLogger) Path() string {
	return fl.path
}

// Level methods write "[HH:MM:SS] [LEVEL] message" lines at or above the
// configured level.
func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }
func (fl *FileLogger) LogInfo(message string)  { fl.logWithLevel("INFO", message) }
func (fl *FileLogger) LogWarn(message string)  { fl.logWithLevel("WARN", message) }
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

// LogValidation writes every message of the report, including the
// repaired content size, so a run can be reconstructed from the log.
func (fl *FileLogger) LogValidation(attempt int, report *models.ValidationReport) {
	if report == nil {
		return
	}
	status := "valid"
	if !report.IsValid {
		status = "invalid"
	}
	fl.LogInfo(fmt.Sprintf("Validation attempt %d: %s, %d message(s), %d bytes",
		attempt, status, len(report.Messages), len(report.RepairedContent)))
	for _, msg := range report.Messages {
		fl.LogInfo("  " + msg)
	}
}

// LogRetry writes the feedback sent with the next attempt.
func (fl *FileLogger) LogRetry(attempt int, feedback string) {
	fl.LogWarn(fmt.Sprintf("Retrying after attempt %d with feedback:\n%s", attempt, feedback))
}

// LogRateLimitCountdown writes only the start and the end of a wait.
func (fl *FileLogger) LogRateLimitCountdown(remaining, total time.Duration) {
	switch {
	case remaining == total:
		fl.LogWarn(fmt.Sprintf("Rate limited; waiting %s for reset", budget.FormatWait(int64(total.Seconds()))))
	case remaining <= 0:
		fl.LogInfo("Rate limit wait finished")
	}
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if shouldLog(fl.level, level) {
		fl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
	}
}

// Close syncs and closes the run log. Later calls are no-ops.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.out == nil {
		return nil
	}
	err := errors.Join(fl.out.Sync(), fl.out.Close())
	fl.out = nil
	if err != nil {
		return fmt.Errorf("close run log: %w", err)
	}
	return nil
}

// write appends to the run log and syncs so a crash keeps what was logged.
func (fl *FileLogger) write(text string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.out == nil {
		return
	}
	fl.out.WriteString(text)
	fl.out.Sync()
}
