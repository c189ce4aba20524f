// Package logger provides logging implementations for casegen runs.
//
// Loggers report provider calls, validation outcomes, retries and rate-limit
// waits. Implementations are thread-safe and write to the console, a run
// log file, or both through MultiLogger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/casegen/internal/budget"
	"github.com/harrison/casegen/internal/models"
)

// Logger is the full logging surface used by the CLI.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogValidation(attempt int, report *models.ValidationReport)
	LogRetry(attempt int, feedback string)
	LogRateLimitCountdown(remaining, total time.Duration)
}

// ConsoleLogger logs to a writer with [HH:MM:SS] timestamps.
// Color output is enabled when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to writer.
// If writer is nil, messages are discarded. An empty or unknown logLevel
// selects "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should get colors.
// NO_COLOR disables colors through color.NoColor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

// LogValidation reports the outcome of one validation pass. Critical
// messages log at ERROR, advisories at WARN.
func (cl *ConsoleLogger) LogValidation(attempt int, report *models.ValidationReport) {
	if report == nil {
		return
	}
	if report.IsValid {
		cl.LogInfo(fmt.Sprintf("Attempt %d: CSV passed validation", attempt))
	} else {
		cl.LogError(fmt.Sprintf("Attempt %d: CSV failed validation", attempt))
	}
	for _, msg := range report.Messages {
		if models.IsCritical(msg) {
			cl.LogError("  " + cl.paint(msg))
		} else {
			cl.LogWarn("  " + cl.paint(msg))
		}
	}
}

// LogRetry reports that a new attempt will be made with feedback.
func (cl *ConsoleLogger) LogRetry(attempt int, feedback string) {
	cl.LogWarn(fmt.Sprintf("Attempt %d had errors; retrying with feedback", attempt))
	for _, line := range strings.Split(feedback, "\n") {
		cl.LogDebug("  " + line)
	}
}

// LogRateLimitCountdown renders the wait for a rate-limit reset as a bar.
func (cl *ConsoleLogger) LogRateLimitCountdown(remaining, total time.Duration) {
	bar := countdownBar(remaining, total, countdownWidth, cl.colorOutput)
	cl.LogInfo(fmt.Sprintf("%s, resuming in %s", bar, budget.FormatWait(int64(remaining.Seconds()))))
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !shouldLog(cl.logLevel, level) {
		return
	}

	tag := level
	if cl.colorOutput {
		tag = levelColor(level).Sprint(level)
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), tag, message)
}

// paint colors a validation message by its prefix.
func (cl *ConsoleLogger) paint(msg string) string {
	if !cl.colorOutput {
		return msg
	}
	switch {
	case models.IsCritical(msg):
		return color.New(color.FgRed).Sprint(msg)
	case models.IsAutoFix(msg):
		return color.New(color.FgGreen).Sprint(msg)
	default:
		return color.New(color.FgYellow).Sprint(msg)
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (NoOpLogger) LogTrace(string)                                    {}
func (NoOpLogger) LogDebug(string)                                    {}
func (NoOpLogger) LogInfo(string)                                     {}
func (NoOpLogger) LogWarn(string)                                     {}
func (NoOpLogger) LogError(string)                                    {}
func (NoOpLogger) LogValidation(int, *models.ValidationReport)        {}
func (NoOpLogger) LogRetry(int, string)                               {}
func (NoOpLogger) LogRateLimitCountdown(time.Duration, time.Duration) {}
