package logger

import (
	"time"

	"github.com/harrison/casegen/internal/models"
)

// MultiLogger forwards every call to each wrapped logger in order.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger wraps the given loggers. Nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) LogTrace(msg string) {
	for _, l := range m.loggers {
		l.LogTrace(msg)
	}
}

func (m *MultiLogger) LogDebug(msg string) {
	for _, l := range m.loggers {
		l.LogDebug(msg)
	}
}

func (m *MultiLogger) LogInfo(msg string) {
	for _, l := range m.loggers {
		l.LogInfo(msg)
	}
}

func (m *MultiLogger) LogWarn(msg string) {
	for _, l := range m.loggers {
		l.LogWarn(msg)
	}
}

func (m *MultiLogger) LogError(msg string) {
	for _, l := range m.loggers {
		l.LogError(msg)
	}
}

func (m *MultiLogger) LogValidation(attempt int, report *models.ValidationReport) {
	for _, l := range m.loggers {
		l.LogValidation(attempt, report)
	}
}

func (m *MultiLogger) LogRetry(attempt int, feedback string) {
	for _, l := range m.loggers {
		l.LogRetry(attempt, feedback)
	}
}

func (m *MultiLogger) LogRateLimitCountdown(remaining, total time.Duration) {
	for _, l := range m.loggers {
		l.LogRateLimitCountdown(remaining, total)
	}
}
