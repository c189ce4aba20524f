package logger

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/casegen/internal/models"
)

var timestampPattern = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[INFO\] hello\n$`)

func TestConsoleLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")
	cl.LogInfo("hello")

	if !timestampPattern.MatchString(buf.String()) {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		visible []string
		hidden  []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}, nil},
		{"info", []string{"INFO", "WARN", "ERROR"}, []string{"TRACE", "DEBUG"}},
		{"error", []string{"ERROR"}, []string{"TRACE", "DEBUG", "INFO", "WARN"}},
		{"bogus", []string{"INFO"}, []string{"DEBUG"}},
		{"", []string{"INFO"}, []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			cl := NewConsoleLogger(&buf, tt.level)
			cl.LogTrace("t")
			cl.LogDebug("d")
			cl.LogInfo("i")
			cl.LogWarn("w")
			cl.LogError("e")

			out := buf.String()
			for _, lvl := range tt.visible {
				assert.Contains(t, out, "["+lvl+"]")
			}
			for _, lvl := range tt.hidden {
				assert.NotContains(t, out, "["+lvl+"]")
			}
		})
	}
}

func TestConsoleLogger_NilWriter(t *testing.T) {
	cl := NewConsoleLogger(nil, "debug")
	cl.LogInfo("dropped")
	cl.LogValidation(1, &models.ValidationReport{IsValid: true})
}

func TestConsoleLogger_LogValidation(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")

	cl.LogValidation(2, &models.ValidationReport{
		IsValid: false,
		Messages: []string{
			"CRITICAL: Header has 3 columns, expected 6",
			"Auto-fixed 1 rows with wrong column count",
		},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 3) {
		assert.Contains(t, lines[0], "[ERROR] Attempt 2: CSV failed validation")
		assert.Contains(t, lines[1], "[ERROR]   CRITICAL: Header has 3 columns")
		assert.Contains(t, lines[2], "[WARN]   Auto-fixed 1 rows")
	}

	buf.Reset()
	cl.LogValidation(1, nil)
	assert.Empty(t, buf.String())
}

func TestConsoleLogger_LogRetry(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "debug")
	cl.LogRetry(1, "- first\n- second")

	out := buf.String()
	assert.Contains(t, out, "[WARN] Attempt 1 had errors; retrying with feedback")
	assert.Contains(t, out, "[DEBUG]   - first")
	assert.Contains(t, out, "[DEBUG]   - second")
}

func TestConsoleLogger_RateLimitCountdown(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")

	cl.LogRateLimitCountdown(10*time.Minute, 20*time.Minute)
	assert.Contains(t, buf.String(), "Rate limited [##########..........] 50%, resuming in 10m")

	buf.Reset()
	cl.LogRateLimitCountdown(0, 20*time.Minute)
	assert.Contains(t, buf.String(), "[####################] 100%, resuming in 0m")
}

func TestConsoleLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cl.LogInfo("concurrent")
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, strings.Count(buf.String(), "concurrent\n"))
}

func TestMultiLogger_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := NewMultiLogger(NewConsoleLogger(&a, "info"), nil, NewConsoleLogger(&b, "info"))

	m.LogWarn("both")
	m.LogValidation(1, &models.ValidationReport{IsValid: true})

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, "[WARN] both")
		assert.Contains(t, out, "Attempt 1: CSV passed validation")
	}
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NewNoOpLogger()
	l.LogInfo("x")
	l.LogRateLimitCountdown(time.Second, time.Minute)
}
