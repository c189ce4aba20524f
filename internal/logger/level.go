package logger

import (
	"strings"

	"github.com/fatih/color"
)

// levels ranks the accepted level names; a message is written when its
// rank is at least the configured one.
var levels = map[string]struct {
	rank  int
	color color.Attribute
}{
	"trace": {0, color.FgHiBlack},
	"debug": {1, color.FgCyan},
	"info":  {2, color.FgBlue},
	"warn":  {3, color.FgYellow},
	"error": {4, color.FgRed},
}

// normalizeLogLevel lowercases a level and falls back to "info".
func normalizeLogLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if _, ok := levels[level]; ok {
		return level
	}
	return "info"
}

// shouldLog reports whether a message at level passes the configured
// threshold. Both names are matched case-insensitively.
func shouldLog(configured, level string) bool {
	return levels[normalizeLogLevel(level)].rank >= levels[normalizeLogLevel(configured)].rank
}

func levelColor(level string) *color.Color {
	return color.New(levels[normalizeLogLevel(level)].color)
}
