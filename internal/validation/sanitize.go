package validation

import (
	"regexp"
	"strings"

	"github.com/harrison/casegen/internal/parser"
)

// numericPattern matches cells that keep their commas untouched:
// digits with an optional leading minus and at most one decimal point.
var numericPattern = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)$`)

// SanitizeStats describes what a sanitize pass changed.
type SanitizeStats struct {
	Rows         int
	CellsChanged int
}

// Sanitize replaces commas inside non-numeric cells with semicolons and
// re-serialises the document with minimal quoting. Input that cannot be
// parsed is returned unchanged.
func Sanitize(text string) string {
	out, _, ok := SanitizeWithStats(text)
	if !ok {
		return text
	}
	return out
}

// SanitizeWithStats is Sanitize with a change count. ok is false when the
// input could not be processed; out is then the input itself.
func SanitizeWithStats(text string) (out string, stats SanitizeStats, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, stats, ok = text, SanitizeStats{}, false
		}
	}()

	records, err := parser.ReadRecords(text)
	if err != nil {
		return text, stats, false
	}

	for _, rec := range records {
		for j, cell := range rec {
			if !strings.Contains(cell, ",") || isNumeric(cell) {
				continue
			}
			rec[j] = strings.ReplaceAll(cell, ",", ";")
			stats.CellsChanged++
		}
	}
	stats.Rows = len(records)
	return parser.WriteRecords(records), stats, true
}

func isNumeric(cell string) bool {
	return numericPattern.MatchString(strings.TrimSpace(cell))
}
