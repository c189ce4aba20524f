package parser

import (
	"encoding/csv"
	"strings"

	"github.com/harrison/casegen/internal/models"
)

// explanatoryMarkers identify prose a model appends after the CSV body.
var explanatoryMarkers = []string{
	"note that",
	"note:",
	"i've created",
	"here is",
	"based on",
	"additionally",
	"these test cases",
}

// StripCodeFences removes a Markdown code fence wrapping the text.
// When a fence opens partway through the text, only the fenced body is kept.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	lines := strings.Split(text, "\n")

	open := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			open = i
			break
		}
	}
	if open < 0 {
		return text
	}

	body := lines[open+1:]
	for i, line := range body {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			body = body[:i]
			break
		}
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

// CleanModelOutput turns a raw model response into candidate CSV text.
// Code fences are removed, anything before the header line is dropped and
// trailing explanation after the last complete record is cut. Lines inside a
// quoted cell and records with a full set of fields are never treated as
// explanation. When no header line is found the fence-stripped text is
// returned so validation can report the problem.
func CleanModelOutput(text string) string {
	text = StripCodeFences(strings.ReplaceAll(text, "\r\n", "\n"))
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if isHeaderLine(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return text
	}

	body := splitRecords(lines[start+1:])
	last := -1
	for i, rec := range body {
		if rec.fields >= models.ExpectedColumns {
			last = i
		}
	}

	kept := []string{lines[start]}
	for i, rec := range body {
		if i > last && isExplanatory(rec.text) {
			break
		}
		kept = append(kept, rec.text)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// rawRecord is one logical CSV record: a physical line plus any following
// lines that continue a quoted cell.
type rawRecord struct {
	text   string
	fields int
}

// splitRecords groups lines into logical records by tracking quote parity.
// Doubled quotes inside a cell leave the parity unchanged.
func splitRecords(lines []string) []rawRecord {
	var out []rawRecord
	var pending []string
	quotes := 0
	for _, line := range lines {
		pending = append(pending, line)
		quotes += strings.Count(line, `"`)
		if quotes%2 == 1 {
			continue
		}
		out = append(out, newRawRecord(pending))
		pending, quotes = nil, 0
	}
	if len(pending) > 0 {
		out = append(out, newRawRecord(pending))
	}
	return out
}

func newRawRecord(lines []string) rawRecord {
	text := strings.Join(lines, "\n")
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rec, err := r.Read()
	if err != nil {
		return rawRecord{text: text}
	}
	return rawRecord{text: text, fields: len(rec)}
}

func isHeaderLine(line string) bool {
	s := strings.TrimLeft(strings.TrimSpace(line), `"`)
	return strings.HasPrefix(strings.ToLower(s), "work item type")
}

func isExplanatory(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" || strings.HasPrefix(lower, ",") || strings.HasPrefix(lower, "test case") || strings.HasPrefix(lower, `"`) {
		return false
	}
	for _, marker := range explanatoryMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
