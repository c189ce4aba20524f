// Package validation enforces the six-column test-case CSV contract.
// The validator repairs what it safely can and reports the rest as messages;
// it never returns an error. The sanitizer rewrites cell content so that
// downstream importers never see a comma inside a text field.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
)

// DefaultMaxMismatchRatio is the largest share of data rows with a wrong
// field count that is still repaired by padding or truncation.
const DefaultMaxMismatchRatio = 0.3

// DefaultRowDetailLimit caps how many mismatched rows are itemised.
const DefaultRowDetailLimit = 3

// validLastColumns are the accepted sixth header names.
var validLastColumns = []string{models.ColumnCOSReference, models.ColumnExpectedResults}

// Options tune the validator. Zero values select the defaults.
type Options struct {
	MaxMismatchRatio float64
	RowDetailLimit   int
}

// Validator checks and repairs candidate CSV documents.
type Validator struct {
	maxMismatchRatio float64
	rowDetailLimit   int
	fold             cases.Caser
}

// NewValidator creates a Validator with the given options.
func NewValidator(opts Options) *Validator {
	v := &Validator{
		maxMismatchRatio: opts.MaxMismatchRatio,
		rowDetailLimit:   opts.RowDetailLimit,
		fold:             cases.Fold(),
	}
	if v.maxMismatchRatio <= 0 {
		v.maxMismatchRatio = DefaultMaxMismatchRatio
	}
	if v.rowDetailLimit <= 0 {
		v.rowDetailLimit = DefaultRowDetailLimit
	}
	return v
}

// ValidateAndFix checks raw against the column contract and repairs
// recoverable damage.
//
// Checks run in order: trailing empty fields past the sixth are dropped,
// the text is parsed, the header is compared, rows with a wrong field count
// are padded or truncated when they are at most the configured share of
// data rows, and triple quotes are flagged. A CRITICAL message makes the
// report invalid; RepairedContent then holds raw unchanged.
func (v *Validator) ValidateAndFix(raw string) *models.ValidationReport {
	report := &models.ValidationReport{RepairedContent: raw}

	if strings.TrimSpace(raw) == "" {
		report.Messages = append(report.Messages, critical("CSV is empty"))
		return report
	}

	records, err := parser.ReadRecords(raw)
	if err != nil {
		if errors.Is(err, parser.ErrEmpty) {
			report.Messages = append(report.Messages, critical("CSV is empty"))
		} else {
			report.Messages = append(report.Messages, critical(fmt.Sprintf("CSV parsing error: %v", err)))
		}
		return report
	}

	trimmed := trimTrailingEmpty(records)
	if trimmed > 0 {
		report.Messages = append(report.Messages,
			fmt.Sprintf("%s: removed trailing delimiters from %d row(s)", models.AutoFixPrefix, trimmed))
	}

	header := records[0]
	if len(header) != models.ExpectedColumns {
		report.Messages = append(report.Messages,
			critical(fmt.Sprintf("Header has %d columns, expected %d", len(header), models.ExpectedColumns)))
		return report
	}

	if headerErrs := v.checkHeader(header); len(headerErrs) > 0 {
		report.Messages = append(report.Messages, headerErrs...)
		if report.HasCritical() {
			return report
		}
	}

	dataRows := len(records) - 1
	var mismatched int
	var details []string
	for i, rec := range records[1:] {
		if len(rec) == models.ExpectedColumns {
			continue
		}
		mismatched++
		if len(details) < v.rowDetailLimit {
			// Row numbers count the header as row 1.
			details = append(details, fmt.Sprintf("Row %d has %d columns", i+2, len(rec)))
		}
	}

	if mismatched > 0 {
		ratio := float64(mismatched) / float64(dataRows)
		if ratio > v.maxMismatchRatio {
			report.Messages = append(report.Messages, details...)
			report.Messages = append(report.Messages,
				critical(fmt.Sprintf("Too many rows with wrong column count: %d/%d", mismatched, dataRows)))
			return report
		}
		for i := 1; i < len(records); i++ {
			records[i] = reshape(records[i])
		}
		report.Messages = append(report.Messages,
			fmt.Sprintf("%s %d rows with wrong column count", models.AutoFixPrefix, mismatched))
	}

	if mismatched > 0 || trimmed > 0 {
		report.RepairedContent = parser.WriteRecords(records)
	}

	if strings.Contains(raw, `"""`) {
		report.Messages = append(report.Messages,
			models.WarningPrefix+` detected triple quotes ("""), quoting may be malformed`)
	}

	report.IsValid = true
	return report
}

// checkHeader compares the first five names exactly (after trimming and case
// folding) and the sixth against the accepted labels. Only the first five
// produce critical messages.
func (v *Validator) checkHeader(header []string) []string {
	var msgs []string
	expected := models.ExpectedHeader("")
	for i := 0; i < models.ExpectedColumns-1; i++ {
		if v.normalize(header[i]) != v.normalize(expected[i]) {
			msgs = append(msgs, critical(fmt.Sprintf("Column %d is '%s', expected '%s'", i+1, header[i], expected[i])))
		}
	}

	last := v.normalize(header[models.ExpectedColumns-1])
	ok := false
	for _, name := range validLastColumns {
		if last == v.normalize(name) {
			ok = true
			break
		}
	}
	if !ok {
		msgs = append(msgs, fmt.Sprintf("%s 6th column is '%s', expected '%s' or '%s'",
			models.WarningPrefix, strings.TrimSpace(header[models.ExpectedColumns-1]),
			models.ColumnCOSReference, models.ColumnExpectedResults))
	}
	return msgs
}

func (v *Validator) normalize(s string) string {
	return v.fold.String(strings.TrimSpace(s))
}

// trimTrailingEmpty drops empty fields beyond the sixth from every record
// and returns how many records changed. Fields within the first six are
// never removed, so a step row ending in an empty reference stays intact.
func trimTrailingEmpty(records [][]string) int {
	changed := 0
	for i, rec := range records {
		n := len(rec)
		for n > models.ExpectedColumns && strings.TrimSpace(rec[n-1]) == "" {
			n--
		}
		if n != len(rec) {
			records[i] = rec[:n]
			changed++
		}
	}
	return changed
}

// reshape pads a record with empty fields or truncates it to six fields.
func reshape(rec []string) []string {
	if len(rec) == models.ExpectedColumns {
		return rec
	}
	out := make([]string, models.ExpectedColumns)
	copy(out, rec)
	return out
}

func critical(msg string) string {
	return models.CriticalPrefix + " " + msg
}
