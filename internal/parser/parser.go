package parser

import (
	"encoding/csv"
	"errors"
	"strings"

	"github.com/harrison/casegen/internal/models"
)

// ErrEmpty is returned when a document contains no records.
var ErrEmpty = errors.New("CSV is empty")

const utf8BOM = "\ufeff"

// ReadRecords parses delimited text into records.
// Quoted fields may contain delimiters, doubled quotes and line breaks.
// Records may have any number of fields; LF and CRLF line endings are both
// accepted and blank lines are skipped.
func ReadRecords(text string) ([][]string, error) {
	text = strings.TrimPrefix(text, utf8BOM)

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

// ReadRecordSet parses text into a RecordSet whose first record is the header.
func ReadRecordSet(text string) (*models.RecordSet, error) {
	records, err := ReadRecords(text)
	if err != nil {
		return nil, err
	}
	return models.NewRecordSet(records), nil
}

// WriteRecords serializes records with minimal quoting: a field is quoted
// only when it contains a comma, a quote or a line break. A record made of a
// single empty field is written as "" so it survives a re-read.
func WriteRecords(records [][]string) string {
	var sb strings.Builder
	for _, rec := range records {
		if len(rec) == 1 && rec[0] == "" {
			sb.WriteString(`""`)
			sb.WriteByte('\n')
			continue
		}
		for i, f := range rec {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeField(&sb, f)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// writeField writes one field. A CRLF inside a quoted field reads back as LF,
// so line breaks are collapsed to LF first and the output re-reads to the
// same value.
func writeField(sb *strings.Builder, f string) {
	for strings.Contains(f, "\r\n") {
		f = strings.ReplaceAll(f, "\r\n", "\n")
	}
	if !strings.ContainsAny(f, ",\"\r\n") {
		sb.WriteString(f)
		return
	}
	sb.WriteByte('"')
	sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
	sb.WriteByte('"')
}
