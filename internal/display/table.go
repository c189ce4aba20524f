package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// DefaultMaxCellWidth caps a column so long titles do not wrap the table.
const DefaultMaxCellWidth = 60

var headerColor = color.New(color.Bold)

// Table is a left-aligned text table measured in terminal cells.
type Table struct {
	headers  []string
	rows     [][]string
	MaxWidth int
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, MaxWidth: DefaultMaxCellWidth}
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the header, a rule and every row.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(t.clip(cell)))
		}
	}

	headerColor.Fprintln(w, t.line(t.headers, widths))
	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	fmt.Fprintln(w, strings.Join(rule, "  "))
	for _, row := range t.rows {
		fmt.Fprintln(w, t.line(row, widths))
	}
}

func (t *Table) line(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if i == len(cells)-1 {
			parts[i] = t.clip(cell)
			continue
		}
		parts[i] = runewidth.FillRight(t.clip(cell), widths[i])
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// clip flattens newlines and truncates to MaxWidth cells.
func (t *Table) clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if t.MaxWidth > 0 {
		s = runewidth.Truncate(s, t.MaxWidth, "…")
	}
	return s
}
