package display

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/casegen/internal/models"
)

var (
	addedColor   = color.New(color.FgGreen)
	removedColor = color.New(color.FgRed)
	noteColor    = color.New(color.FgYellow)
)

// RenderTestCases prints one row per test case with its step count.
func RenderTestCases(w io.Writer, set *models.RecordSet, workItemType string) {
	cases := set.TestCases()
	if len(cases) == 0 {
		fmt.Fprintln(w, "No test cases.")
		return
	}
	t := NewTable("#", "Title", "Steps", models.LastColumn(workItemType))
	for i, tc := range cases {
		t.AddRow(strconv.Itoa(i+1), tc.Title, strconv.Itoa(len(tc.Steps)), tc.CriterionRef)
	}
	t.Render(w)
	fmt.Fprintf(w, "\n%d test case(s), %d step(s)\n", len(cases), set.StepCount())
	if orphans := set.Orphans(); len(orphans) > 0 {
		noteColor.Fprintf(w, "%d step row(s) appear before the first test case\n", len(orphans))
	}
}

// RenderValidation prints a report: criticals in red, auto-fixes in green,
// other advisories in yellow.
func RenderValidation(w io.Writer, report *models.ValidationReport) {
	if report == nil {
		return
	}
	if report.IsValid {
		addedColor.Fprintln(w, "✓ CSV is valid")
	} else {
		removedColor.Fprintln(w, "✗ CSV is invalid")
	}
	for _, msg := range report.Messages {
		switch {
		case models.IsCritical(msg):
			removedColor.Fprintf(w, "  %s\n", msg)
		case models.IsAutoFix(msg):
			addedColor.Fprintf(w, "  %s\n", msg)
		default:
			noteColor.Fprintf(w, "  %s\n", msg)
		}
	}
}

// RenderDiff prints added, removed and kept title counts followed by the
// changed titles.
func RenderDiff(w io.Writer, diff models.TitleDiff) {
	fmt.Fprintf(w, "Added: %d  Removed: %d  Kept: %d\n", len(diff.Added), len(diff.Removed), len(diff.Kept))
	for _, title := range diff.Added {
		addedColor.Fprintf(w, "  + %s\n", title)
	}
	for _, title := range diff.Removed {
		removedColor.Fprintf(w, "  - %s\n", title)
	}
}

// RenderCoverage prints the two classification buckets.
func RenderCoverage(w io.Writer, cm *models.CoverageMap, workItemType string) {
	if cm == nil {
		noteColor.Fprintln(w, "Coverage analysis unavailable.")
		return
	}
	label := models.CriteriaLabel(workItemType)

	fmt.Fprintf(w, "Direct coverage of %s (%d)\n", label, len(cm.DirectCoverage))
	renderEntries(w, cm.DirectCoverage)
	fmt.Fprintf(w, "\nAdditional considerations (%d)\n", len(cm.AdditionalConsiderations))
	renderEntries(w, cm.AdditionalConsiderations)
}

func renderEntries(w io.Writer, entries []models.CoverageEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	t := NewTable("Test", "Explanation")
	for _, e := range entries {
		t.AddRow(e.TestTitle, e.Explanation)
	}
	var buf bytes.Buffer
	t.Render(&buf)
	for _, line := range strings.SplitAfter(buf.String(), "\n") {
		if line != "" {
			fmt.Fprint(w, "  "+line)
		}
	}
}

// RenderCriteria prints each numbered criterion with the tests referencing it.
func RenderCriteria(w io.Writer, mapped []models.CriterionCoverage) {
	if len(mapped) == 0 {
		return
	}
	covered := 0
	t := NewTable("Criterion", "Text", "Tests")
	for _, c := range mapped {
		if c.Covered() {
			covered++
		}
		t.AddRow(c.Label, c.Text, strconv.Itoa(len(c.Tests)))
	}
	t.Render(w)
	fmt.Fprintf(w, "\n%d of %d criteria referenced by at least one test\n", covered, len(mapped))
}

// RenderHistory prints refinement history, oldest first.
func RenderHistory(w io.Writer, entries []models.RefinementHistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No refinements recorded.")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%d. %s  (+%d -%d =%d)\n", i+1, e.Timestamp.Local().Format(time.DateTime), e.Added, e.Removed, e.Kept)
		fmt.Fprintf(w, "   Instruction: %s\n", e.Instruction)
		if len(e.AttachedImageRefs) > 0 {
			fmt.Fprintf(w, "   Images: %d\n", len(e.AttachedImageRefs))
		}
		if e.ChangeSummary != "" {
			fmt.Fprintf(w, "   Summary: %s\n", e.ChangeSummary)
		}
	}
}

// SessionRow is one line of a session listing.
type SessionRow struct {
	WorkItemID  int
	Type        string
	Title       string
	Refinements int
	UpdatedAt   time.Time
	OnDisk      bool
}

// RenderSessions prints stored sessions.
func RenderSessions(w io.Writer, rows []SessionRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No sessions.")
		return
	}
	t := NewTable("ID", "Type", "Title", "Refinements", "Updated", "CSV")
	for _, r := range rows {
		onDisk := ""
		if r.OnDisk {
			onDisk = "yes"
		}
		updated := ""
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.Local().Format(time.DateTime)
		}
		t.AddRow(strconv.Itoa(r.WorkItemID), r.Type, r.Title, strconv.Itoa(r.Refinements), updated, onDisk)
	}
	t.Render(w)
}
