package models

import "strings"

// ExpectedColumns is the fixed field count of every record in a test-case CSV.
const ExpectedColumns = 6

// Header column names shared by every work item type
const (
	ColumnWorkItemType = "Work Item Type"
	ColumnTitle        = "Title"
	ColumnTestStep     = "Test Step"
	ColumnStepAction   = "Step Action"
	ColumnStepExpected = "Step Expected"

	// ColumnCOSReference is the sixth column for backlog items.
	ColumnCOSReference = "COS Reference"
	// ColumnExpectedResults is the sixth column for bugs.
	ColumnExpectedResults = "Expected Results"
)

// WorkItemTypeBug is the Azure DevOps type name that switches the sixth column.
const WorkItemTypeBug = "Bug"

// DefaultWorkItemType is used when an export carries no System.WorkItemType.
const DefaultWorkItemType = "Product Backlog Item"

// TestCaseType is the value written in the first column of a test case row.
const TestCaseType = "Test Case"

// IsBug reports whether the work item type is a bug (case-insensitive).
func IsBug(workItemType string) bool {
	return strings.EqualFold(strings.TrimSpace(workItemType), WorkItemTypeBug)
}

// LastColumn returns the sixth header name for the given work item type.
func LastColumn(workItemType string) string {
	if IsBug(workItemType) {
		return ColumnExpectedResults
	}
	return ColumnCOSReference
}

// LastColumnDescription returns the phrase used in prompts to explain what the
// sixth column must contain.
func LastColumnDescription(workItemType string) string {
	if IsBug(workItemType) {
		return "Expected Results (the correct behavior after the fix)"
	}
	return "COS Reference (the Condition of Satisfaction the test verifies)"
}

// CriteriaLabel names the acceptance-criteria text in prompts and displays.
func CriteriaLabel(workItemType string) string {
	if IsBug(workItemType) {
		return ColumnExpectedResults
	}
	return "Conditions of Satisfaction (COS)"
}

// ExpectedHeader returns the six header names required for a work item type.
func ExpectedHeader(workItemType string) []string {
	return []string{
		ColumnWorkItemType,
		ColumnTitle,
		ColumnTestStep,
		ColumnStepAction,
		ColumnStepExpected,
		LastColumn(workItemType),
	}
}

// RowKind classifies a parsed data row.
type RowKind int

const (
	// RowBlank has neither a type nor a step number and is dropped.
	RowBlank RowKind = iota
	// RowTestCase opens a new test case.
	RowTestCase
	// RowStep belongs to the most recent test case.
	RowStep
)

// String returns the string representation of RowKind.
func (k RowKind) String() string {
	switch k {
	case RowTestCase:
		return "test-case"
	case RowStep:
		return "step"
	default:
		return "blank"
	}
}

// ClassifyRow decides the kind of a data row from its fields.
// A non-empty first field marks a test case; otherwise a non-empty third
// field marks a step. Anything else is blank.
func ClassifyRow(fields []string) RowKind {
	if field(fields, 0) != "" {
		return RowTestCase
	}
	if field(fields, 2) != "" {
		return RowStep
	}
	return RowBlank
}

// Row is one data record of a test-case CSV.
// Test case rows use Type, Title and CriterionRef; step rows use StepNumber,
// Action and Expected.
type Row struct {
	Kind         RowKind
	Type         string
	Title        string
	StepNumber   string
	Action       string
	Expected     string
	CriterionRef string
}

// NewRow builds a Row from raw fields. Missing trailing fields are treated as
// empty and surrounding whitespace is trimmed.
func NewRow(fields []string) Row {
	row := Row{Kind: ClassifyRow(fields)}
	switch row.Kind {
	case RowTestCase:
		row.Type = field(fields, 0)
		row.Title = field(fields, 1)
		row.CriterionRef = field(fields, 5)
	case RowStep:
		row.StepNumber = field(fields, 2)
		row.Action = field(fields, 3)
		row.Expected = field(fields, 4)
		row.CriterionRef = field(fields, 5)
	}
	return row
}

// Fields renders the row back into its six-field form.
func (r Row) Fields() []string {
	switch r.Kind {
	case RowTestCase:
		return []string{r.Type, r.Title, "", "", "", r.CriterionRef}
	case RowStep:
		return []string{"", "", r.StepNumber, r.Action, r.Expected, r.CriterionRef}
	default:
		return make([]string, ExpectedColumns)
	}
}

// TestCase groups a test case row with the steps that follow it.
type TestCase struct {
	Title        string
	CriterionRef string
	Steps        []Row
}

// RecordSet is a parsed test-case document. Blank rows are never stored.
type RecordSet struct {
	Header []string
	Rows   []Row
}

// NewRecordSet builds a RecordSet from raw records where the first record is
// the header.
func NewRecordSet(records [][]string) *RecordSet {
	rs := &RecordSet{}
	if len(records) == 0 {
		return rs
	}
	rs.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		rs.Header[i] = strings.TrimSpace(h)
	}
	for _, rec := range records[1:] {
		row := NewRow(rec)
		if row.Kind == RowBlank {
			continue
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs
}

// Records renders the set back into raw records, header first.
func (rs *RecordSet) Records() [][]string {
	out := make([][]string, 0, len(rs.Rows)+1)
	if len(rs.Header) > 0 {
		out = append(out, append([]string(nil), rs.Header...))
	}
	for _, row := range rs.Rows {
		out = append(out, row.Fields())
	}
	return out
}

// TestCases groups steps under their governing test case.
// Steps that appear before the first test case are left out; see Orphans.
func (rs *RecordSet) TestCases() []TestCase {
	var cases []TestCase
	for _, row := range rs.Rows {
		switch row.Kind {
		case RowTestCase:
			cases = append(cases, TestCase{Title: row.Title, CriterionRef: row.CriterionRef})
		case RowStep:
			if len(cases) == 0 {
				continue
			}
			last := &cases[len(cases)-1]
			last.Steps = append(last.Steps, row)
		}
	}
	return cases
}

// Orphans returns step rows that precede every test case.
func (rs *RecordSet) Orphans() []Row {
	var orphans []Row
	for _, row := range rs.Rows {
		if row.Kind == RowTestCase {
			break
		}
		orphans = append(orphans, row)
	}
	return orphans
}

// Titles returns test case titles in order of appearance.
func (rs *RecordSet) Titles() []string {
	var titles []string
	for _, row := range rs.Rows {
		if row.Kind == RowTestCase {
			titles = append(titles, row.Title)
		}
	}
	return titles
}

// StepCount returns the number of step rows.
func (rs *RecordSet) StepCount() int {
	n := 0
	for _, row := range rs.Rows {
		if row.Kind == RowStep {
			n++
		}
	}
	return n
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}
