package display

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/casegen/internal/models"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestTable_AlignsByDisplayWidth(t *testing.T) {
	tbl := NewTable("Title", "COS")
	tbl.AddRow("ログイン", "COS 1")
	tbl.AddRow("FUNC-01: Save", "COS 2")
	tbl.AddRow("only title")

	var buf bytes.Buffer
	tbl.Render(&buf)

	want := strings.Join([]string{
		"Title          COS",
		"-------------  -----",
		"ログイン       COS 1",
		"FUNC-01: Save  COS 2",
		"only title",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 3, tbl.Len())
}

func TestTable_ClipsLongCells(t *testing.T) {
	tbl := NewTable("A")
	tbl.MaxWidth = 8
	tbl.AddRow("a very long\ntitle")

	var buf bytes.Buffer
	tbl.Render(&buf)
	assert.Contains(t, buf.String(), "a very …")
	assert.NotContains(t, buf.String(), "title")
}

func TestWarning_Display(t *testing.T) {
	var buf bytes.Buffer
	WarnDroppedImages("gpt-3.5-turbo", []string{"shot.png"}).Display(&buf)

	out := buf.String()
	assert.Contains(t, out, "Warning: Images ignored")
	assert.Contains(t, out, "Model gpt-3.5-turbo does not accept image input")
	assert.Contains(t, out, "\n  - shot.png\n")
	assert.Contains(t, out, "  Try: Switch to a vision-capable model")
}

func TestWarnRateLimited(t *testing.T) {
	assert.Equal(t, "github rejected the request because of a rate limit; it resets in 1h 5m",
		WarnRateLimited("github", "1h 5m").Message)
	assert.NotContains(t, WarnRateLimited("github", "").Message, "resets")
}

func TestStepIndicator(t *testing.T) {
	var buf bytes.Buffer
	s := NewStepIndicator(&buf, 3)
	s.Step("Exporting work item")
	s.Step("Generating")
	s.Done("Saved %s", "out.csv")
	s.Fail("nope")

	assert.Equal(t, "[1/3] Exporting work item\n[2/3] Generating\n✓ Saved out.csv\n✗ nope\n", buf.String())
	assert.Equal(t, 2, s.Current())
}

func TestRenderTestCases(t *testing.T) {
	set := models.NewRecordSet([][]string{
		models.ExpectedHeader("Product Backlog Item"),
		{"", "", "1", "orphan", "x", ""},
		{"Test Case", "FUNC-01: Login", "", "", "", "COS 1"},
		{"", "", "1", "Open page", "Page shows", ""},
		{"", "", "2", "Submit", "Logged in", ""},
	})

	var buf bytes.Buffer
	RenderTestCases(&buf, set, "Product Backlog Item")
	out := buf.String()

	assert.Contains(t, out, "COS Reference")
	assert.Contains(t, out, "FUNC-01: Login")
	assert.Contains(t, out, "1 test case(s), 3 step(s)")
	assert.Contains(t, out, "1 step row(s) appear before the first test case")

	buf.Reset()
	RenderTestCases(&buf, &models.RecordSet{}, "Bug")
	assert.Equal(t, "No test cases.\n", buf.String())
}

func TestRenderValidationAndDiff(t *testing.T) {
	var buf bytes.Buffer
	RenderValidation(&buf, &models.ValidationReport{
		IsValid:  true,
		Messages: []string{"Auto-fixed 1 rows with wrong column count", "Warning: Found triple quotes"},
	})
	assert.Equal(t, "✓ CSV is valid\n  Auto-fixed 1 rows with wrong column count\n  Warning: Found triple quotes\n", buf.String())

	buf.Reset()
	RenderDiff(&buf, models.TitleDiff{Added: []string{"FUNC-02"}, Removed: []string{"NEG-01"}, Kept: []string{"FUNC-01"}})
	assert.Equal(t, "Added: 1  Removed: 1  Kept: 1\n  + FUNC-02\n  - NEG-01\n", buf.String())
}

func TestRenderCoverage(t *testing.T) {
	var buf bytes.Buffer
	RenderCoverage(&buf, nil, "Bug")
	assert.Contains(t, buf.String(), "unavailable")

	buf.Reset()
	RenderCoverage(&buf, &models.CoverageMap{
		DirectCoverage: []models.CoverageEntry{{TestTitle: "FUNC-01", Explanation: "Verifies login"}},
	}, "Product Backlog Item")
	out := buf.String()
	assert.Contains(t, out, "Direct coverage of Conditions of Satisfaction (COS) (1)")
	assert.Contains(t, out, "  FUNC-01  Verifies login")
	assert.Contains(t, out, "Additional considerations (0)\n  (none)")
}

func TestRenderCriteriaAndHistory(t *testing.T) {
	var buf bytes.Buffer
	RenderCriteria(&buf, []models.CriterionCoverage{
		{Index: 1, Label: "COS 1", Text: "User can log in", Tests: []string{"FUNC-01"}},
		{Index: 2, Label: "COS 2", Text: "User can log out"},
	})
	assert.Contains(t, buf.String(), "1 of 2 criteria referenced")

	buf.Reset()
	RenderHistory(&buf, []models.RefinementHistoryEntry{{
		Instruction:       "Add negative tests",
		AttachedImageRefs: []string{"a.png"},
		Timestamp:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ChangeSummary:     "Added NEG-02",
		Added:             1,
		Kept:              3,
	}})
	out := buf.String()
	assert.Contains(t, out, "(+1 -0 =3)")
	assert.Contains(t, out, "Instruction: Add negative tests")
	assert.Contains(t, out, "Images: 1")
	assert.Contains(t, out, "Summary: Added NEG-02")
}

func TestRenderSessions(t *testing.T) {
	var buf bytes.Buffer
	RenderSessions(&buf, nil)
	assert.Equal(t, "No sessions.\n", buf.String())

	buf.Reset()
	RenderSessions(&buf, []SessionRow{{WorkItemID: 42, Type: "Bug", Title: "Crash", Refinements: 2, OnDisk: true}})
	assert.Contains(t, buf.String(), "42  Bug   Crash  2")
	assert.Contains(t, buf.String(), "yes")
}

func TestFindTestCaseFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"Testcases_PBI_20.csv",
		"Testcases_PBI_3.csv",
		"Testcases_PBI_3.csv.bak",
		"Testcases_PBI_x.csv",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	files, err := FindTestCaseFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []TestCaseFile{
		{Name: "Testcases_PBI_3.csv", WorkItemID: 3, HasBackup: true},
		{Name: "Testcases_PBI_20.csv", WorkItemID: 20},
	}, files)

	missing, err := FindTestCaseFiles(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestParseTestCaseFileName(t *testing.T) {
	tests := []struct {
		name   string
		wantID int
		wantOK bool
	}{
		{"Testcases_PBI_1234.csv", 1234, true},
		{"Testcases_PBI_0.csv", 0, false},
		{"testcases_pbi_1.csv", 0, false},
		{"Testcases_PBI_1.csv.bak", 0, false},
	}
	for _, tt := range tests {
		id, ok := ParseTestCaseFileName(tt.name)
		assert.Equal(t, tt.wantID, id, tt.name)
		assert.Equal(t, tt.wantOK, ok, tt.name)
	}
}
