package coverage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/casegen/internal/llm/llmtest"
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
)

const sampleCSV = "Work Item Type,Title,Test Step,Step Action,Step Expected,COS Reference\n" +
	"Test Case,FUNC-01: Login,,,,COS 1\n" +
	",,1,Open page,Page shown,\n" +
	"Test Case,NEG-01: Bad password,,,,COS 1\n" +
	",,1,Enter wrong password,Error shown,\n" +
	"Test Case,FUNC-02: Reset password,,,,COS 10\n"

func sampleSet(t *testing.T) *models.RecordSet {
	t.Helper()
	rs, err := parser.ReadRecordSet(sampleCSV)
	require.NoError(t, err)
	return rs
}

func TestClassify(t *testing.T) {
	reply := "```json\n" + `{
  "direct_coverage": [
    {"test_title": "FUNC-01: Login", "addresses": "COS 1 login"},
    {"test_title": "NEG-01: Bad password", "addresses": "COS 1"},
    {"test_title": "FUNC-01: Login", "addresses": "duplicate"}
  ],
  "additional_considerations": [
    {"test_title": "NEG-01: Bad password", "purpose": "negative path"},
    {"test_title": "FUNC-02: Reset password", "explanation": "extra"}
  ]
}` + "\n```"
	p := llmtest.NewScriptedProvider(llmtest.Text(reply))

	cm := NewClassifier(p, nil).Classify(context.Background(), sampleSet(t), "<ol><li>User can log in</li></ol>", "Product Backlog Item")
	require.NotNil(t, cm)

	assert.Equal(t, []models.CoverageEntry{{TestTitle: "FUNC-01: Login", Explanation: "COS 1 login"}}, cm.DirectCoverage)
	assert.Equal(t, []models.CoverageEntry{
		{TestTitle: "NEG-01: Bad password", Explanation: "negative path"},
		{TestTitle: "FUNC-02: Reset password", Explanation: "extra"},
	}, cm.AdditionalConsiderations)
	assert.Equal(t, 3, cm.Total())

	req := p.Requests[0]
	assert.Equal(t, systemPrompt, req.SystemPrompt)
	assert.Equal(t, 0.2, req.Temperature)
	assert.Equal(t, 2000, req.MaxOutputTokens)
	assert.Contains(t, req.UserPrompt, "CONDITIONS OF SATISFACTION (COS):\n• User can log in")
	assert.Contains(t, req.UserPrompt, "Test Case,FUNC-01: Login,,,,COS 1")
}

func TestClassify_Unavailable(t *testing.T) {
	tests := []struct {
		name  string
		reply llmtest.Reply
	}{
		{"provider error", llmtest.Fail(errors.New("network down"))},
		{"not json", llmtest.Text("I could not classify these.")},
		{"missing bucket", llmtest.Text(`{"direct_coverage": []}`)},
		{"wrong shape", llmtest.Text(`{"direct_coverage": {}, "additional_considerations": []}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.NewScriptedProvider(tt.reply)
			assert.Nil(t, NewClassifier(p, nil).Classify(context.Background(), sampleSet(t), "", "Bug"))
		})
	}
}

func TestClassify_EmptySetSkipsProvider(t *testing.T) {
	p := llmtest.NewScriptedProvider()
	assert.Nil(t, NewClassifier(p, nil).Classify(context.Background(), &models.RecordSet{}, "x", "Bug"))
	assert.Zero(t, p.Calls())
}

func TestBuildPrompt_Bug(t *testing.T) {
	got := BuildPrompt(sampleCSV, "", "Bug")
	assert.Contains(t, got, "EXPECTED RESULTS:\nNone specified")
	assert.Contains(t, got, "clearly tests a stated expected results")
}

func TestParseResponse_EmptyBuckets(t *testing.T) {
	cm, err := ParseResponse(`{"direct_coverage": [], "additional_considerations": [{"test_title": " "}]}`)
	require.NoError(t, err)
	assert.Empty(t, cm.DirectCoverage)
	assert.Empty(t, cm.AdditionalConsiderations)
	assert.Zero(t, cm.Total())
}

func TestMapReferences(t *testing.T) {
	criteria := []string{"User can log in", "User can log out"}
	mapped := MapReferences(criteria, sampleSet(t), "Product Backlog Item")
	require.Len(t, mapped, 2)

	assert.Equal(t, "COS 1", mapped[0].Label)
	assert.Equal(t, []string{"FUNC-01: Login", "NEG-01: Bad password"}, mapped[0].Tests)
	assert.False(t, mapped[1].Covered())

	uncovered := Uncovered(mapped)
	require.Len(t, uncovered, 1)
	assert.Equal(t, 2, uncovered[0].Index)
	assert.Equal(t, "User can log out", uncovered[0].Text)

	assert.Nil(t, MapReferences(criteria, sampleSet(t), "Bug"))
}

func TestReferencePattern(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"COS 1", true},
		{"cos1", true},
		{"COS-1; COS 2", true},
		{"COS 10", false},
		{"COS 11", false},
		{"", false},
	}
	p := referencePattern(1)
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.MatchString(tt.ref), tt.ref)
	}
}

func TestCriteria(t *testing.T) {
	item := models.WorkItem{Type: "Bug", ReproSteps: "1. Open the app\n2. Click save twice quickly"}
	assert.NotEmpty(t, Criteria(item))
}
