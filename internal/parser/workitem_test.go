package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/casegen/internal/models"
)

func TestParseWorkItem(t *testing.T) {
	data := []byte(`{
		"id": 4711,
		"fields": {
			"System.WorkItemType": "Bug",
			"System.Title": "Crash on save",
			"System.State": "Active",
			"System.Description": "<div>Saving crashes</div>",
			"Microsoft.VSTS.TCM.ReproSteps": "1. Open\n2. Save",
			"System.AreaId": 12
		}
	}`)

	item, err := ParseWorkItem(data)
	require.NoError(t, err)
	assert.Equal(t, 4711, item.ID)
	assert.Equal(t, "Bug", item.Type)
	assert.Equal(t, "Crash on save", item.Title)
	assert.Equal(t, "Active", item.State)
	assert.Empty(t, item.AcceptanceCriteria)
	assert.Equal(t, "1. Open\n2. Save", item.CriteriaText())
}

func TestParseWorkItem_Fallbacks(t *testing.T) {
	data := []byte(`{"id": 1, "fields": {
		"System.Title": "Story",
		"Microsoft.VSTS.Common.AcceptanceCriteria": "",
		"Custom.ExpectedResults": "Works",
		"Custom.DeveloperNotes": "notes"
	}}`)

	item, err := ParseWorkItem(data)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWorkItemType, item.Type)
	assert.Equal(t, "Works", item.AcceptanceCriteria)
	assert.Equal(t, "notes", item.ReproSteps)
}

func TestParseWorkItem_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"no fields", `{"id": 3}`},
		{"no title", `{"id": 3, "fields": {"System.WorkItemType": "Bug"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWorkItem([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
