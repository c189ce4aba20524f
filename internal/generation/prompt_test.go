package generation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/casegen/internal/models"
)

func TestParsePromptTemplate(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"known placeholders", "Title {title} for {work_item_type}", ""},
		{"escaped braces", `Return {{"a": 1}} for {title}`, ""},
		{"unknown placeholder", "Hello {name} and {pbi}", "{name}, {pbi}"},
		{"empty", "  \n", "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePromptTemplate(tt.text)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPromptTemplate_Render(t *testing.T) {
	tmpl, err := ParsePromptTemplate("{title}|{description}|{last_column}|{last_column_lower}|{{title}}|{template_content}")
	require.NoError(t, err)

	got := tmpl.Render(models.WorkItem{Type: "Bug", Title: "Crash"}, "  example\n")
	assert.Equal(t, "Crash|N/A|Expected Results|expected results|{title}|example", got)
}

func TestDefaultPromptTemplate_IsValid(t *testing.T) {
	_, err := ParsePromptTemplate(DefaultPromptTemplate().Text())
	require.NoError(t, err)

	out := DefaultPromptTemplate().Render(models.WorkItem{Type: "Product Backlog Item", Title: "T"}, DefaultExampleCSV())
	assert.NotContains(t, out, "{title}")
	assert.Contains(t, out, "Work Item Type,Title,Test Step,Step Action,Step Expected,COS Reference")
	assert.Contains(t, out, models.LastColumnDescription("Product Backlog Item"))
}

func TestLoadPromptTemplate(t *testing.T) {
	tmpl, err := LoadPromptTemplate("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPromptTemplate().Text(), tmpl.Text())

	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("Write tests for {title}"), 0644))
	tmpl, err = LoadPromptTemplate(good)
	require.NoError(t, err)
	assert.Equal(t, "Write tests for {title}", tmpl.Text())

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("{unknown}"), 0644))
	_, err = LoadPromptTemplate(bad)
	assert.ErrorContains(t, err, "bad.txt")

	_, err = LoadPromptTemplate(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestLoadExampleCSV(t *testing.T) {
	csv, err := LoadExampleCSV("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(csv, "Work Item Type,"))

	path := filepath.Join(t.TempDir(), "t.csv")
	require.NoError(t, os.WriteFile(path, []byte("custom"), 0644))
	csv, err = LoadExampleCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", csv)
}

func TestRetryPrompt(t *testing.T) {
	got := RetryPrompt("base", []string{"CRITICAL: a", "CRITICAL: b"})
	assert.Equal(t, "base\n\nPREVIOUS ATTEMPT HAD ERRORS - PLEASE FIX:\n- CRITICAL: a\n- CRITICAL: b\n\nGenerate the CSV again with these issues corrected.", got)
}
