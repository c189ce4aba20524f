package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCriteria(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty",
			input: "  ",
			want:  nil,
		},
		{
			name:  "html list with short sub bullets",
			input: `<ul><li>User must be able to export the report as PDF</li><li>Ops<ul><li>SSM</li></ul></li><li>SSM Types</li><li>Verify totals</li></ul>`,
			want:  []string{"User must be able to export the report as PDF", "Ops", "Verify totals"},
		},
		{
			name:  "html paragraphs with numbers",
			input: "<div>1. Login succeeds</div><div>2. Logout clears session</div>",
			want:  []string{"Login succeeds", "Logout clears session"},
		},
		{
			name:  "markdown bullets",
			input: "- First item\n- Second item",
			want:  []string{"First item", "Second item"},
		},
		{
			name:  "unicode bullets and sentences",
			input: "• Export works\nThe system should email the admin on failure\nshort line",
			want:  []string{"Export works", "The system should email the admin on failure"},
		},
		{
			name:  "checkbox lines",
			input: "[x] Saved state persists\n[ ] Undo works",
			want:  []string{"Saved state persists", "Undo works"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCriteria(tt.input))
		})
	}
}

func TestHTMLToText(t *testing.T) {
	got := HTMLToText("<div>Intro &amp; scope</div><ul><li>One</li><li>Two</li></ul><p>End<br>line</p>")
	assert.Equal(t, "Intro & scope\n\n• One\n• Two\nEnd\nline", got)
	assert.Equal(t, "a & b", HTMLToText("a &amp; b"))
}
