package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"csv fence", "```csv\na,b\n1,2\n```", "a,b\n1,2"},
		{"json fence", "```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"bare fence", "```\na,b\n```\n", "a,b"},
		{"no fence", "  a,b\n1,2  ", "a,b\n1,2"},
		{"unterminated", "```csv\na,b", "a,b"},
		{"prose around fence", "Here you go:\n```csv\na,b\n```\nThanks", "a,b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.input))
		})
	}
}

func TestCleanModelOutput(t *testing.T) {
	header := "Work Item Type,Title,Test Step,Step Action,Step Expected,COS Reference"

	t.Run("drops leading prose", func(t *testing.T) {
		input := "Sure! Here is the CSV:\n" + header + "\nTest Case,T1,,,,COS 1"
		assert.Equal(t, header+"\nTest Case,T1,,,,COS 1", CleanModelOutput(input))
	})

	t.Run("stops at trailing explanation", func(t *testing.T) {
		input := header + "\nTest Case,T1,,,,COS 1\n,,1,Do,Done,\n\nNote: these cover the happy path."
		assert.Equal(t, header+"\nTest Case,T1,,,,COS 1\n,,1,Do,Done,", CleanModelOutput(input))
	})

	t.Run("keeps data rows mentioning markers", func(t *testing.T) {
		input := header + "\nTest Case,Note: based on login,,,,COS 1"
		assert.Equal(t, input, CleanModelOutput(input))
	})

	t.Run("no header returns stripped text", func(t *testing.T) {
		assert.Equal(t, "a,b,c", CleanModelOutput("```\na,b,c\n```"))
	})

	t.Run("keeps quoted cell continuing with a marker", func(t *testing.T) {
		input := header + "\n" +
			"Test Case,FUNC-01: Grid,,,,COS 1\n" +
			",,1,\"Check the grid\nNote: sorted by date\",Rows shown,\n" +
			"Test Case,FUNC-02: Export,,,,COS 2\n" +
			",,1,Export,File saved,\n" +
			"Test Case,NEG-01: Empty grid,,,,COS 1\n" +
			",,1,Clear data,Empty message shown,"
		assert.Equal(t, input, CleanModelOutput(input))
	})

	t.Run("test case type in any case", func(t *testing.T) {
		input := header + "\nTest case,FUNC-01: Access based on role,,,,COS 1\n,,1,Log in as admin,Admin menu shown,"
		assert.Equal(t, input, CleanModelOutput(input))
	})

	t.Run("marker line before last record is kept", func(t *testing.T) {
		input := header + "\nTest Case,T1,,,,COS 1\nBased on the form\nTest Case,T2,,,,COS 2"
		assert.Equal(t, input, CleanModelOutput(input))
	})

	t.Run("trailing prose after multi-line cell is cut", func(t *testing.T) {
		body := header + "\nTest Case,T1,,,,COS 1\n,,1,\"Open\nNote: twice\",Done,"
		assert.Equal(t, body, CleanModelOutput(body+"\n\nNote: adjust as needed."))
	})

	t.Run("crlf normalized", func(t *testing.T) {
		assert.Equal(t, header+"\nTest Case,T1,,,,COS 1", CleanModelOutput(header+"\r\nTest Case,T1,,,,COS 1\r\n"))
	})
}
