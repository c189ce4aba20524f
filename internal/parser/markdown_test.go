package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownParser_ListItems(t *testing.T) {
	content := `Criteria:

1. User can log in with **valid** credentials
2. Invalid password shows an error
   - nested detail

- Session expires after 30 minutes
`
	items := NewMarkdownParser().ListItems(content)
	assert.Equal(t, []string{
		"User can log in with valid credentials",
		"Invalid password shows an error",
		"nested detail",
		"Session expires after 30 minutes",
	}, items)
}

func TestMarkdownParser_NoLists(t *testing.T) {
	assert.Empty(t, NewMarkdownParser().ListItems("Just a paragraph of text."))
}
