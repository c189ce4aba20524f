package parser

import (
	"regexp"
	"strings"
)

// listItemKeywords let short HTML list items count as criteria.
var listItemKeywords = []string{"verify", "ensure", "check", "test", "should", "must", "user", "system"}

// sentenceKeywords let unnumbered plain-text lines count as criteria.
var sentenceKeywords = []string{"should", "must", "shall", "will", "can", "user", "system", "given", "when", "then", "verify"}

// criterionLinePattern matches "1.", "1)", "-", "*", "•" and "[x]" prefixed lines.
var criterionLinePattern = regexp.MustCompile(`^(?:\d+[.)]|[-*•]|\[[xX\s]\])\s*(.+)$`)

var htmlTagPattern = regexp.MustCompile(`(?i)<[a-z/][^>]*>`)

// ExtractCriteria splits acceptance-criteria text into individual criteria.
// HTML list items win when present; otherwise the text is converted to plain
// text and Markdown list items are used, then numbered or bulleted lines and
// requirement-like sentences.
func ExtractCriteria(criteria string) []string {
	if strings.TrimSpace(criteria) == "" {
		return nil
	}

	if strings.Contains(strings.ToLower(criteria), "<li") {
		if items := htmlListItems(criteria); len(items) > 0 {
			return items
		}
	}

	plain := criteria
	if htmlTagPattern.MatchString(plain) {
		plain = HTMLToText(plain)
	}

	if items := NewMarkdownParser().ListItems(plain); len(items) > 0 {
		return items
	}

	var items []string
	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := criterionLinePattern.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
			continue
		}
		if len(line) > 20 && containsAny(line, sentenceKeywords) {
			items = append(items, line)
		}
	}
	return items
}
