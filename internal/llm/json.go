package llm

import "strings"

// ExtractJSON returns the outermost {...} span of content, or content
// unchanged when no object is found. Models sometimes wrap JSON in prose.
func ExtractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return content
	}
	return content[start : end+1]
}
