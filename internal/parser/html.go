package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankRunPattern = regexp.MustCompile(`\n{3,}`)

// HTMLToText renders Azure DevOps rich text as plain text.
// List items become bullet lines and block elements start new lines.
// Text without markup is returned trimmed.
func HTMLToText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(html.UnescapeString(s))
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	renderText(&sb, doc)

	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	out := blankRunPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func renderText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "br":
			sb.WriteByte('\n')
			return
		case "li":
			sb.WriteString("\n• ")
		case "p", "div", "ul", "ol", "tr", "h1", "h2", "h3", "h4":
			sb.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(sb, c)
	}
	if n.Type == html.ElementNode && (n.Data == "p" || n.Data == "div") {
		sb.WriteByte('\n')
	}
}

// htmlListItems returns the text of every <li> element in document order.
// Text inside nested lists is excluded from the parent item. Items with a
// nested list are always kept; other items must be longer than 30 characters
// or mention a requirement keyword.
func htmlListItems(s string) []string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return nil
	}

	var items []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" {
			var sb strings.Builder
			nested := false
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
					nested = true
					continue
				}
				renderText(&sb, c)
			}
			item := collapseSpace(sb.String())
			if item != "" && (nested || len(item) > 30 || containsAny(item, listItemKeywords)) {
				items = append(items, item)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return items
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(s string, words []string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
