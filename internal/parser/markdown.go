package parser

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser extracts list items from Markdown criteria text.
type MarkdownParser struct {
	markdown goldmark.Markdown
}

// NewMarkdownParser creates a new Markdown criteria parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(),
	}
}

// ListItems returns the leading text of every list item in document order.
// Nested items follow their parent and are not folded into its text.
func (p *MarkdownParser) ListItems(content string) []string {
	source := []byte(content)
	doc := p.markdown.Parser().Parse(text.NewReader(source))

	var items []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if item, ok := n.(*ast.ListItem); ok {
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				if _, isList := c.(*ast.List); isList {
					continue
				}
				if s := strings.TrimSpace(extractText(c, source)); s != "" {
					items = append(items, s)
					break
				}
			}
		}
		return ast.WalkContinue, nil
	})
	return items
}

// extractText concatenates inline text below n.
func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		default:
			sb.WriteString(extractText(c, source))
		}
	}
	return sb.String()
}
