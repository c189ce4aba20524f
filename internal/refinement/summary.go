package refinement

import (
	"context"
	"fmt"
	"strings"

	"github.com/harrison/casegen/internal/llm"
	"github.com/harrison/casegen/internal/models"
)

// FallbackSummary is used whenever a change summary cannot be produced.
const FallbackSummary = "Changes applied successfully. Review the updated test cases."

const summarySystemPrompt = "You are a QA analyst that concisely summarizes changes in test cases. " +
	"Be specific about what was added, modified, or removed."

const (
	summaryTemperature = 0.3
	summaryMaxTokens   = 500
	summaryTitleLimit  = 10
	summarySampleChars = 2000
)

// Summarize asks the provider for a short description of the changes from
// oldCSV to newCSV. Any failure yields FallbackSummary.
func Summarize(ctx context.Context, provider llm.Provider, oldCSV, newCSV string, diff models.TitleDiff) string {
	if provider == nil {
		return FallbackSummary
	}
	req := llm.Request{
		SystemPrompt:    summarySystemPrompt,
		UserPrompt:      buildSummaryPrompt(oldCSV, newCSV, diff),
		Temperature:     summaryTemperature,
		MaxOutputTokens: summaryMaxTokens,
	}
	text, err := provider.Generate(ctx, req)
	if err != nil {
		return FallbackSummary
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackSummary
	}
	return text
}

func buildSummaryPrompt(oldCSV, newCSV string, diff models.TitleDiff) string {
	oldCount := len(diff.Removed) + len(diff.Kept)
	newCount := len(diff.Added) + len(diff.Kept)

	var sb strings.Builder
	sb.WriteString("Summarize how these test cases changed.\n\n")
	sb.WriteString("COUNTS:\n")
	fmt.Fprintf(&sb, "- Before: %d test cases\n", oldCount)
	fmt.Fprintf(&sb, "- After: %d test cases\n", newCount)
	fmt.Fprintf(&sb, "- Added: %d\n", len(diff.Added))
	fmt.Fprintf(&sb, "- Removed: %d\n", len(diff.Removed))
	fmt.Fprintf(&sb, "- Kept or modified: %d\n\n", len(diff.Kept))

	sb.WriteString("ADDED TITLES:\n")
	writeTitles(&sb, diff.Added)
	sb.WriteString("\nREMOVED TITLES:\n")
	writeTitles(&sb, diff.Removed)

	sb.WriteString("\nBEFORE (sample):\n")
	sb.WriteString(head(oldCSV, summarySampleChars))
	sb.WriteString("\n\nAFTER (sample):\n")
	sb.WriteString(head(newCSV, summarySampleChars))

	sb.WriteString("\n\nWrite 3 to 5 short bullet points covering what was added and why it helps, " +
		"what was removed or changed, and any pattern in the changes such as new negative tests. " +
		"Keep it brief and readable.")
	return sb.String()
}

func writeTitles(sb *strings.Builder, titles []string) {
	if len(titles) == 0 {
		sb.WriteString("None\n")
		return
	}
	for i, t := range titles {
		if i == summaryTitleLimit {
			break
		}
		sb.WriteString("- ")
		sb.WriteString(t)
		sb.WriteByte('\n')
	}
}

// head returns at most n runes of s.
func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
