package generation

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
)

//go:embed templates/prompt.txt
var defaultPromptText string

//go:embed templates/testcase_template.csv
var defaultExampleCSV string

// SystemPrompt is sent with every generation request.
const SystemPrompt = "You are a QA expert that generates comprehensive manual test cases in CSV format. " +
	"ALWAYS use commas as delimiters and properly escape any commas within text fields."

// Placeholder names a prompt template may reference as {name}.
const (
	PlaceholderWorkItemType          = "work_item_type"
	PlaceholderTitle                 = "title"
	PlaceholderDescription           = "description"
	PlaceholderAcceptanceCriteria    = "acceptance_criteria"
	PlaceholderReproSteps            = "repro_steps"
	PlaceholderTemplateContent       = "template_content"
	PlaceholderLastColumn            = "last_column"
	PlaceholderLastColumnLower       = "last_column_lower"
	PlaceholderLastColumnDescription = "last_column_description"
)

var knownPlaceholders = map[string]bool{
	PlaceholderWorkItemType:          true,
	PlaceholderTitle:                 true,
	PlaceholderDescription:           true,
	PlaceholderAcceptanceCriteria:    true,
	PlaceholderReproSteps:            true,
	PlaceholderTemplateContent:       true,
	PlaceholderLastColumn:            true,
	PlaceholderLastColumnLower:       true,
	PlaceholderLastColumnDescription: true,
}

var placeholderPattern = regexp.MustCompile(`\{([^{}\s]*)\}`)

// notAvailable fills placeholders for empty work item fields.
const notAvailable = "N/A"

// PromptTemplate is a user-editable generation prompt with {name}
// placeholders. "{{" and "}}" render as literal braces.
type PromptTemplate struct {
	text string
}

// ParsePromptTemplate checks that every placeholder in text is known.
func ParsePromptTemplate(text string) (*PromptTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("prompt template is empty")
	}
	stripped := strings.NewReplacer("{{", "", "}}", "").Replace(text)

	var unknown []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(stripped, -1) {
		if !knownPlaceholders[m[1]] {
			unknown = append(unknown, "{"+m[1]+"}")
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("prompt template uses unknown placeholders: %s (known: %s)",
			strings.Join(unknown, ", "), strings.Join(PlaceholderNames(), ", "))
	}
	return &PromptTemplate{text: text}, nil
}

// DefaultPromptTemplate returns the built-in prompt.
func DefaultPromptTemplate() *PromptTemplate {
	return &PromptTemplate{text: defaultPromptText}
}

// DefaultExampleCSV returns the built-in format example inserted as
// {template_content}.
func DefaultExampleCSV() string {
	return defaultExampleCSV
}

// LoadPromptTemplate reads a template file, or returns the default when
// path is empty.
func LoadPromptTemplate(path string) (*PromptTemplate, error) {
	if path == "" {
		return DefaultPromptTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}
	tmpl, err := ParsePromptTemplate(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tmpl, nil
}

// LoadExampleCSV reads the format example file, or returns the default when
// path is empty.
func LoadExampleCSV(path string) (string, error) {
	if path == "" {
		return defaultExampleCSV, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read CSV template: %w", err)
	}
	return string(data), nil
}

// PlaceholderNames lists the placeholders a template may use.
func PlaceholderNames() []string {
	names := make([]string, 0, len(knownPlaceholders))
	for name := range knownPlaceholders {
		names = append(names, "{"+name+"}")
	}
	sort.Strings(names)
	return names
}

// Text returns the raw template text.
func (t *PromptTemplate) Text() string {
	return t.text
}

// Render substitutes work item values into the template.
func (t *PromptTemplate) Render(item models.WorkItem, exampleCSV string) string {
	lastColumn := models.LastColumn(item.Type)
	values := map[string]string{
		PlaceholderWorkItemType:          orNA(item.Type),
		PlaceholderTitle:                 orNA(item.Title),
		PlaceholderDescription:           orNA(parser.HTMLToText(item.Description)),
		PlaceholderAcceptanceCriteria:    orNA(parser.HTMLToText(item.AcceptanceCriteria)),
		PlaceholderReproSteps:            orNA(parser.HTMLToText(item.ReproSteps)),
		PlaceholderTemplateContent:       strings.TrimSpace(exampleCSV),
		PlaceholderLastColumn:            lastColumn,
		PlaceholderLastColumnLower:       strings.ToLower(lastColumn),
		PlaceholderLastColumnDescription: models.LastColumnDescription(item.Type),
	}

	pairs := []string{"{{", "{", "}}", "}"}
	for name, value := range values {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(t.text)
}

// RetryPrompt appends validator feedback to the original prompt.
func RetryPrompt(prompt string, critical []string) string {
	return prompt + "\n\nPREVIOUS ATTEMPT HAD ERRORS - PLEASE FIX:\n" + FormatFeedback(critical) +
		"\n\nGenerate the CSV again with these issues corrected."
}

// FormatFeedback renders one "- message" line per validator message.
func FormatFeedback(messages []string) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = "- " + m
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
