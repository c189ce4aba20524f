// Package refinement applies free-text instructions to an accepted
// test-case document and reports what changed.
package refinement

import (
	"context"
	"fmt"
	"strings"

	"github.com/harrison/casegen/internal/generation"
	"github.com/harrison/casegen/internal/llm"
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
	"github.com/harrison/casegen/internal/validation"
)

const systemPrompt = "You are a QA expert that refines and improves manual test cases based on feedback. " +
	"Always maintain the CSV format and structure."

// Options configure a Merger. Zero values select the defaults.
type Options struct {
	Temperature     float64
	MaxOutputTokens int
	SkipSummary     bool
}

// Merger refines a document through the provider.
type Merger struct {
	provider    llm.Provider
	validator   *validation.Validator
	temperature float64
	maxTokens   int
	skipSummary bool
	logger      generation.Logger
}

// NewMerger creates a Merger. logger may be nil.
func NewMerger(provider llm.Provider, validator *validation.Validator, opts Options, logger generation.Logger) *Merger {
	m := &Merger{
		provider:    provider,
		validator:   validator,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxOutputTokens,
		skipSummary: opts.SkipSummary,
		logger:      logger,
	}
	if m.validator == nil {
		m.validator = validation.NewValidator(validation.Options{})
	}
	if m.temperature <= 0 {
		m.temperature = generation.DefaultTemperature
	}
	if m.maxTokens <= 0 {
		m.maxTokens = generation.DefaultMaxOutputTokens
	}
	return m
}

// BuildPrompt renders the refinement prompt.
func BuildPrompt(current, instruction string) string {
	var sb strings.Builder
	sb.WriteString("CURRENT TEST CASES (CSV format):\n")
	sb.WriteString(strings.TrimSpace(current))
	sb.WriteString("\n\nREFINEMENT INSTRUCTIONS:\n")
	sb.WriteString(strings.TrimSpace(instruction))
	sb.WriteString("\n\nIMPORTANT RULES:\n")
	sb.WriteString("1. Keep the CSV format and the same header row\n")
	sb.WriteString("2. Keep every existing test case unless the instructions say to remove it\n")
	sb.WriteString("3. Apply the instructions by adding, changing or improving test cases\n")
	sb.WriteString("4. Never put commas inside text fields; use semicolons instead\n")
	sb.WriteString("5. Each Test Case is one row and each Step is its own row\n")
	sb.WriteString("6. Return only the complete CSV with no explanation\n")
	return sb.String()
}

// Refine applies instruction to current. Images are attached when the
// provider's model accepts them and dropped with a warning otherwise.
//
// There is no automatic retry: critical validation messages are returned
// as a *generation.ValidationError and current stays authoritative.
func (m *Merger) Refine(ctx context.Context, current, instruction string, images []llm.Image) (*models.RefinementResult, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("refinement instruction is empty")
	}
	if strings.TrimSpace(current) == "" {
		return nil, fmt.Errorf("no test cases to refine")
	}

	if len(images) > 0 && !llm.SupportsImages(m.provider.Name(), m.provider.Model()) {
		m.logWarn(fmt.Sprintf("%s (%s) does not accept images; ignoring %d attachment(s)",
			m.provider.Name(), m.provider.Model(), len(images)))
		images = nil
	}

	m.logInfo(fmt.Sprintf("Refining test cases with %s (%s)", m.provider.Name(), m.provider.Model()))
	raw, err := m.provider.Generate(ctx, llm.Request{
		SystemPrompt:    systemPrompt,
		UserPrompt:      BuildPrompt(current, instruction),
		Images:          images,
		Temperature:     m.temperature,
		MaxOutputTokens: m.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	report := m.validator.ValidateAndFix(parser.CleanModelOutput(raw))
	if m.logger != nil {
		m.logger.LogValidation(1, report)
	}
	if !report.IsValid {
		return nil, generation.NewValidationError(report, 1)
	}

	content := validation.Sanitize(report.RepairedContent)
	diff := DiffTitles(current, content)
	m.logInfo(fmt.Sprintf("Refinement accepted: %d added, %d removed, %d kept",
		len(diff.Added), len(diff.Removed), len(diff.Kept)))

	summary := FallbackSummary
	if !m.skipSummary {
		summary = Summarize(ctx, m.provider, current, content, diff)
		if summary == FallbackSummary {
			m.logWarn("Could not generate a change summary")
		}
	}

	return &models.RefinementResult{
		Content:       content,
		Report:        report,
		Diff:          diff,
		ChangeSummary: summary,
	}, nil
}

// MissingCriteriaInstruction builds an instruction asking for tests that
// cover the given criteria. It returns "" when nothing is uncovered.
func MissingCriteriaInstruction(uncovered []models.CriterionCoverage) string {
	if len(uncovered) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Add test cases for these criteria, which no existing test covers. ")
	sb.WriteString("Put the criterion label in the last column of each new test case row.\n")
	for _, c := range uncovered {
		fmt.Fprintf(&sb, "- %s: %s\n", c.Label, c.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Merger) logInfo(msg string) {
	if m.logger != nil {
		m.logger.LogInfo(msg)
	}
}

func (m *Merger) logWarn(msg string) {
	if m.logger != nil {
		m.logger.LogWarn(msg)
	}
}
