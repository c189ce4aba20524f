// Package generation turns a work item into a validated test-case CSV.
//
// A single provider call is validated and, when the validator reports
// critical problems, retried once with the problems appended to the prompt.
// The accepted attempt is sanitized before it is returned.
package generation

import (
	"context"
	"fmt"

	"github.com/harrison/casegen/internal/llm"
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
	"github.com/harrison/casegen/internal/validation"
)

// Generation defaults.
const (
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 4000
	MaxAttempts            = 2
)

// Logger receives progress from generation and refinement.
// Implementations live in internal/logger.
type Logger interface {
	LogInfo(message string)
	LogWarn(message string)
	LogValidation(attempt int, report *models.ValidationReport)
	LogRetry(attempt int, feedback string)
}

// Options configure an Orchestrator. Zero values select the defaults.
type Options struct {
	Template        *PromptTemplate
	ExampleCSV      string
	Temperature     float64
	MaxOutputTokens int
}

// Orchestrator coordinates prompt rendering, the provider call, validation,
// the single retry and sanitization.
type Orchestrator struct {
	provider    llm.Provider
	validator   *validation.Validator
	template    *PromptTemplate
	exampleCSV  string
	temperature float64
	maxTokens   int
	logger      Logger
}

// NewOrchestrator creates an Orchestrator. logger may be nil.
func NewOrchestrator(provider llm.Provider, validator *validation.Validator, opts Options, logger Logger) *Orchestrator {
	o := &Orchestrator{
		provider:    provider,
		validator:   validator,
		template:    opts.Template,
		exampleCSV:  opts.ExampleCSV,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxOutputTokens,
		logger:      logger,
	}
	if o.validator == nil {
		o.validator = validation.NewValidator(validation.Options{})
	}
	if o.template == nil {
		o.template = DefaultPromptTemplate()
	}
	if o.exampleCSV == "" {
		o.exampleCSV = DefaultExampleCSV()
	}
	if o.temperature <= 0 {
		o.temperature = DefaultTemperature
	}
	if o.maxTokens <= 0 {
		o.maxTokens = DefaultMaxOutputTokens
	}
	return o
}

// BuildPrompt renders the generation prompt for item.
func (o *Orchestrator) BuildPrompt(item models.WorkItem) string {
	return o.template.Render(item, o.exampleCSV)
}

// Generate produces a validated, sanitized CSV for item.
//
// Provider failures are not retried; they come back as a *ProviderCallError
// carrying the attempt number and wrapping the *llm.ProviderError.
// When both attempts carry critical messages the error is a
// *ValidationError holding the second attempt's report.
func (o *Orchestrator) Generate(ctx context.Context, item models.WorkItem) (*models.GenerationResult, error) {
	prompt := o.BuildPrompt(item)
	o.logInfo(fmt.Sprintf("Generating test cases for %s %d using %s (%s)",
		item.Type, item.ID, o.provider.Name(), o.provider.Model()))

	var report *models.ValidationReport
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := llm.Request{
			SystemPrompt:    SystemPrompt,
			UserPrompt:      prompt,
			Temperature:     o.temperature,
			MaxOutputTokens: o.maxTokens,
		}
		raw, err := o.provider.Generate(ctx, req)
		if err != nil {
			return nil, &ProviderCallError{Attempt: attempt, Err: err}
		}

		report = o.validator.ValidateAndFix(parser.CleanModelOutput(raw))
		o.logValidation(attempt, report)

		if report.IsValid {
			return &models.GenerationResult{
				Content:  o.sanitize(report.RepairedContent),
				Report:   report,
				Attempts: attempt,
			}, nil
		}

		if attempt < MaxAttempts {
			feedback := FormatFeedback(report.Critical())
			o.logRetry(attempt, feedback)
			prompt = RetryPrompt(prompt, report.Critical())
		}
	}

	return nil, NewValidationError(report, MaxAttempts)
}

func (o *Orchestrator) sanitize(content string) string {
	out, stats, ok := validation.SanitizeWithStats(content)
	if !ok {
		o.logWarn("Sanitizer could not parse the accepted CSV; keeping it unchanged")
		return content
	}
	if stats.CellsChanged > 0 {
		o.logInfo(fmt.Sprintf("Sanitized %d cell(s) containing commas", stats.CellsChanged))
	}
	return out
}

func (o *Orchestrator) logInfo(msg string) {
	if o.logger != nil {
		o.logger.LogInfo(msg)
	}
}

func (o *Orchestrator) logWarn(msg string) {
	if o.logger != nil {
		o.logger.LogWarn(msg)
	}
}

func (o *Orchestrator) logValidation(attempt int, report *models.ValidationReport) {
	if o.logger != nil {
		o.logger.LogValidation(attempt, report)
	}
}

func (o *Orchestrator) logRetry(attempt int, feedback string) {
	if o.logger != nil {
		o.logger.LogRetry(attempt, feedback)
	}
}
