package generation

import (
	"fmt"
	"strings"

	"github.com/harrison/casegen/internal/models"
)

// ValidationError is returned when provider output still carries critical
// validation messages after the permitted attempts.
type ValidationError struct {
	Messages []string                 // Critical messages of the last attempt
	Attempts int                      // Provider calls made
	Report   *models.ValidationReport // Full report of the last attempt
}

// NewValidationError creates a ValidationError from the last attempt's report.
func NewValidationError(report *models.ValidationReport, attempts int) *ValidationError {
	return &ValidationError{
		Messages: report.Critical(),
		Attempts: attempts,
		Report:   report,
	}
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	noun := "attempts"
	if e.Attempts == 1 {
		noun = "attempt"
	}
	return fmt.Sprintf("output failed validation after %d %s: %s",
		e.Attempts, noun, strings.Join(e.Messages, "; "))
}

// ProviderCallError wraps a provider failure with the attempt it happened
// on, so callers can count the calls made. The provider's own error stays
// reachable through errors.As.
type ProviderCallError struct {
	Attempt int
	Err     error
}

func (e *ProviderCallError) Error() string { return e.Err.Error() }

func (e *ProviderCallError) Unwrap() error { return e.Err }
