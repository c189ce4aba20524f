package models

import "strings"

// Message prefixes used in validation reports
const (
	CriticalPrefix = "CRITICAL:"
	AutoFixPrefix  = "Auto-fixed"
	WarningPrefix  = "Warning:"
)

// ValidationReport is the outcome of a structural validation pass.
// RepairedContent is always populated: the original text when nothing was
// changed or the input could not be parsed, the rewritten text otherwise.
type ValidationReport struct {
	IsValid         bool
	Messages        []string
	RepairedContent string
}

// IsCritical reports whether a message blocks acceptance of the document.
func IsCritical(msg string) bool {
	return strings.HasPrefix(msg, CriticalPrefix)
}

// IsAutoFix reports whether a message describes a repair the validator made.
func IsAutoFix(msg string) bool {
	return strings.HasPrefix(msg, AutoFixPrefix)
}

// HasCritical reports whether any message is critical.
func (r *ValidationReport) HasCritical() bool {
	for _, m := range r.Messages {
		if IsCritical(m) {
			return true
		}
	}
	return false
}

// Critical returns only the critical messages.
func (r *ValidationReport) Critical() []string {
	var out []string
	for _, m := range r.Messages {
		if IsCritical(m) {
			out = append(out, m)
		}
	}
	return out
}

// Advisories returns auto-fix notes and warnings.
func (r *ValidationReport) Advisories() []string {
	var out []string
	for _, m := range r.Messages {
		if !IsCritical(m) {
			out = append(out, m)
		}
	}
	return out
}

// GenerationResult is the accepted output of a generation run.
type GenerationResult struct {
	Content  string            // Sanitized CSV text
	Report   *ValidationReport // Report of the accepted attempt
	Attempts int               // Provider calls made (1 or 2)
}

// TitleDiff is the set difference of test case titles between two documents.
// Each slice keeps the order in which titles appear in their source.
type TitleDiff struct {
	Added   []string
	Removed []string
	Kept    []string
}

// RefinementResult is the accepted output of a refinement.
type RefinementResult struct {
	Content       string
	Report        *ValidationReport
	Diff          TitleDiff
	ChangeSummary string
}
