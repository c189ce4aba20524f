// Package session holds the per-work-item working state that flows between
// generation, coverage analysis and refinements, and persists it.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
)

// State is the working state for one work item. Apply functions return a
// new State and never modify their input.
type State struct {
	WorkItem  models.WorkItem
	Content   string                  // Accepted CSV text
	Messages  []string                // Advisories of the accepted content
	Coverage  *models.CoverageMap     // Nil when unavailable or stale
	Criteria  []models.CriterionCoverage
	History   []models.RefinementHistoryEntry
	UpdatedAt time.Time
}

// NewState starts a session for item.
func NewState(item models.WorkItem) State {
	return State{WorkItem: item, UpdatedAt: time.Now()}
}

// HasContent reports whether test cases have been accepted.
func (s State) HasContent() bool {
	return s.Content != ""
}

// RecordSet parses the accepted content.
func (s State) RecordSet() (*models.RecordSet, error) {
	return parser.ReadRecordSet(s.Content)
}

// ApplyGeneration replaces the content with a freshly generated document.
// Coverage and history belong to the old content and are cleared.
func ApplyGeneration(s State, res *models.GenerationResult) State {
	next := s
	next.Content = res.Content
	next.Messages = advisories(res.Report)
	next.Coverage = nil
	next.Criteria = nil
	next.History = nil
	next.UpdatedAt = time.Now()
	return next
}

// ApplyRefinement supersedes the content and appends a history entry, which
// is also returned for persistence.
func ApplyRefinement(s State, instruction string, imageRefs []string, res *models.RefinementResult) (State, models.RefinementHistoryEntry) {
	now := time.Now()
	entry := models.RefinementHistoryEntry{
		ID:                uuid.NewString(),
		WorkItemID:        s.WorkItem.ID,
		Instruction:       instruction,
		AttachedImageRefs: append([]string(nil), imageRefs...),
		Timestamp:         now,
		ChangeSummary:     res.ChangeSummary,
		Added:             len(res.Diff.Added),
		Removed:           len(res.Diff.Removed),
		Kept:              len(res.Diff.Kept),
	}

	next := s
	next.Content = res.Content
	next.Messages = advisories(res.Report)
	next.Coverage = nil
	next.Criteria = nil
	next.History = append(append([]models.RefinementHistoryEntry(nil), s.History...), entry)
	next.UpdatedAt = now
	return next, entry
}

// ApplyCoverage attaches a coverage analysis to the current content.
// cm may be nil when classification was unavailable.
func ApplyCoverage(s State, cm *models.CoverageMap, criteria []models.CriterionCoverage) State {
	next := s
	next.Coverage = cm
	next.Criteria = criteria
	next.UpdatedAt = time.Now()
	return next
}

func advisories(r *models.ValidationReport) []string {
	if r == nil {
		return nil
	}
	return r.Advisories()
}
