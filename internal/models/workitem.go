package models

import "strings"

// WorkItem is the subset of an Azure DevOps work item used to build prompts.
// Text fields may contain HTML as exported by Azure DevOps.
type WorkItem struct {
	ID                 int    `json:"id"`
	Type               string `json:"type"`
	Title              string `json:"title"`
	State              string `json:"state,omitempty"`
	Description        string `json:"description,omitempty"`
	AcceptanceCriteria string `json:"acceptance_criteria,omitempty"`
	ReproSteps         string `json:"repro_steps,omitempty"`
}

// IsBug reports whether the work item is a bug.
func (w WorkItem) IsBug() bool {
	return IsBug(w.Type)
}

// CriteriaText returns the text coverage is measured against: acceptance
// criteria when present, repro steps for bugs without criteria, else "".
func (w WorkItem) CriteriaText() string {
	if strings.TrimSpace(w.AcceptanceCriteria) != "" {
		return w.AcceptanceCriteria
	}
	if w.IsBug() {
		return w.ReproSteps
	}
	return ""
}
