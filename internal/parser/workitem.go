package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harrison/casegen/internal/models"
)

// Azure DevOps field reference names read from a work item export
const (
	FieldWorkItemType       = "System.WorkItemType"
	FieldTitle              = "System.Title"
	FieldState              = "System.State"
	FieldDescription        = "System.Description"
	FieldAcceptanceCriteria = "Microsoft.VSTS.Common.AcceptanceCriteria"
	FieldReproSteps         = "Microsoft.VSTS.TCM.ReproSteps"
	FieldExpectedResults    = "Custom.ExpectedResults"
	FieldDeveloperNotes     = "Custom.DeveloperNotes"
)

type workItemExport struct {
	ID     int            `json:"id"`
	Fields map[string]any `json:"fields"`
}

// ParseWorkItem decodes the JSON printed by `az boards work-item show`.
// Acceptance criteria fall back to Custom.ExpectedResults and repro steps
// fall back to Custom.DeveloperNotes when the standard fields are empty.
func ParseWorkItem(data []byte) (*models.WorkItem, error) {
	var export workItemExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse work item JSON: %w", err)
	}
	if export.Fields == nil {
		return nil, fmt.Errorf("work item JSON has no fields")
	}

	item := &models.WorkItem{
		ID:                 export.ID,
		Type:               stringField(export.Fields, FieldWorkItemType),
		Title:              stringField(export.Fields, FieldTitle),
		State:              stringField(export.Fields, FieldState),
		Description:        stringField(export.Fields, FieldDescription),
		AcceptanceCriteria: stringField(export.Fields, FieldAcceptanceCriteria, FieldExpectedResults),
		ReproSteps:         stringField(export.Fields, FieldReproSteps, FieldDeveloperNotes),
	}
	if item.Type == "" {
		item.Type = models.DefaultWorkItemType
	}
	if item.Title == "" {
		return nil, fmt.Errorf("work item %d has no title", item.ID)
	}
	return item, nil
}

// stringField returns the first non-empty string value among keys.
func stringField(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
