// Package coverage relates generated test cases to a work item's
// acceptance criteria.
package coverage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harrison/casegen/internal/generation"
	"github.com/harrison/casegen/internal/llm"
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
)

const systemPrompt = "You are a QA expert that analyzes test case coverage against acceptance criteria."

const (
	classifyTemperature = 0.2
	classifyMaxTokens   = 2000
)

// Classifier asks the provider which test cases directly verify a criterion.
type Classifier struct {
	provider llm.Provider
	logger   generation.Logger
}

// NewClassifier creates a Classifier. logger may be nil.
func NewClassifier(provider llm.Provider, logger generation.Logger) *Classifier {
	return &Classifier{provider: provider, logger: logger}
}

// Classify partitions the titles of set into direct coverage and additional
// considerations. It returns nil when the classification is unavailable for
// any reason; the caller treats that as "not available", never as an error.
func (c *Classifier) Classify(ctx context.Context, set *models.RecordSet, criteriaText, workItemType string) *models.CoverageMap {
	if set == nil || len(set.Titles()) == 0 {
		c.warn("Coverage analysis skipped: no test cases")
		return nil
	}

	raw, err := c.provider.Generate(ctx, llm.Request{
		SystemPrompt:    systemPrompt,
		UserPrompt:      BuildPrompt(parser.WriteRecords(set.Records()), criteriaText, workItemType),
		Temperature:     classifyTemperature,
		MaxOutputTokens: classifyMaxTokens,
	})
	if err != nil {
		c.warn(fmt.Sprintf("Coverage analysis unavailable: %v", err))
		return nil
	}

	cm, err := ParseResponse(raw)
	if err != nil {
		c.warn(fmt.Sprintf("Coverage analysis unavailable: %v", err))
		return nil
	}
	if c.logger != nil {
		c.logger.LogInfo(fmt.Sprintf("Coverage analysis complete: %d direct, %d additional",
			len(cm.DirectCoverage), len(cm.AdditionalConsiderations)))
	}
	return cm
}

// BuildPrompt renders the classification prompt.
func BuildPrompt(csvContent, criteriaText, workItemType string) string {
	label := models.CriteriaLabel(workItemType)
	lower := strings.ToLower(label)

	criteria := strings.TrimSpace(parser.HTMLToText(criteriaText))
	if criteria == "" {
		criteria = "None specified"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sort these test cases by whether they DIRECTLY verify one of the %s or are ADDITIONAL considerations.\n\n", label)
	fmt.Fprintf(&sb, "%s:\n%s\n\n", strings.ToUpper(label), criteria)
	fmt.Fprintf(&sb, "TEST CASES (CSV):\n%s\n\n", strings.TrimSpace(csvContent))
	fmt.Fprintf(&sb, "A test case is direct coverage only when it clearly tests a stated %s. ", lower)
	sb.WriteString("Edge cases, negative tests and extra checks are additional considerations.\n\n")
	sb.WriteString("Return only a JSON object of this shape:\n")
	sb.WriteString(`{
  "direct_coverage": [
    {"test_title": "FUNC-01: ...", "addresses": "which criterion it verifies"}
  ],
  "additional_considerations": [
    {"test_title": "NEG-01: ...", "purpose": "what extra coverage it adds"}
  ]
}`)
	return sb.String()
}

type rawEntry struct {
	TestTitle   string `json:"test_title"`
	Explanation string `json:"explanation"`
	Addresses   string `json:"addresses"`
	Purpose     string `json:"purpose"`
}

func (e rawEntry) explanation() string {
	for _, s := range []string{e.Explanation, e.Addresses, e.Purpose} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// ParseResponse decodes a classification reply. Both arrays must be present.
// A title listed in both buckets is kept only in additional considerations
// and repeated titles within a bucket collapse to the first entry.
func ParseResponse(raw string) (*models.CoverageMap, error) {
	body := llm.ExtractJSON(parser.StripCodeFences(raw))

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}

	direct, err := decodeBucket(obj, "direct_coverage")
	if err != nil {
		return nil, err
	}
	additional, err := decodeBucket(obj, "additional_considerations")
	if err != nil {
		return nil, err
	}

	inAdditional := make(map[string]bool)
	cm := &models.CoverageMap{
		DirectCoverage:           []models.CoverageEntry{},
		AdditionalConsiderations: []models.CoverageEntry{},
	}
	for _, e := range additional {
		if inAdditional[e.TestTitle] {
			continue
		}
		inAdditional[e.TestTitle] = true
		cm.AdditionalConsiderations = append(cm.AdditionalConsiderations, e)
	}

	inDirect := make(map[string]bool)
	for _, e := range direct {
		if inAdditional[e.TestTitle] || inDirect[e.TestTitle] {
			continue
		}
		inDirect[e.TestTitle] = true
		cm.DirectCoverage = append(cm.DirectCoverage, e)
	}
	return cm, nil
}

func decodeBucket(obj map[string]json.RawMessage, key string) ([]models.CoverageEntry, error) {
	data, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("response is missing %q", key)
	}
	var raw []rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	entries := make([]models.CoverageEntry, 0, len(raw))
	for _, e := range raw {
		title := strings.TrimSpace(e.TestTitle)
		if title == "" {
			continue
		}
		entries = append(entries, models.CoverageEntry{TestTitle: title, Explanation: e.explanation()})
	}
	return entries, nil
}

func (c *Classifier) warn(msg string) {
	if c.logger != nil {
		c.logger.LogWarn(msg)
	}
}
