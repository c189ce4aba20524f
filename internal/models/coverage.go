package models

import "time"

// CoverageEntry links a test case title to the reason it was classified.
type CoverageEntry struct {
	TestTitle   string `json:"test_title"`
	Explanation string `json:"explanation"`
}

// CoverageMap partitions test cases into those that directly verify a
// criterion and those that only add value beyond the criteria.
// A title appears in at most one bucket.
type CoverageMap struct {
	DirectCoverage           []CoverageEntry `json:"direct_coverage"`
	AdditionalConsiderations []CoverageEntry `json:"additional_considerations"`
}

// Total returns the number of classified titles.
func (c *CoverageMap) Total() int {
	if c == nil {
		return 0
	}
	return len(c.DirectCoverage) + len(c.AdditionalConsiderations)
}

// CriterionCoverage records which test cases reference a numbered criterion
// through their sixth column.
type CriterionCoverage struct {
	Index int      `json:"index"`
	Label string   `json:"label"`
	Text  string   `json:"text"`
	Tests []string `json:"tests"`
}

// Covered reports whether at least one test references the criterion.
func (c CriterionCoverage) Covered() bool {
	return len(c.Tests) > 0
}

// RefinementHistoryEntry is an append-only record of one accepted refinement.
type RefinementHistoryEntry struct {
	ID                string    `json:"id"`
	WorkItemID        int       `json:"work_item_id"`
	Instruction       string    `json:"instruction"`
	AttachedImageRefs []string  `json:"attached_image_refs,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
	ChangeSummary     string    `json:"change_summary"`
	Added             int       `json:"added"`
	Removed           int       `json:"removed"`
	Kept              int       `json:"kept"`
}
