package coverage

import (
	"fmt"
	"regexp"

	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
)

// Criteria extracts the numbered criteria of a work item.
func Criteria(item models.WorkItem) []string {
	return parser.ExtractCriteria(item.CriteriaText())
}

// MapReferences lists, for each criterion, the test cases whose last column
// names it as "COS n". Bugs carry free-text expected results in that column,
// so MapReferences returns nil for them.
func MapReferences(criteria []string, set *models.RecordSet, workItemType string) []models.CriterionCoverage {
	if models.IsBug(workItemType) || len(criteria) == 0 {
		return nil
	}

	var cases []models.TestCase
	if set != nil {
		cases = set.TestCases()
	}

	out := make([]models.CriterionCoverage, len(criteria))
	for i, text := range criteria {
		n := i + 1
		ref := referencePattern(n)
		cc := models.CriterionCoverage{Index: n, Label: fmt.Sprintf("COS %d", n), Text: text}
		for _, tc := range cases {
			if ref.MatchString(tc.CriterionRef) {
				cc.Tests = append(cc.Tests, tc.Title)
			}
		}
		out[i] = cc
	}
	return out
}

// Uncovered returns the criteria no test case references.
func Uncovered(mapped []models.CriterionCoverage) []models.CriterionCoverage {
	var out []models.CriterionCoverage
	for _, c := range mapped {
		if !c.Covered() {
			out = append(out, c)
		}
	}
	return out
}

// referencePattern matches "COS 3", "cos3" or "COS-3" but not "COS 30".
func referencePattern(n int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)\bCOS\s*-?\s*%d\b`, n))
}
