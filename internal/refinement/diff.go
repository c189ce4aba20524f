package refinement

import (
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
)

// DiffTitles compares test case titles between two documents.
// Titles match by exact string equality after trimming. Unparseable input
// contributes no titles. Each list keeps first-appearance order without
// duplicates.
func DiffTitles(oldCSV, newCSV string) models.TitleDiff {
	oldTitles := titlesOf(oldCSV)
	newTitles := titlesOf(newCSV)

	oldSet := toSet(oldTitles)
	newSet := toSet(newTitles)

	var diff models.TitleDiff
	for _, t := range newTitles {
		if !oldSet[t] {
			diff.Added = append(diff.Added, t)
		}
	}
	for _, t := range oldTitles {
		if newSet[t] {
			diff.Kept = append(diff.Kept, t)
		} else {
			diff.Removed = append(diff.Removed, t)
		}
	}
	return diff
}

func titlesOf(text string) []string {
	rs, err := parser.ReadRecordSet(text)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range rs.Titles() {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
