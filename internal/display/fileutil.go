package display

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
)

var testCaseFilePattern = regexp.MustCompile(`^Testcases_PBI_(\d+)\.csv$`)

// TestCaseFile is a saved test-case CSV found on disk
type TestCaseFile struct {
	Name       string
	WorkItemID int
	HasBackup  bool
}

// ParseTestCaseFileName returns the work item id encoded in a file name
// of the form Testcases_PBI_<id>.csv.
func ParseTestCaseFileName(name string) (int, bool) {
	m := testCaseFilePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// FindTestCaseFiles scans dir (not recursively) for saved test-case files,
// sorted by work item id. A missing directory yields no files.
func FindTestCaseFiles(dir string) ([]TestCaseFile, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}

	var files []TestCaseFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := ParseTestCaseFileName(e.Name())
		if !ok {
			continue
		}
		files = append(files, TestCaseFile{
			Name:       e.Name(),
			WorkItemID: id,
			HasBackup:  names[e.Name()+".bak"],
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].WorkItemID < files[j].WorkItemID })
	return files, nil
}
