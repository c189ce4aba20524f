package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Names inside the casegen home directory
const (
	HomeDirName    = ".casegen"
	ConfigFileName = "config.yaml"
	DBFileName     = "casegen.db"
)

// GetCasegenHome returns the casegen home directory.
// Priority order:
//  1. CASEGEN_HOME environment variable (if set)
//  2. The nearest .casegen directory in the working directory or its parents
//  3. .casegen in the working directory (created)
func GetCasegenHome() (string, error) {
	if home := os.Getenv("CASEGEN_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create casegen home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if found := findHome(cwd); found != "" {
		return found, nil
	}

	home := filepath.Join(cwd, HomeDirName)
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create casegen home directory: %w", err)
	}
	return home, nil
}

// findHome walks up from dir looking for an existing .casegen directory
func findHome(dir string) string {
	current := dir
	for {
		candidate := filepath.Join(current, HomeDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// Paths are the resolved locations the tool reads and writes.
type Paths struct {
	Home      string
	Config    string
	DB        string
	Logs      string
	Locks     string
	JSON      string // Raw work-item exports
	TestCases string // Accepted CSV files
	Images    string // Refinement attachments
}

// ResolvePaths resolves the configured directories against home.
func (c *Config) ResolvePaths(home string) Paths {
	data := resolve(home, c.DataDir)
	return Paths{
		Home:      home,
		Config:    filepath.Join(home, ConfigFileName),
		DB:        filepath.Join(home, DBFileName),
		Logs:      resolve(home, c.LogDir),
		Locks:     filepath.Join(home, "locks"),
		JSON:      filepath.Join(data, "json"),
		TestCases: filepath.Join(data, "testcases"),
		Images:    filepath.Join(data, "images"),
	}
}

// TestCaseFile returns the CSV path for a work item.
func (p Paths) TestCaseFile(workItemID int) string {
	return filepath.Join(p.TestCases, "Testcases_PBI_"+strconv.Itoa(workItemID)+".csv")
}

// ExportFile returns the raw export path for a work item.
func (p Paths) ExportFile(workItemID int) string {
	return filepath.Join(p.JSON, "PBI-"+strconv.Itoa(workItemID)+".json")
}

func resolve(home, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(home, dir)
}
