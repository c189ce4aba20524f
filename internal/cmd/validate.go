package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/display"
	"github.com/harrison/casegen/internal/filelock"
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/validation"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <csv-file>",
		Short: "Check a test-case CSV against the import format",
		Long: `Validate a test-case CSV, checking for:
  - Exactly six header columns with the expected names
  - At least one test case row
  - Rows with the wrong number of columns (repaired when few enough)
  - Trailing delimiters and doubled quotes

Use "-" to read from stdin. With --fix the repaired and sanitized content
replaces the file, keeping the previous version as a .bak file.

Exit code: 0 if valid, 1 if critical problems were found`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fix, _ := cmd.Flags().GetBool("fix")
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			opts := validation.Options{}
			if cfg, _, err := loadConfig(cmd); err == nil {
				opts = cfg.ValidationOptions()
			}
			return validateCSV(cmd.OutOrStdout(), args[0], content, opts, fix)
		},
		SilenceUsage: true,
	}

	cmd.Flags().Bool("fix", false, "Write the repaired and sanitized content back to the file")

	return cmd
}

// validateCSV validates content and optionally writes the repair back.
func validateCSV(out io.Writer, path, content string, opts validation.Options, fix bool) error {
	report := validation.NewValidator(opts).ValidateAndFix(content)
	display.RenderValidation(out, report)
	if !report.IsValid {
		return fmt.Errorf("%s failed validation with %d critical problem(s)", path, len(report.Critical()))
	}

	if set, err := parseCSV(report.RepairedContent); err == nil {
		fmt.Fprintln(out)
		display.RenderTestCases(out, set, workItemTypeFromHeader(set.Header))
	}

	if !fix {
		return nil
	}
	if path == "-" {
		return fmt.Errorf("--fix needs a file, not stdin")
	}
	fixed := validation.Sanitize(report.RepairedContent)
	if fixed == content {
		fmt.Fprintln(out, "\nNothing to fix.")
		return nil
	}
	if _, err := filelock.WriteWithBackup(path, []byte(fixed)); err != nil {
		return fmt.Errorf("failed to write fixed file: %w", err)
	}
	fmt.Fprintf(out, "\nFixed %s (previous version at %s%s)\n", path, path, filelock.BackupSuffix)
	return nil
}

// workItemTypeFromHeader infers the work item type from the sixth column.
func workItemTypeFromHeader(header []string) string {
	if len(header) >= models.ExpectedColumns && strings.EqualFold(strings.TrimSpace(header[models.ExpectedColumns-1]), models.ColumnExpectedResults) {
		return "Bug"
	}
	return models.DefaultWorkItemType
}
