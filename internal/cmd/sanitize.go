package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/filelock"
	"github.com/harrison/casegen/internal/validation"
)

// NewSanitizeCommand creates the sanitize command
func NewSanitizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize <csv-file>",
		Short: "Replace commas inside text cells with semicolons",
		Long: `Rewrite a CSV so that no text cell contains a comma. Numeric cells are
left alone and quoting is reduced to the minimum.

The result is printed to stdout unless --in-place is given. Use "-" to
read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPlace, _ := cmd.Flags().GetBool("in-place")
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			out, stats, ok := validation.SanitizeWithStats(content)
			if !ok {
				return fmt.Errorf("%s could not be parsed as CSV", args[0])
			}
			if !inPlace {
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}
			if args[0] == "-" {
				return fmt.Errorf("--in-place needs a file, not stdin")
			}
			if _, err := filelock.WriteWithBackup(args[0], []byte(out)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Sanitized %d cell(s) in %d row(s) of %s\n", stats.CellsChanged, stats.Rows, args[0])
			return nil
		},
	}

	cmd.Flags().Bool("in-place", false, "Overwrite the file, keeping a .bak copy")

	return cmd
}
