package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/filelock"
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/session"
	"github.com/harrison/casegen/internal/validation"
)

// NewRestoreCommand creates the restore command
func NewRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <work-item-id>",
		Short: "Restore the test cases saved before the last change",
		Long: `Replace Testcases_PBI_<id>.csv with its .bak copy and make it the current
content of the session. Only one backup is kept, so restoring twice in a
row has no further effect. The refinement history is left as it is.`,
		Args: cobra.ExactArgs(1),
		RunE: runRestore,
	}
}

func runRestore(cmd *cobra.Command, args []string) error {
	id, err := parseWorkItemID(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	lock, err := session.Acquire(a.paths.Locks, id)
	if err != nil {
		return err
	}
	defer lock.Release()

	path := a.paths.TestCaseFile(id)
	if err := filelock.Restore(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	st, err := a.loadState(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		fmt.Fprintf(a.out, "Restored %s\n", path)
		return nil
	}
	if err != nil {
		return err
	}
	report := validation.NewValidator(a.cfg.ValidationOptions()).ValidateAndFix(string(data))
	// Coverage belonged to the replaced content; stored history is kept.
	st = session.ApplyGeneration(st, &models.GenerationResult{Content: string(data), Report: report})
	if err := a.store.SaveState(ctx, st); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Restored %s\n", path)
	return nil
}
