package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/display"
	"github.com/harrison/casegen/internal/session"
)

// NewCoverageCommand creates the coverage command
func NewCoverageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage <work-item-id>",
		Short: "Classify test cases against the acceptance criteria",
		Long: `Ask the model which test cases directly verify the work item's acceptance
criteria and which only add extra value, and list which numbered criteria
no test references through its COS column.

With --cached the last stored analysis is shown without calling the model.`,
		Args: cobra.ExactArgs(1),
		RunE: runCoverage,
	}

	cmd.Flags().Bool("cached", false, "Show the stored analysis instead of running a new one")

	return cmd
}

func runCoverage(cmd *cobra.Command, args []string) error {
	id, err := parseWorkItemID(args[0])
	if err != nil {
		return err
	}
	cached, _ := cmd.Flags().GetBool("cached")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	st, err := a.loadState(ctx, id)
	if err != nil {
		return err
	}
	if !st.HasContent() {
		return fmt.Errorf("work item %d has no accepted test cases", id)
	}

	if !cached {
		lock, err := session.Acquire(a.paths.Locks, id)
		if err != nil {
			return err
		}
		defer lock.Release()

		provider, err := a.provider(ctx)
		if err != nil {
			return err
		}
		started := time.Now()
		st, err = a.analyzeCoverage(ctx, provider, st)
		if err != nil {
			return err
		}
		a.recordRun(ctx, &session.GenerationRun{
			WorkItemID: id,
			Operation:  session.OperationCoverage,
			Provider:   provider.Name(),
			Model:      provider.Model(),
			Attempts:   1,
			Success:    st.Coverage != nil,
			Duration:   time.Since(started),
			StartedAt:  started,
		})
		if err := a.store.SaveState(ctx, st); err != nil {
			return err
		}
	}

	display.RenderCoverage(a.out, st.Coverage, st.WorkItem.Type)
	if len(st.Criteria) > 0 {
		fmt.Fprintln(a.out)
		display.RenderCriteria(a.out, st.Criteria)
	}
	return nil
}
