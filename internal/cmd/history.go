package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/display"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [work-item-id]",
		Short: "List sessions or show a work item's refinement history",
		Long: `Without an argument, list every work item with stored test cases.
With a work item id, show its refinements oldest first followed by the
most recent provider runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().Int("runs", 10, "Number of recent provider runs to show")
	cmd.Flags().Bool("delete", false, "Delete the stored session, history and run log of the work item")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	if len(args) == 0 {
		return a.listSessions(cmd)
	}

	id, err := parseWorkItemID(args[0])
	if err != nil {
		return err
	}

	if del, _ := cmd.Flags().GetBool("delete"); del {
		if err := a.store.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted session for work item %d (CSV files are kept)\n", id)
		return nil
	}

	st, err := a.loadState(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d: %s (%s)\n\n", st.WorkItem.ID, st.WorkItem.Title, st.WorkItem.Type)
	display.RenderHistory(a.out, st.History)

	limit, _ := cmd.Flags().GetInt("runs")
	runs, err := a.store.Runs(ctx, id, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return nil
	}
	fmt.Fprintln(a.out, "\nRecent runs")
	t := display.NewTable("Started", "Operation", "Provider", "Model", "Calls", "Duration", "Result")
	for _, r := range runs {
		result := "ok"
		if !r.Success {
			result = "failed"
			if r.ErrorMessage != "" {
				result += ": " + r.ErrorMessage
			}
		}
		t.AddRow(r.StartedAt.Local().Format(time.DateTime), r.Operation, r.Provider, r.Model,
			strconv.Itoa(r.Attempts), r.Duration.Round(100*time.Millisecond).String(), result)
	}
	t.Render(a.out)
	return nil
}

func (a *app) listSessions(cmd *cobra.Command) error {
	summaries, err := a.store.List(cmd.Context())
	if err != nil {
		return err
	}
	files, err := display.FindTestCaseFiles(a.paths.TestCases)
	if err != nil {
		return err
	}
	onDisk := make(map[int]bool, len(files))
	for _, f := range files {
		onDisk[f.WorkItemID] = true
	}

	rows := make([]display.SessionRow, 0, len(summaries))
	seen := make(map[int]bool, len(summaries))
	for _, s := range summaries {
		seen[s.WorkItemID] = true
		rows = append(rows, display.SessionRow{
			WorkItemID:  s.WorkItemID,
			Type:        s.Type,
			Title:       s.Title,
			Refinements: s.Refinements,
			UpdatedAt:   s.UpdatedAt,
			OnDisk:      onDisk[s.WorkItemID],
		})
	}
	// CSV files without a stored session, e.g. from an older install.
	for _, f := range files {
		if !seen[f.WorkItemID] {
			rows = append(rows, display.SessionRow{WorkItemID: f.WorkItemID, OnDisk: true})
		}
	}
	display.RenderSessions(a.out, rows)
	return nil
}
