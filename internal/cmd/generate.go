package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/devops"
	"github.com/harrison/casegen/internal/display"
	"github.com/harrison/casegen/internal/filelock"
	"github.com/harrison/casegen/internal/generation"
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
	"github.com/harrison/casegen/internal/session"
)

// exporterFactory builds the az exporter; tests replace it.
var exporterFactory = func(organization string, timeout time.Duration) *devops.Exporter {
	return devops.NewExporter(organization, timeout)
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <work-item-id>",
		Short: "Generate test cases for a work item",
		Long: `Export a work item from Azure DevOps, generate manual test cases for it
and save them as Testcases_PBI_<id>.csv in the data directory.

The model's output is validated and repaired. When it has critical problems
the model is asked once more with those problems listed. Accepted output is
sanitized so that no text cell contains a comma. The previous CSV, if any,
is kept as a .bak file.

Examples:
  casegen generate 1234
  casegen generate 1234 --from-file PBI-1234.json
  casegen generate 1234 --provider anthropic --no-coverage
  casegen generate 1234 --wait-on-rate-limit`,
		Args: cobra.ExactArgs(1),
		RunE: runGenerate,
	}

	cmd.Flags().String("from-file", "", "Load the work item from a saved az export instead of Azure DevOps")
	cmd.Flags().Float64("temperature", 0, "Sampling temperature (default from config)")
	cmd.Flags().Int("max-tokens", 0, "Maximum output tokens (default from config)")
	cmd.Flags().String("prompt-template", "", "Custom prompt template file")
	cmd.Flags().Bool("no-coverage", false, "Skip coverage analysis after generation")
	cmd.Flags().Int("reruns", 0, "Start over this many times when output stays invalid after its retry")
	cmd.Flags().Bool("print", false, "Print the accepted CSV to stdout")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	id, err := parseWorkItemID(args[0])
	if err != nil {
		return err
	}
	fromFile, _ := cmd.Flags().GetString("from-file")
	reruns, _ := cmd.Flags().GetInt("reruns")
	printCSV, _ := cmd.Flags().GetBool("print")
	if reruns < 0 {
		return fmt.Errorf("--reruns must be >= 0, got %d", reruns)
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

	total := 3
	if a.cfg.Generation.Coverage {
		total++
	}
	steps := display.NewStepIndicator(a.out, total)

	steps.Step("Loading work item")
	item, err := a.loadWorkItem(ctx, id, fromFile)
	if err != nil {
		steps.Fail("Could not load work item %d", id)
		return err
	}
	a.log.LogInfo(fmt.Sprintf("Work item %d: %s (%s)", item.ID, item.Title, item.Type))

	provider, err := a.provider(ctx)
	if err != nil {
		return err
	}
	opts, err := a.generationOptions()
	if err != nil {
		return err
	}
	orch := generation.NewOrchestrator(provider, a.validator(), opts, a.log)

	steps.Step(fmt.Sprintf("Generating test cases with %s (%s)", provider.Name(), provider.Model()))
	run := &session.GenerationRun{
		WorkItemID: id,
		Operation:  session.OperationGenerate,
		Provider:   provider.Name(),
		Model:      provider.Model(),
		StartedAt:  time.Now(),
	}

	var result *models.GenerationResult
	policy := session.RetryPolicy{MaxAttempts: 1 + reruns}
	err = policy.Do(ctx, func(int) error {
		return a.callWithRateLimitWait(ctx, provider.Name(), func() error {
			res, err := orch.Generate(ctx, *item)
			run.Attempts += attemptsOf(res, err)
			result = res
			return err
		})
	}, func(attempt int, err error) {
		a.log.LogWarn(fmt.Sprintf("Generation %d stayed invalid; starting over", attempt))
	})
	run.Duration = time.Since(run.StartedAt)
	run.Success = err == nil
	if err != nil {
		run.ErrorMessage = err.Error()
		a.recordRun(ctx, run)
		var verr *generation.ValidationError
		if errors.As(err, &verr) {
			display.RenderValidation(a.out, verr.Report)
		}
		steps.Fail("Generation failed after %d provider call(s)", run.Attempts)
		return err
	}
	a.recordRun(ctx, run)

	steps.Step("Saving test cases")
	path := a.paths.TestCaseFile(id)
	backedUp, err := filelock.WriteWithBackup(path, []byte(result.Content))
	if err != nil {
		return fmt.Errorf("failed to save test cases: %w", err)
	}
	if backedUp {
		a.log.LogInfo(fmt.Sprintf("Previous test cases kept at %s%s", path, filelock.BackupSuffix))
	}

	st := session.ApplyGeneration(session.NewState(*item), result)
	if a.cfg.Generation.Coverage {
		steps.Step("Analyzing coverage")
		st, err = a.analyzeCoverage(ctx, provider, st)
		if err != nil {
			return err
		}
	}
	if err := a.store.ClearHistory(ctx, id); err != nil {
		return err
	}
	if err := a.store.SaveState(ctx, st); err != nil {
		return err
	}

	steps.Done("Saved %s", path)
	fmt.Fprintln(a.out)
	display.RenderValidation(a.out, result.Report)
	if set, err := st.RecordSet(); err == nil {
		fmt.Fprintln(a.out)
		display.RenderTestCases(a.out, set, item.Type)
	}
	if a.cfg.Generation.Coverage {
		fmt.Fprintln(a.out)
		display.RenderCoverage(a.out, st.Coverage, item.Type)
		if len(st.Criteria) > 0 {
			fmt.Fprintln(a.out)
			display.RenderCriteria(a.out, st.Criteria)
		}
	}
	if printCSV {
		fmt.Fprintln(a.out)
		fmt.Fprint(a.out, st.Content)
	}
	return nil
}

// loadWorkItem exports the item through az, or reads a saved export.
func (a *app) loadWorkItem(ctx context.Context, id int, fromFile string) (*models.WorkItem, error) {
	if fromFile != "" {
		item, err := devops.LoadExport(fromFile)
		if err != nil {
			return nil, err
		}
		if item.ID != 0 && item.ID != id {
			return nil, fmt.Errorf("%s holds work item %d, not %d", fromFile, item.ID, id)
		}
		item.ID = id
		return item, nil
	}

	exporter := exporterFactory(a.cfg.Azure.Organization, a.cfg.Azure.Timeout)
	if _, err := exporter.CheckLogin(ctx); err != nil {
		if errors.Is(err, devops.ErrNotLoggedIn) {
			display.WarnNotLoggedIn().Display(a.out)
		}
		return nil, err
	}
	item, err := exporter.Export(ctx, id, a.paths.ExportFile(id))
	if err != nil {
		return nil, err
	}
	a.log.LogInfo(fmt.Sprintf("Work item exported to %s", a.paths.ExportFile(id)))
	return item, nil
}

// attemptsOf counts provider calls made by one orchestrator run.
func attemptsOf(res *models.GenerationResult, err error) int {
	if res != nil {
		return res.Attempts
	}
	var verr *generation.ValidationError
	if errors.As(err, &verr) {
		return verr.Attempts
	}
	var callErr *generation.ProviderCallError
	if errors.As(err, &callErr) {
		return callErr.Attempt
	}
	return 1
}

func parseWorkItemID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid work item id %q: must be a positive number", s)
	}
	return id, nil
}

// parseCSV is shared by commands that read a CSV file from disk.
func parseCSV(content string) (*models.RecordSet, error) {
	set, err := parser.ReadRecordSet(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return set, nil
}
