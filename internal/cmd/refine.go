package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/coverage"
	"github.com/harrison/casegen/internal/display"
	"github.com/harrison/casegen/internal/filelock"
	"github.com/harrison/casegen/internal/llm"
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/refinement"
	"github.com/harrison/casegen/internal/session"
)

// NewRefineCommand creates the refine command
func NewRefineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refine <work-item-id>",
		Short: "Apply an instruction to existing test cases",
		Long: `Send the current test cases and an instruction to the model and replace
them with its validated output. The change is recorded in the refinement
history together with the added, removed and kept titles.

Screenshots can be attached with --image when the model accepts images.
--add-missing builds the instruction from criteria no test references.

Examples:
  casegen refine 1234 -i "Add negative tests for the password field"
  casegen refine 1234 -i "Match the error dialog" --image dialog.png
  casegen refine 1234 --add-missing`,
		Args: cobra.ExactArgs(1),
		RunE: runRefine,
	}

	cmd.Flags().StringP("instruction", "i", "", "What to change")
	cmd.Flags().StringSlice("image", nil, "Image file to attach (repeatable)")
	cmd.Flags().Bool("add-missing", false, "Ask for tests covering criteria that no test references")
	cmd.Flags().Bool("no-summary", false, "Skip the model-written change summary")
	cmd.Flags().Bool("no-coverage", false, "Skip coverage analysis after refinement")

	return cmd
}

func runRefine(cmd *cobra.Command, args []string) error {
	id, err := parseWorkItemID(args[0])
	if err != nil {
		return err
	}
	instruction, _ := cmd.Flags().GetString("instruction")
	imagePaths, _ := cmd.Flags().GetStringSlice("image")
	addMissing, _ := cmd.Flags().GetBool("add-missing")
	noSummary, _ := cmd.Flags().GetBool("no-summary")

	if addMissing && strings.TrimSpace(instruction) != "" {
		return fmt.Errorf("cannot use both --instruction and --add-missing")
	}
	if !addMissing && strings.TrimSpace(instruction) == "" {
		return fmt.Errorf("an instruction is required (use -i or --add-missing)")
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

	st, err := a.loadState(ctx, id)
	if err != nil {
		return err
	}
	if !st.HasContent() {
		return fmt.Errorf("work item %d has no accepted test cases", id)
	}

	if addMissing {
		instruction, err = missingCriteriaInstruction(st)
		if err != nil {
			return err
		}
		if instruction == "" {
			fmt.Fprintln(a.out, "Every numbered criterion is already referenced by a test.")
			return nil
		}
		a.log.LogInfo("Requesting tests for unreferenced criteria:\n" + instruction)
	}

	images, err := loadImages(imagePaths)
	if err != nil {
		return err
	}

	provider, err := a.provider(ctx)
	if err != nil {
		return err
	}
	if len(images) > 0 && !llm.SupportsImages(provider.Name(), provider.Model()) {
		display.WarnDroppedImages(provider.Model(), imagePaths).Display(a.out)
	}

	merger := refinement.NewMerger(provider, a.validator(), refinement.Options{
		Temperature:     a.cfg.Generation.Temperature,
		MaxOutputTokens: a.cfg.Generation.MaxOutputTokens,
		SkipSummary:     noSummary || !a.cfg.Generation.ChangeSummary,
	}, a.log)

	run := &session.GenerationRun{
		WorkItemID: id,
		Operation:  session.OperationRefine,
		Provider:   provider.Name(),
		Model:      provider.Model(),
		StartedAt:  time.Now(),
	}
	var result *models.RefinementResult
	err = a.callWithRateLimitWait(ctx, provider.Name(), func() error {
		run.Attempts++
		res, err := merger.Refine(ctx, st.Content, instruction, images)
		result = res
		return err
	})
	run.Duration = time.Since(run.StartedAt)
	run.Success = err == nil
	if err != nil {
		run.ErrorMessage = err.Error()
		a.recordRun(ctx, run)
		return fmt.Errorf("refinement rejected, test cases unchanged: %w", err)
	}
	a.recordRun(ctx, run)

	refs, err := a.storeImages(id, images)
	if err != nil {
		a.log.LogWarn(fmt.Sprintf("Failed to keep attached images: %v", err))
	}

	path := a.paths.TestCaseFile(id)
	if _, err := filelock.WriteWithBackup(path, []byte(result.Content)); err != nil {
		return fmt.Errorf("failed to save test cases: %w", err)
	}

	next, entry := session.ApplyRefinement(st, instruction, refs, result)
	if a.cfg.Generation.Coverage {
		next, err = a.analyzeCoverage(ctx, provider, next)
		if err != nil {
			return err
		}
	}
	if err := a.store.SaveState(ctx, next); err != nil {
		return err
	}
	if err := a.store.AppendHistory(ctx, entry); err != nil {
		return err
	}

	display.RenderValidation(a.out, result.Report)
	fmt.Fprintln(a.out)
	display.RenderDiff(a.out, result.Diff)
	if result.ChangeSummary != "" {
		fmt.Fprintf(a.out, "\n%s\n", result.ChangeSummary)
	}
	if a.cfg.Generation.Coverage && len(next.Criteria) > 0 {
		fmt.Fprintln(a.out)
		display.RenderCriteria(a.out, next.Criteria)
	}
	fmt.Fprintf(a.out, "\nSaved %s (refinement %d)\n", path, len(next.History))
	return nil
}

// missingCriteriaInstruction lists numbered criteria no test references.
// Bugs have no numbered criteria and always yield "".
func missingCriteriaInstruction(st session.State) (string, error) {
	mapped := st.Criteria
	if mapped == nil {
		set, err := st.RecordSet()
		if err != nil {
			return "", err
		}
		mapped = coverage.MapReferences(coverage.Criteria(st.WorkItem), set, st.WorkItem.Type)
	}
	return refinement.MissingCriteriaInstruction(coverage.Uncovered(mapped)), nil
}

// loadImages reads attachments and detects their media type.
func loadImages(paths []string) ([]llm.Image, error) {
	var images []llm.Image
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		mediaType := http.DetectContentType(data)
		if !strings.HasPrefix(mediaType, "image/") {
			return nil, fmt.Errorf("%s is not an image (%s)", p, mediaType)
		}
		images = append(images, llm.Image{Name: filepath.Base(p), MediaType: mediaType, Data: data})
	}
	return images, nil
}

// storeImages copies attachments under the images directory and returns
// their paths for the history entry.
func (a *app) storeImages(id int, images []llm.Image) ([]string, error) {
	var refs []string
	dir := filepath.Join(a.paths.Images, fmt.Sprintf("PBI-%d", id))
	for _, img := range images {
		path := filepath.Join(dir, uuid.NewString()[:8]+"-"+img.Name)
		if err := filelock.AtomicWrite(path, img.Data); err != nil {
			return refs, err
		}
		refs = append(refs, path)
	}
	return refs, nil
}
