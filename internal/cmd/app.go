package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/budget"
	"github.com/harrison/casegen/internal/config"
	"github.com/harrison/casegen/internal/coverage"
	"github.com/harrison/casegen/internal/display"
	"github.com/harrison/casegen/internal/generation"
	"github.com/harrison/casegen/internal/llm"
	"github.com/harrison/casegen/internal/logger"
	"github.com/harrison/casegen/internal/session"
	"github.com/harrison/casegen/internal/validation"
)

// rateLimitSafetyBuffer is added to a provider's advertised reset time.
const rateLimitSafetyBuffer = 5 * time.Second

// providerFactory builds the configured provider; tests replace it.
var providerFactory = llm.NewProvider

// app holds what every command needs once flags and config are resolved.
type app struct {
	cfg     *config.Config
	paths   config.Paths
	log     logger.Logger
	fileLog *logger.FileLogger
	store   *session.Store
	out     io.Writer
}

// loadConfig resolves the home directory, loads the configuration and
// applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	home, err := config.GetCasegenHome()
	if err != nil {
		return nil, "", err
	}

	var cfg *config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else {
		cfg, err = config.LoadConfigFromHome(home)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
	}

	overrides, err := overridesFromFlags(cmd)
	if err != nil {
		return nil, "", err
	}
	cfg.MergeWithFlags(overrides)
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, home, nil
}

// newApp loads configuration, opens the run log and the session store.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, home, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, paths: cfg.ResolvePaths(home), out: cmd.OutOrStdout()}

	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	fileLog, err := logger.NewFileLogger(a.paths.Logs, cfg.LogLevel)
	if err != nil {
		console.LogWarn(fmt.Sprintf("Run log disabled: %v", err))
		a.log = console
	} else {
		a.fileLog = fileLog
		a.log = logger.NewMultiLogger(console, fileLog)
	}

	store, err := session.NewStore(a.paths.DB)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	return a, nil
}

// Close releases the store and the run log.
func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.fileLog != nil {
		a.fileLog.Close()
	}
}

func overridesFromFlags(cmd *cobra.Command) (config.Overrides, error) {
	var o config.Overrides
	flags := cmd.Flags()

	if flags.Changed("provider") {
		v, _ := flags.GetString("provider")
		o.Provider = &v
	}
	if flags.Changed("model") {
		v, _ := flags.GetString("model")
		o.Model = &v
	}
	if flags.Changed("timeout") {
		s, _ := flags.GetString("timeout")
		d, err := time.ParseDuration(s)
		if err != nil {
			return o, fmt.Errorf("invalid timeout format %q: %w", s, err)
		}
		o.Timeout = &d
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		o.LogLevel = &v
	}
	if flags.Changed("log-dir") {
		v, _ := flags.GetString("log-dir")
		o.LogDir = &v
	}
	if flags.Changed("wait-on-rate-limit") {
		v, _ := flags.GetBool("wait-on-rate-limit")
		o.WaitOnRateLimit = &v
	}
	if flags.Lookup("temperature") != nil && flags.Changed("temperature") {
		v, _ := flags.GetFloat64("temperature")
		o.Temperature = &v
	}
	if flags.Lookup("max-tokens") != nil && flags.Changed("max-tokens") {
		v, _ := flags.GetInt("max-tokens")
		o.MaxOutputTokens = &v
	}
	if flags.Lookup("prompt-template") != nil && flags.Changed("prompt-template") {
		v, _ := flags.GetString("prompt-template")
		o.PromptTemplate = &v
	}
	if flags.Lookup("no-coverage") != nil && flags.Changed("no-coverage") {
		v, _ := flags.GetBool("no-coverage")
		enabled := !v
		o.Coverage = &enabled
	}
	return o, nil
}

func (a *app) provider(ctx context.Context) (llm.Provider, error) {
	p, err := providerFactory(ctx, a.cfg.LLMConfig())
	if err != nil {
		return nil, err
	}
	a.log.LogDebug(fmt.Sprintf("Using provider %s (model %s)", p.Name(), p.Model()))
	return p, nil
}

func (a *app) validator() *validation.Validator {
	return validation.NewValidator(a.cfg.ValidationOptions())
}

// generationOptions loads the prompt template and format example named in
// the configuration, falling back to the built-in ones.
func (a *app) generationOptions() (generation.Options, error) {
	opts := generation.Options{
		Temperature:     a.cfg.Generation.Temperature,
		MaxOutputTokens: a.cfg.Generation.MaxOutputTokens,
	}
	if path := a.cfg.Generation.PromptTemplate; path != "" {
		tmpl, err := generation.LoadPromptTemplate(path)
		if err != nil {
			return opts, err
		}
		opts.Template = tmpl
	}
	if path := a.cfg.Generation.CSVTemplate; path != "" {
		example, err := generation.LoadExampleCSV(path)
		if err != nil {
			return opts, err
		}
		opts.ExampleCSV = example
	}
	return opts, nil
}

// callWithRateLimitWait runs fn and, when it fails on a provider rate limit
// and waiting is enabled, sits out the reset once and runs it again.
func (a *app) callWithRateLimitWait(ctx context.Context, providerName string, fn func() error) error {
	err := fn()
	pe, limited := llm.AsRateLimited(err)
	if !limited {
		return err
	}

	info := pe.RateLimitInfo()
	wait := ""
	if info.KnownWait() {
		wait = budget.FormatWait(info.WaitSeconds)
	}
	if !a.cfg.RateLimit.Wait {
		display.WarnRateLimited(providerName, wait).Display(a.out)
		return err
	}

	waiter := budget.NewRateLimitWaiter(a.cfg.RateLimit.MaxWait, rateLimitSafetyBuffer, a.log)
	if !waiter.ShouldWait(info) {
		display.WarnRateLimited(providerName, wait).Display(a.out)
		return fmt.Errorf("rate limit reset exceeds max wait of %s: %w", a.cfg.RateLimit.MaxWait, err)
	}
	if werr := waiter.WaitForReset(ctx, info); werr != nil {
		return werr
	}
	return fn()
}

// loadState returns the stored session for a work item.
func (a *app) loadState(ctx context.Context, id int) (session.State, error) {
	st, err := a.store.LoadState(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return st, fmt.Errorf("run 'casegen generate %d' first: %w", id, err)
	}
	return st, err
}

// analyzeCoverage classifies the content and maps numbered criteria.
// A failed classification leaves a nil coverage map, not an error.
func (a *app) analyzeCoverage(ctx context.Context, provider llm.Provider, st session.State) (session.State, error) {
	set, err := st.RecordSet()
	if err != nil {
		return st, fmt.Errorf("failed to parse test cases: %w", err)
	}
	mapped := coverage.MapReferences(coverage.Criteria(st.WorkItem), set, st.WorkItem.Type)
	cm := coverage.NewClassifier(provider, a.log).Classify(ctx, set, st.WorkItem.CriteriaText(), st.WorkItem.Type)
	return session.ApplyCoverage(st, cm, mapped), nil
}

// recordRun appends a run log entry; failures are only logged.
func (a *app) recordRun(ctx context.Context, run *session.GenerationRun) {
	if err := a.store.RecordRun(ctx, run); err != nil {
		a.log.LogWarn(fmt.Sprintf("Failed to record run: %v", err))
	}
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
