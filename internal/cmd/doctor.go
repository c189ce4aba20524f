package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/display"
	"github.com/harrison/casegen/internal/llm"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check Azure CLI login and provider access",
		Long: `Check that the az CLI is logged in and that the configured provider
accepts the API key and model with a minimal request.`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
	cmd.Flags().Bool("skip-azure", false, "Do not check the az CLI")
	return cmd
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, home, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	skipAzure, _ := cmd.Flags().GetBool("skip-azure")
	total := 2
	if skipAzure {
		total = 1
	}
	steps := display.NewStepIndicator(out, total)
	failed := 0

	if !skipAzure {
		steps.Step("Azure CLI")
		acct, err := exporterFactory(cfg.Azure.Organization, cfg.Azure.Timeout).CheckLogin(ctx)
		if err != nil {
			steps.Fail("%v", err)
			failed++
		} else {
			steps.Done("Logged in as %s (%s)", acct.User, acct.Subscription)
		}
		if cfg.Azure.Organization == "" {
			display.Warning{
				Title:      "No Azure DevOps organization configured",
				Suggestion: "Set azure.organization in " + home + "/config.yaml",
			}.Display(out)
		}
	}

	steps.Step(fmt.Sprintf("Provider %s", cfg.Provider.Name))
	if err := checkProvider(ctx, cfg.LLMConfig()); err != nil {
		steps.Fail("%v", err)
		failed++
	} else {
		steps.Done("Provider accepted a test request")
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func checkProvider(ctx context.Context, cfg llm.Config) error {
	if env := llm.APIKeyEnv(cfg.Provider); env != "" && cfg.APIKey == "" {
		return fmt.Errorf("no API key: set %s or provider.api_key", env)
	}
	p, err := providerFactory(ctx, cfg)
	if err != nil {
		return err
	}
	if err := llm.VerifyAccess(ctx, p); err != nil {
		return fmt.Errorf("%s (%s): %w", p.Name(), p.Model(), err)
	}
	return nil
}
