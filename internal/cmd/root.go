package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/llm"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for casegen
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "casegen",
		Short: "Generate manual test cases for Azure DevOps work items",
		Long: `casegen exports an Azure DevOps work item, asks a language model for
manual test cases and stores them as a six-column CSV ready for import.

Generated output is validated and repaired before it is accepted. Invalid
output is retried once with the problems fed back to the model. Accepted
test cases can then be refined with free-text instructions and checked
against the work item's acceptance criteria.

Configuration is loaded from .casegen/config.yaml if present.
CLI flags override configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default: .casegen/config.yaml)")
	flags.String("provider", "", "Text generation provider ("+strings.Join(llm.SupportedProviders(), ", ")+")")
	flags.String("model", "", "Model name (default depends on provider)")
	flags.String("timeout", "", "Provider request timeout (e.g., 90s, 2m)")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.String("log-dir", "", "Directory for run logs")
	flags.Bool("wait-on-rate-limit", false, "Wait for a provider rate limit to reset instead of failing")

	cmd.AddCommand(NewGenerateCommand())
	cmd.AddCommand(NewRefineCommand())
	cmd.AddCommand(NewCoverageCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewSanitizeCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewRestoreCommand())
	cmd.AddCommand(NewPromptCommand())
	cmd.AddCommand(NewDoctorCommand())

	return cmd
}
