package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/casegen/internal/config"
	"github.com/harrison/casegen/internal/generation"
)

// File names written by "prompt init" in the casegen home.
const (
	promptFileName  = "prompt_template.txt"
	exampleFileName = "testcase_template.csv"
)

// NewPromptCommand creates the prompt command and its subcommands
func NewPromptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Show, create or check the generation prompt template",
		Long: `The generation prompt is a text template. Placeholders in braces are
replaced with work item fields; "{{" and "}}" produce literal braces.

Run "casegen prompt init" to copy the built-in template and format example
into the casegen home and point the configuration at them.`,
	}

	cmd.AddCommand(newPromptShowCommand())
	cmd.AddCommand(newPromptInitCommand())
	cmd.AddCommand(newPromptCheckCommand())

	return cmd
}

func newPromptShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the prompt template in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if example, _ := cmd.Flags().GetBool("example"); example {
				text := generation.DefaultExampleCSV()
				if cfg.Generation.CSVTemplate != "" {
					if text, err = generation.LoadExampleCSV(cfg.Generation.CSVTemplate); err != nil {
						return err
					}
				}
				fmt.Fprint(out, text)
				return nil
			}

			tmpl := generation.DefaultPromptTemplate()
			if cfg.Generation.PromptTemplate != "" {
				if tmpl, err = generation.LoadPromptTemplate(cfg.Generation.PromptTemplate); err != nil {
					return err
				}
			}
			fmt.Fprint(out, tmpl.Text())
			return nil
		},
	}
	cmd.Flags().Bool("example", false, "Print the CSV format example instead")
	return cmd
}

func newPromptInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in template and example to the casegen home",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			cfg, home, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			promptPath := filepath.Join(home, promptFileName)
			examplePath := filepath.Join(home, exampleFileName)
			files := map[string]string{
				promptPath:  generation.DefaultPromptTemplate().Text(),
				examplePath: generation.DefaultExampleCSV(),
			}
			for _, path := range []string{promptPath, examplePath} {
				if _, err := os.Stat(path); err == nil && !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			for _, path := range []string{promptPath, examplePath} {
				if err := os.WriteFile(path, []byte(files[path]), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
			}

			cfg.Generation.PromptTemplate = promptPath
			cfg.Generation.CSVTemplate = examplePath
			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = filepath.Join(home, config.ConfigFileName)
			}
			if err := cfg.Save(configPath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\nWrote %s\nUpdated %s\n", promptPath, examplePath, configPath)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite existing files")
	return cmd
}

func newPromptCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <template-file>",
		Short: "Check a template for unknown placeholders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := generation.LoadPromptTemplate(args[0]); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s is a valid template. Available placeholders:\n", args[0])
			for _, name := range generation.PlaceholderNames() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}
