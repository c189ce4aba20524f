package main

import (
	"testing"

	"github.com/harrison/casegen/internal/cmd"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := cmd.NewRootCommand()
	for _, name := range []string{"generate", "refine", "coverage", "validate", "sanitize", "history", "restore", "prompt", "doctor"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
