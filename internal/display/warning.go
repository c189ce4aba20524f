package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var warnColor = color.New(color.FgYellow)

// Warning is a problem the user can act on without the command failing,
// e.g. images the model cannot take or a provider quota.
type Warning struct {
	Title      string
	Message    string
	Files      []string
	Suggestion string
}

// Display writes the warning in yellow: a title line, then the optional
// detail, files and suggestion indented beneath it.
func (w Warning) Display(out io.Writer) {
	lines := []string{"⚠ Warning: " + w.Title}
	if w.Message != "" {
		lines = append(lines, "  "+w.Message)
	}
	for _, f := range w.Files {
		lines = append(lines, "  - "+f)
	}
	if w.Suggestion != "" {
		lines = append(lines, "  Try: "+w.Suggestion)
	}
	warnColor.Fprintln(out, strings.Join(lines, "\n"))
}

// WarnDroppedImages is shown when a refinement's images cannot be sent to
// the configured model.
func WarnDroppedImages(model string, files []string) Warning {
	return Warning{
		Title:      "Images ignored",
		Message:    fmt.Sprintf("Model %s does not accept image input; refining from text only", model),
		Files:      files,
		Suggestion: "Switch to a vision-capable model to use screenshots",
	}
}

// WarnRateLimited is shown when a provider rejects a request for quota.
func WarnRateLimited(provider, wait string) Warning {
	w := Warning{
		Title:      "Rate limit reached",
		Message:    fmt.Sprintf("%s rejected the request because of a rate limit", provider),
		Suggestion: "Re-run with --wait-on-rate-limit or try another provider",
	}
	if wait != "" {
		w.Message += fmt.Sprintf("; it resets in %s", wait)
	}
	return w
}

// WarnNotLoggedIn is shown when the az CLI has no active account.
func WarnNotLoggedIn() Warning {
	return Warning{
		Title:      "Not logged in to Azure",
		Message:    "The az CLI has no active account",
		Suggestion: "Run 'az login', or pass --from-file with a saved export",
	}
}
