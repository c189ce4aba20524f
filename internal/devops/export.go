// Package devops exports work items from Azure DevOps through the az CLI.
package devops

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/casegen/internal/filelock"
	"github.com/harrison/casegen/internal/models"
	"github.com/harrison/casegen/internal/parser"
)

// DefaultTimeout bounds each az invocation.
const DefaultTimeout = 30 * time.Second

// ErrCLINotFound is returned when the az binary is not on PATH.
var ErrCLINotFound = errors.New("azure CLI (az) not found; install it and run 'az login'")

// ErrNotLoggedIn is returned by CheckLogin when az has no active account.
var ErrNotLoggedIn = errors.New("not logged in to Azure; run 'az login'")

// Runner executes az with args and returns stdout. Stderr is folded into
// the returned error.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// Account is the subset of `az account show` output shown to the user.
type Account struct {
	Subscription string
	User         string
}

// Exporter fetches work items and saves their raw JSON.
type Exporter struct {
	Organization string
	Timeout      time.Duration

	run Runner
}

// NewExporter creates an Exporter for an organization URL using the real
// az binary.
func NewExporter(organization string, timeout time.Duration) *Exporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exporter{Organization: organization, Timeout: timeout, run: runAz}
}

// WithRunner replaces the command runner.
func (e *Exporter) WithRunner(r Runner) *Exporter {
	e.run = r
	return e
}

// CheckLogin runs `az account show`.
func (e *Exporter) CheckLogin(ctx context.Context) (*Account, error) {
	out, err := e.exec(ctx, "account", "show", "--output", "json")
	if err != nil {
		if errors.Is(err, ErrCLINotFound) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNotLoggedIn, err)
	}

	var raw struct {
		Name string `json:"name"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return &Account{Subscription: "Unknown", User: "Unknown"}, nil
	}
	return &Account{Subscription: raw.Name, User: raw.User.Name}, nil
}

// Fetch runs `az boards work-item show` and returns the raw JSON.
func (e *Exporter) Fetch(ctx context.Context, id int) ([]byte, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid work item id %d", id)
	}
	if strings.TrimSpace(e.Organization) == "" {
		return nil, fmt.Errorf("azure organization URL is not configured")
	}
	out, err := e.exec(ctx, "boards", "work-item", "show",
		"--id", strconv.Itoa(id),
		"--organization", e.Organization,
		"--output", "json")
	if err != nil {
		return nil, fmt.Errorf("failed to export work item %d: %w", id, err)
	}
	return out, nil
}

// Export fetches a work item, writes the raw JSON to path atomically and
// returns the parsed item.
func (e *Exporter) Export(ctx context.Context, id int, path string) (*models.WorkItem, error) {
	data, err := e.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := parser.ParseWorkItem(data)
	if err != nil {
		return nil, err
	}
	if err := filelock.AtomicWrite(path, data); err != nil {
		return nil, fmt.Errorf("failed to save export: %w", err)
	}
	return item, nil
}

// LoadExport reads a previously saved export.
func LoadExport(path string) (*models.WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read work item export: %w", err)
	}
	return parser.ParseWorkItem(data)
}

func (e *Exporter) exec(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	out, err := e.run(ctx, args...)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("az %s timed out after %s: %w", args[0], e.Timeout, context.DeadlineExceeded)
	}
	return out, err
}

func runAz(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "az", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrCLINotFound
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return out, nil
}
