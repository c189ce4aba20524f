package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	stepColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
)

// StepIndicator prints numbered stages of a multi-step command
type StepIndicator struct {
	writer  io.Writer
	total   int
	current int
}

// NewStepIndicator creates a step indicator for total stages
func NewStepIndicator(w io.Writer, total int) *StepIndicator {
	return &StepIndicator{writer: w, total: total}
}

// Step displays the next stage: [N/Total] label (cyan)
func (s *StepIndicator) Step(label string) {
	s.current++
	stepColor.Fprintf(s.writer, "[%d/%d] %s\n", s.current, s.total, label)
}

// Done displays a success line with a green checkmark
func (s *StepIndicator) Done(format string, args ...any) {
	successColor.Fprint(s.writer, "✓ ")
	fmt.Fprintf(s.writer, format+"\n", args...)
}

// Fail displays a failure line with a red cross
func (s *StepIndicator) Fail(format string, args ...any) {
	failColor.Fprint(s.writer, "✗ ")
	fmt.Fprintf(s.writer, format+"\n", args...)
}

// Current returns the number of stages started so far.
func (s *StepIndicator) Current() int {
	return s.current
}
