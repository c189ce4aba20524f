// Package display renders casegen results for the terminal.
//
// Everything writes to an io.Writer so commands and tests share one code
// path. Colors come from fatih/color and are disabled automatically when
// stdout is not a terminal or NO_COLOR is set.
//
// # Tables
//
// Table aligns columns by display width, so titles containing wide
// characters still line up:
//
//	t := display.NewTable("Title", "Steps", "COS")
//	t.AddRow("FUNC-01: Login", "3", "COS 1")
//	t.Render(os.Stdout)
//
// # Reports
//
// RenderTestCases, RenderValidation, RenderDiff, RenderCoverage,
// RenderCriteria, RenderHistory and RenderSessions print the outputs of
// the pipeline stages.
//
// # Warnings and steps
//
// Warning prints a highlighted notice with optional files and a
// suggestion. StepIndicator prints "[n/total] label" lines for the stages
// of a multi-step command.
package display
