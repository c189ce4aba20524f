package logger

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

const countdownWidth = 20

// countdownBar draws how much of a rate-limit wait has elapsed, e.g.
// "Rate limited [#####.....] 50%". Values outside 0..total are clamped.
func countdownBar(remaining, total time.Duration, width int, colored bool) string {
	if width < 1 {
		width = countdownWidth
	}
	elapsed := 0
	if total > 0 {
		elapsed = int((total - remaining) * 100 / total)
	}
	elapsed = max(0, min(100, elapsed))

	cells := elapsed * width / 100
	line := fmt.Sprintf("Rate limited [%s%s] %d%%",
		strings.Repeat("#", cells), strings.Repeat(".", width-cells), elapsed)
	if !colored {
		return line
	}
	if elapsed == 100 {
		return color.GreenString(line)
	}
	return color.CyanString(line)
}
