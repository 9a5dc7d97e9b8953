package cli

import (
	"strings"

	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorHeading = color.New(color.Bold).SprintFunc()
)

// formatGrade colors a letter grade: A green, B/C yellow, the rest red.
func formatGrade(grade string) string {
	switch {
	case grade == "":
		return "-"
	case strings.HasPrefix(grade, "A"):
		return colorSuccess(grade)
	case strings.HasPrefix(grade, "B"), strings.HasPrefix(grade, "C"):
		return colorWarn(grade)
	default:
		return colorError(grade)
	}
}

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "online", "done", "valid":
		return colorSuccess(status)
	case "error", "offline", "failed", "invalid", "expired":
		return colorError(status)
	default:
		return status
	}
}
