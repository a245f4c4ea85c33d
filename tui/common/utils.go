package common

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Truncate cuts s to at most width cells, ending with "…" when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// WeekLabel renders a week bucket for separators.
func WeekLabel(weekDiff int) string {
	switch {
	case weekDiff <= 0:
		return "This week"
	case weekDiff == 1:
		return "1 week ago"
	default:
		return strconv.Itoa(weekDiff) + " weeks ago"
	}
}
