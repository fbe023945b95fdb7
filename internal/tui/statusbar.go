package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(articleCount, selectedCount int, fetchedAt time.Time, width int, refreshing bool, hints string) string {
	left := fmt.Sprintf(" %d articles · %d categories", articleCount, selectedCount)
	if !fetchedAt.IsZero() {
		left += " · updated " + relativeTime(fetchedAt)
	}
	if refreshing {
		left += " (refreshing...)"
	}

	right := " " + hints + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
