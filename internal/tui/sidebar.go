package tui

import (
	"fmt"
	"strings"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
)

// renderSidebar lists every known category with its toggle number. Selected
// categories drive the feed and the trend chart.
func renderSidebar(categories []api.Category, isSelected func(string) bool, intervalMinutes, width int, removing bool) string {
	var b strings.Builder

	b.WriteString(paneTitleStyle.Render("Categories"))
	b.WriteString("\n\n")

	if len(categories) == 0 {
		b.WriteString(helpDimStyle.Render("none yet (a to add)"))
	}

	for i, c := range categories {
		var mark, line string
		if isSelected(c.Name) {
			mark = categoryOnStyle.Render("[x]")
		} else {
			mark = categoryOffStyle.Render("[ ]")
		}
		num := " "
		if i < 9 {
			num = fmt.Sprintf("%d", i+1)
		}
		line = fmt.Sprintf(" %s %s %s", itemTimeStyle.Render(num), mark, truncateStr(c.Name, width-8))
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(itemTimeStyle.Render(fmt.Sprintf("interval: %s", intervalLabel(intervalMinutes))))

	if removing {
		b.WriteString("\n\n")
		b.WriteString(chatErrorStyle.Render("remove: press number, esc cancels"))
	}

	return b.String()
}

func intervalLabel(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%dh", minutes/60)
	default:
		return fmt.Sprintf("%dd", minutes/(24*60))
	}
}
