package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/trend"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// renderChart draws one sparkline row per series, all scaled against the
// chart-wide maximum so rows are comparable.
func renderChart(series []trend.Series, width, height int, loading bool) string {
	if len(series) == 0 {
		if loading {
			return lipglossCenter("Loading trends...", width, height)
		}
		return lipglossCenter("No trend data", width, height)
	}

	labelW := 0
	for _, s := range series {
		if w := lipgloss.Width(s.Category); w > labelW {
			labelW = w
		}
	}
	barW := width - labelW - 3
	if barW < 8 {
		barW = 8
	}

	peak := 0
	for _, s := range series {
		for _, p := range s.Points {
			if p.Count > peak {
				peak = p.Count
			}
		}
	}

	var b strings.Builder
	for i, s := range series {
		color := lipgloss.Color(s.Color)
		label := lipgloss.NewStyle().Foreground(color).Render(padRight(s.Category, labelW))
		b.WriteString(label + "  ")
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(sparkline(s.Points, barW, peak)))
		if i < len(series)-1 {
			b.WriteString("\n")
		}
	}

	if min, max, ok := trend.Domain(series); ok {
		b.WriteString("\n")
		b.WriteString(renderDomain(min, max, labelW, barW))
	}

	return b.String()
}

func sparkline(points []trend.Point, width, peak int) string {
	if len(points) == 0 || peak == 0 {
		return strings.Repeat(string(sparkRunes[0]), width)
	}

	// Resample onto the available width.
	out := make([]rune, width)
	for i := range out {
		idx := i * len(points) / width
		c := points[idx].Count
		if c < 0 {
			c = 0
		}
		level := c * (len(sparkRunes) - 1) / peak
		out[i] = sparkRunes[level]
	}
	return string(out)
}

func renderDomain(min, max int64, labelW, barW int) string {
	from := time.UnixMilli(min)
	to := time.UnixMilli(max)

	layout := "15:04"
	if to.Sub(from) > 48*time.Hour {
		layout = "Jan 2"
	}

	left := from.Format(layout)
	right := to.Format(layout)
	gap := barW - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}

	axis := strings.Repeat(" ", labelW+2) + left + strings.Repeat(" ", gap) + right
	return itemTimeStyle.Render(axis)
}

func padRight(s string, w int) string {
	if d := w - lipgloss.Width(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

func lipglossCenter(s string, width, height int) string {
	if width <= 0 {
		width = len(s)
	}
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + helpDimStyle.Render(s)
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
