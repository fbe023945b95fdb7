package tui

import (
	"strings"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
)

func renderFeedItem(item api.NewsItem, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(item.Title, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(item.Title, width-4))
	}

	meta := "  " + itemSourceStyle.Render(item.Category)
	if item.Source != "" {
		meta += itemTimeStyle.Render(" · " + item.Source)
	}
	if item.PublishedAt != nil {
		meta += itemTimeStyle.Render(" · " + relativeTime(*item.PublishedAt))
	}

	return title + "\n" + meta
}

func renderFeed(items []api.NewsItem, cursor, height, width int, loading bool) string {
	if len(items) == 0 {
		if loading {
			return lipglossCenter("Loading news...", width, height)
		}
		return lipglossCenter("No articles", width, height)
	}

	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(items) {
		end = len(items)
		start = end - visible
		if start < 0 {
			start = 0
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderFeedItem(items[i], i == cursor, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
