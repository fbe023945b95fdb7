package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/chat"
)

// renderChat lays out the transcript oldest-first and keeps the tail visible
// unless the user scrolled up.
func renderChat(turns []chat.Turn, width, height, scroll int, spinnerView string) string {
	if len(turns) == 0 {
		return lipglossCenter("Ask the assistant about your categories", width, height)
	}

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)

	var blocks []string
	for _, t := range turns {
		blocks = append(blocks, renderTurn(t, width, renderer, spinnerView))
	}

	lines := strings.Split(strings.Join(blocks, "\n"), "\n")

	// Anchor to the bottom; scroll moves the window up.
	if len(lines) > height {
		offset := len(lines) - height - scroll
		if offset < 0 {
			offset = 0
		}
		lines = lines[offset:]
		if len(lines) > height {
			lines = lines[:height]
		}
	}

	return strings.Join(lines, "\n")
}

func renderTurn(t chat.Turn, width int, renderer *glamour.TermRenderer, spinnerView string) string {
	switch t.Kind {
	case chat.KindPlaceholder:
		return spinnerView + " " + chatNoticeStyle.Render(t.Text)
	case chat.KindError:
		return chatErrorStyle.Render(t.Text)
	case chat.KindCategoryUpdate:
		return chatNoticeStyle.Render(t.Text)
	}

	if t.IsUser {
		return chatUserStyle.Render("you ") + wrapText(t.Text, width-4)
	}

	// Assistant answers are markdown.
	if renderer != nil {
		if out, err := renderer.Render(t.Text); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return wrapText(t.Text, width-2)
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
