package tui

import (
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/poll"
)

type snapshotMsg struct {
	snap poll.Snapshot
}

type bootstrapDoneMsg struct {
	categories []api.Category
	prefs      api.Preferences
	username   string
	err        error
}

type cachedNewsMsg struct {
	news []api.NewsItem
}

type chatDoneMsg struct {
	err error
}

type addDoneMsg struct {
	name string
	err  error
}

type removeDoneMsg struct {
	name     string
	selected bool
	err      error
}

type refreshDoneMsg struct {
	err error
}

type errMsg struct {
	err error
}
