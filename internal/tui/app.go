package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/browser"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/chat"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/config"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/poll"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/selection"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/session"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/trend"
)

type focusPane int

const (
	focusFeed focusPane = iota
	focusChat
)

type mode int

const (
	modeNormal mode = iota
	modeAdd
	modeRemove
	modeHelp
)

type App struct {
	cfg    *config.Config
	client *api.Client
	db     *session.Store
	sel    *selection.Store
	chat   *chat.Store
	sched  *poll.Scheduler
	log    *slog.Logger

	snap     poll.Snapshot
	haveSnap bool
	username string

	width  int
	height int
	focus  focusPane
	mode   mode

	// Sub-components
	chatInput textinput.Model
	addInput  textinput.Model
	spinner   spinner.Model

	// State
	cursor      int
	chatScroll  int
	intervalIdx int
	refreshing  bool
	err         error
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Cfg       *config.Config
	Client    *api.Client
	DB        *session.Store
	Selection *selection.Store
	Chat      *chat.Store
	Log       *slog.Logger
}

func NewApp(opts RunOpts) *App {
	ci := textinput.New()
	ci.Placeholder = "Ask about your categories..."
	ci.Prompt = promptStyle.Render("> ")
	ci.CharLimit = 500

	ai := textinput.New()
	ai.Placeholder = "New category name"
	ai.Prompt = promptStyle.Render("+ ")
	ai.CharLimit = 50

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	idx := 0
	for i, m := range config.Intervals {
		if m == opts.Cfg.GetIntervalMinutes() {
			idx = i
			break
		}
	}

	return &App{
		cfg:         opts.Cfg,
		client:      opts.Client,
		db:          opts.DB,
		sel:         opts.Selection,
		chat:        opts.Chat,
		log:         opts.Log,
		chatInput:   ci,
		addInput:    ai,
		spinner:     sp,
		intervalIdx: idx,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.bootstrapCmd(), a.cachedNewsCmd(), a.spinner.Tick)
}

// bootstrapCmd loads the category list and stored preferences before the
// first cycle runs.
func (a *App) bootstrapCmd() tea.Cmd {
	client := a.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		cats, err := client.ListCategories(ctx)
		if err != nil {
			return bootstrapDoneMsg{err: err}
		}
		prefs, err := client.LoadPreferences(ctx)
		if err != nil {
			return bootstrapDoneMsg{err: err}
		}

		var username string
		if user, err := client.CurrentUser(ctx); err == nil {
			username = user.Username
		}

		return bootstrapDoneMsg{categories: cats, prefs: prefs, username: username}
	}
}

// cachedNewsCmd paints the last session's articles while the first cycle is
// still in flight.
func (a *App) cachedNewsCmd() tea.Cmd {
	db := a.db
	return func() tea.Msg {
		news, err := db.News()
		if err != nil || len(news) == 0 {
			return nil
		}
		return cachedNewsMsg{news: news}
	}
}

func (a *App) askCmd(question string) tea.Cmd {
	store := a.chat
	categories := a.sel.Selected()
	return func() tea.Msg {
		return chatDoneMsg{err: store.Ask(context.Background(), question, categories)}
	}
}

func (a *App) addCategoryCmd(name string) tea.Cmd {
	store := a.sel
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_, err := store.Add(ctx, name)
		return addDoneMsg{name: name, err: err}
	}
}

func (a *App) removeCategoryCmd(cat api.Category) tea.Cmd {
	store := a.sel
	wasSelected := store.IsSelected(cat.Name)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := store.Remove(ctx, cat.ID)
		return removeDoneMsg{name: cat.Name, selected: wasSelected, err: err}
	}
}

// refreshCmd asks the server to re-crawl the selection, then re-polls.
func (a *App) refreshCmd() tea.Cmd {
	client := a.client
	categories := a.sel.Selected()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return refreshDoneMsg{err: client.RefreshCategories(ctx, categories)}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		a.err = nil
		return a.handleKey(msg)

	case bootstrapDoneMsg:
		if msg.err != nil {
			if api.IsUnauthorized(msg.err) {
				a.err = fmt.Errorf("session expired: run `newspulse login` (%w)", msg.err)
			} else {
				a.err = msg.err
			}
			return a, nil
		}
		a.sel.SetCategories(msg.categories)
		a.sel.Restore(msg.prefs)
		a.username = msg.username
		if err := a.chat.RestoreOrReset(); err != nil {
			a.log.Warn("chat restore failed", "error", err)
		}
		a.refreshing = true
		a.sched.SetInterval(config.Intervals[a.intervalIdx])
		return a, a.spinner.Tick

	case cachedNewsMsg:
		if !a.haveSnap && len(a.snap.News) == 0 {
			a.snap.News = msg.news
		}
		return a, nil

	case snapshotMsg:
		a.snap = msg.snap
		a.haveSnap = true
		a.refreshing = false
		if a.cursor >= len(a.snap.News) {
			a.cursor = max(0, len(a.snap.News)-1)
		}
		return a, nil

	case chatDoneMsg:
		if errors.Is(msg.err, chat.ErrQueryInFlight) {
			a.err = msg.err
		}
		a.chatScroll = 0
		return a, nil

	case addDoneMsg:
		if msg.err != nil {
			a.err = fmt.Errorf("add %q: %w", msg.name, msg.err)
			return a, nil
		}
		a.mode = modeNormal
		a.addInput.SetValue("")
		a.addInput.Blur()
		return a, nil

	case removeDoneMsg:
		if msg.err != nil {
			a.err = fmt.Errorf("remove %q: %w", msg.name, msg.err)
			return a, nil
		}
		if msg.selected {
			a.chat.NotifySelectionChanged(a.sel.Selected())
			a.refreshing = true
			a.sched.Refresh()
			return a, a.spinner.Tick
		}
		return a, nil

	case refreshDoneMsg:
		if msg.err != nil {
			a.err = msg.err
			a.refreshing = false
			return a, nil
		}
		a.sched.Refresh()
		return a, nil

	case errMsg:
		a.err = msg.err
		a.refreshing = false
		return a, nil

	case spinner.TickMsg:
		if a.refreshing || a.chat.Querying() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	}

	switch a.mode {
	case modeAdd:
		return a.handleAddKey(msg)
	case modeRemove:
		return a.handleRemoveKey(msg)
	case modeHelp:
		if msg.String() == "?" || msg.String() == "esc" || msg.String() == "q" {
			a.mode = modeNormal
		}
		return a, nil
	}

	if a.focus == focusChat {
		return a.handleChatKey(msg)
	}
	return a.handleFeedKey(msg)
}

func (a *App) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "j", "down":
		if a.cursor < len(a.snap.News)-1 {
			a.cursor++
		}
		return a, nil
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case "tab":
		a.focus = focusChat
		a.chatInput.Focus()
		return a, textinput.Blink
	case "o", "enter":
		if len(a.snap.News) > 0 && a.cursor < len(a.snap.News) {
			return a, openBrowserCmd(a.snap.News[a.cursor].URL)
		}
		return a, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return a.toggleCategory(int(msg.String()[0] - '1'))
	case "i":
		a.intervalIdx = (a.intervalIdx + 1) % len(config.Intervals)
		a.refreshing = true
		a.sched.SetInterval(config.Intervals[a.intervalIdx])
		return a, a.spinner.Tick
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, tea.Batch(a.refreshCmd(), a.spinner.Tick)
		}
		return a, nil
	case "a":
		a.mode = modeAdd
		a.addInput.Focus()
		return a, textinput.Blink
	case "d":
		a.mode = modeRemove
		return a, nil
	case "c":
		if err := a.chat.Reset(); err != nil {
			a.err = err
		}
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) toggleCategory(idx int) (tea.Model, tea.Cmd) {
	cats := a.sel.Categories()
	if idx >= len(cats) {
		return a, nil
	}

	selected := a.sel.Toggle(cats[idx].Name)
	a.chat.NotifySelectionChanged(selected)
	a.refreshing = true
	a.sched.Refresh()
	return a, a.spinner.Tick
}

func (a *App) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab":
		a.focus = focusFeed
		a.chatInput.Blur()
		return a, nil
	case "enter":
		question := strings.TrimSpace(a.chatInput.Value())
		if question == "" {
			return a, nil
		}
		if a.chat.Querying() {
			a.err = chat.ErrQueryInFlight
			return a, nil
		}
		a.chatInput.SetValue("")
		a.chatScroll = 0
		return a, tea.Batch(a.askCmd(question), a.spinner.Tick)
	case "ctrl+u", "pgup":
		a.chatScroll++
		return a, nil
	case "ctrl+d", "pgdown":
		if a.chatScroll > 0 {
			a.chatScroll--
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.chatInput, cmd = a.chatInput.Update(msg)
	return a, cmd
}

func (a *App) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.addInput.SetValue("")
		a.addInput.Blur()
		return a, nil
	case "enter":
		name := strings.TrimSpace(a.addInput.Value())
		if name == "" {
			return a, nil
		}
		if a.sel.AddBusy() {
			a.err = selection.ErrAddInFlight
			return a, nil
		}
		return a, a.addCategoryCmd(name)
	}

	var cmd tea.Cmd
	a.addInput, cmd = a.addInput.Update(msg)
	return a, cmd
}

func (a *App) handleRemoveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "d":
		a.mode = modeNormal
		return a, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		cats := a.sel.Categories()
		if idx < len(cats) {
			a.mode = modeNormal
			return a, a.removeCategoryCmd(cats[idx])
		}
		return a, nil
	}
	return a, nil
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  newspulse")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}

	// Header
	headerLeft := headerStyle.Render("newspulse")
	headerRight := headerUserStyle.Render(a.username)
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight) - 1
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight + " "

	// Layout calculations
	chartHeight := len(a.snap.Trends) + 1
	if chartHeight < 4 {
		chartHeight = 4
	}
	if chartHeight > 8 {
		chartHeight = 8
	}

	statusHeight := 1
	headerHeight := 1
	bottomHeight := a.height - headerHeight - statusHeight - (chartHeight + 2) - 2 // borders
	if bottomHeight < 5 {
		bottomHeight = 5
	}

	sidebarWidth := 26
	feedWidth := (a.width - sidebarWidth) * 45 / 100
	chatWidth := a.width - sidebarWidth - feedWidth

	loading := !a.haveSnap

	// Trend chart
	chart := renderChart(a.snap.Trends, a.width-4, chartHeight, loading || a.refreshing)
	chartPane := paneStyle.Width(a.width - 2).Height(chartHeight).Render(chart)

	// Sidebar
	sidebar := renderSidebar(a.sel.Categories(), a.sel.IsSelected, config.Intervals[a.intervalIdx], sidebarWidth-4, a.mode == modeRemove)
	if a.mode == modeAdd {
		sidebar += "\n\n" + a.addInput.View()
	}
	sidebarPane := paneStyle.Width(sidebarWidth - 2).Height(bottomHeight).Render(sidebar)

	// Feed pane
	feed := renderFeed(a.snap.News, a.cursor, bottomHeight, feedWidth-4, loading)
	var feedPane string
	if a.focus == focusFeed {
		feedPane = paneActiveStyle.Width(feedWidth - 2).Height(bottomHeight).Render(feed)
	} else {
		feedPane = paneStyle.Width(feedWidth - 2).Height(bottomHeight).Render(feed)
	}

	// Chat pane: transcript above, input pinned to the bottom
	transcript := renderChat(a.chat.Turns(), chatWidth-4, bottomHeight-2, a.chatScroll, a.spinner.View())
	chatLines := strings.Split(transcript, "\n")
	for len(chatLines) < bottomHeight-1 {
		chatLines = append(chatLines, "")
	}
	if len(chatLines) > bottomHeight-1 {
		chatLines = chatLines[:bottomHeight-1]
	}
	chatContent := strings.Join(chatLines, "\n") + "\n" + a.chatInput.View()

	var chatPane string
	if a.focus == focusChat {
		chatPane = paneActiveStyle.Width(chatWidth - 2).Height(bottomHeight).Render(chatContent)
	} else {
		chatPane = paneStyle.Width(chatWidth - 2).Height(bottomHeight).Render(chatContent)
	}

	bottom := lipgloss.JoinHorizontal(lipgloss.Top, sidebarPane, feedPane, chatPane)

	// Status bar
	hints := "1-9 toggle  i interval  r refresh  a add  d remove  tab chat  ? help  q quit"
	if a.focus == focusChat {
		hints = "enter send  esc back  ctrl+u/d scroll"
	}
	status := renderStatusBar(len(a.snap.News), len(a.sel.Selected()), a.snap.FetchedAt, a.width, a.refreshing, hints)

	if a.refreshing {
		status = a.spinner.View() + " " + status
	}

	// Error display
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, chartPane, bottom, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("newspulse")
	dim := helpDimStyle

	help := title + dim.Render(" — Keyboard Shortcuts") + "\n\n" +
		dim.Render("Dashboard") + "\n" +
		"  1-9           Toggle category on/off\n" +
		"  i             Cycle trend interval\n" +
		"  r             Re-crawl selected categories\n" +
		"  j/k, ↑/↓     Move through the news feed\n" +
		"  o, enter      Open article in browser\n\n" +
		dim.Render("Categories") + "\n" +
		"  a             Add a category\n" +
		"  d             Remove a category (then press its number)\n\n" +
		dim.Render("Assistant") + "\n" +
		"  tab           Focus the chat input\n" +
		"  enter         Send question\n" +
		"  c             Clear the conversation\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application. It owns the polling scheduler so committed
// snapshots can be delivered as program messages.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())

	agg := trend.NewAggregator(opts.Log)
	sched := poll.New(opts.Client, agg, opts.Selection.Selected, func(snap poll.Snapshot) {
		if err := opts.DB.ReplaceNews(snap.News); err != nil {
			opts.Log.Warn("news cache write failed", "error", err)
		}
		p.Send(snapshotMsg{snap: snap})
	}, opts.Log)
	sched.SetNewsLimit(opts.Cfg.GetNewsLimit())
	sched.SetCadence(opts.Cfg.PollDuration())
	app.sched = sched
	defer sched.Stop()

	_, err := p.Run()
	return err
}
