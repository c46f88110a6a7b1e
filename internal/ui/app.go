package ui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/guacplayer/guacplayer/internal/connections"
	"github.com/guacplayer/guacplayer/internal/prefs"
	"github.com/guacplayer/guacplayer/internal/recordings"
	"github.com/guacplayer/guacplayer/internal/router"
	"github.com/guacplayer/guacplayer/internal/state"
)

// Player plays and downloads recordings.
type Player interface {
	StreamURL(uuid string) string
	Play(uuid string) (string, error)
	Download(ctx context.Context, uuid, dir string) (recordings.Downloaded, error)
}

// Options configures the UI.
type Options struct {
	Context     context.Context
	Auth        *state.AuthStore
	Connections *state.ConnectionsStore
	Recording   *state.RecordingStore
	Player      Player
	DownloadDir string
	ThemeName   string
	PerPage     int
	PrefsPath   string
	InitialPath string

	// OnStart runs once the program exists, before it starts reading input.
	OnStart func(*tea.Program)
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	auth        *state.AuthStore
	conns       *state.ConnectionsStore
	rec         *state.RecordingStore
	player      Player
	downloadDir string
	prefsPath   string
	perPage     int
	initialPath string

	// UI state
	keys     keyMap
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	spinner  spinner.Model
	notice   string

	// Routing
	route      router.Route
	title      string
	navigating bool

	// Screens
	login     loginForm
	connsView connectionsView
	recView   recordingView
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = connections.DefaultPerPage
	}

	initial := opts.InitialPath
	if initial == "" {
		initial = "/"
	}

	theme := GetTheme(themeName)
	return Model{
		ctx:         ctx,
		auth:        opts.Auth,
		conns:       opts.Connections,
		rec:         opts.Recording,
		player:      opts.Player,
		downloadDir: opts.DownloadDir,
		prefsPath:   opts.PrefsPath,
		perPage:     perPage,
		initialPath: initial,
		keys:        DefaultKeyMap(),
		theme:       theme,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		title:       router.DefaultTitle,
		login:       newLoginForm(),
		connsView:   newConnectionsView(theme),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.navigateCmd(m.initialPath),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case NavigateMsg:
		// A rejected login also answers 401; stay on the form and keep its error.
		if msg.Path == router.LoginPath && m.route.Name == router.Login {
			return m, nil
		}
		cmd := m.navigate(msg.Path)
		return m, cmd

	case routedMsg:
		return m.handleRouted(msg)

	case loginMsg:
		if msg.err != nil {
			m.login.password.Reset()
			return m, nil
		}
		m.login.reset()
		cmd := m.navigate(router.DashboardPath)
		return m, cmd

	case logoutMsg:
		m.notice = "Logged out"
		cmd := m.navigate(router.LoginPath)
		return m, cmd

	case connectionsMsg:
		m.syncConnections()
		return m, nil

	case historyMsg:
		if msg.err == nil {
			m.connsView.focusHistory(true)
		}
		m.syncConnections()
		return m, nil

	case recordingMsg:
		m.recView.ready = msg.err == nil
		return m, nil

	case playMsg:
		if msg.err != nil {
			m.notice = "Player failed: " + msg.err.Error()
		} else {
			m.notice = "Playing in external player"
		}
		return m, nil

	case downloadMsg:
		m.recView.downloading = false
		if msg.err != nil {
			m.notice = "Download failed: " + msg.err.Error()
		} else {
			m.notice = "Saved " + msg.result.String()
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(m.renderContent())

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderContent() string {
	switch m.route.Name {
	case router.Login:
		return m.renderLogin()
	case router.Dashboard:
		return m.renderDashboard()
	case router.Connections:
		return m.renderConnections()
	case router.Recording:
		return m.renderRecording()
	default:
		return ""
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Text inputs get every key before global bindings.
	switch {
	case m.route.Name == router.Login:
		return m.handleLoginKey(msg)
	case m.route.Name == router.Connections && m.connsView.searching:
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.connsView.applyTheme(m.theme)
		if m.prefsPath != "" {
			_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, PerPage: m.perPage})
		}
		return m, nil

	case "L":
		if m.auth == nil || !m.auth.IsAuthenticated() {
			return m, nil
		}
		m.notice = ""
		return m, m.logoutCmd()
	}

	m.notice = ""
	switch m.route.Name {
	case router.Dashboard:
		return m.handleDashboardKey(msg)
	case router.Connections:
		return m.handleConnectionsKey(msg)
	case router.Recording:
		return m.handleRecordingKey(msg)
	}
	return m, nil
}

func (m Model) handleRouted(msg routedMsg) (tea.Model, tea.Cmd) {
	m.navigating = false
	if msg.err != nil {
		m.notice = msg.err.Error()
		return m, nil
	}
	m.route = msg.route
	m.title = msg.title

	cmds := []tea.Cmd{tea.SetWindowTitle(msg.title)}
	switch m.route.Name {
	case router.Login:
		m.login.reset()
		cmds = append(cmds, m.login.focus(0))
	case router.Dashboard:
		cmds = append(cmds, m.fetchConnectionsCmd(1, ""))
	case router.Connections:
		page, _ := strconv.Atoi(m.route.Query.Get("page"))
		search := strings.TrimSpace(m.route.Query.Get("search"))
		m.connsView.search.SetValue(search)
		m.connsView.focusHistory(false)
		cmds = append(cmds, m.fetchConnectionsCmd(page, search))
	case router.Recording:
		uuid := m.route.Param("uuid")
		m.recView = recordingView{uuid: uuid}
		cmds = append(cmds, m.loadRecordingCmd(uuid))
	}
	m.resize()
	return m, tea.Batch(cmds...)
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.connsView.resize(m.width, m.height-4)
	m.login.resize(m.width)
}

func (m Model) loading() bool {
	if m.navigating {
		return true
	}
	if m.auth != nil && m.auth.Snapshot().IsLoading {
		return true
	}
	if m.conns != nil && m.conns.Snapshot().IsLoading {
		return true
	}
	if m.rec != nil && m.rec.Snapshot().IsLoading {
		return true
	}
	return m.recView.downloading
}

// Messages

// NavigateMsg asks the UI to go to Path through the session guard.
type NavigateMsg struct {
	Path string
}

type routedMsg struct {
	route router.Route
	title string
	err   error
}

type loginMsg struct{ err error }

type logoutMsg struct{}

type connectionsMsg struct{ err error }

type historyMsg struct{ err error }

type recordingMsg struct{ err error }

type playMsg struct {
	url string
	err error
}

type downloadMsg struct {
	result recordings.Downloaded
	err    error
}

// Commands

func (m *Model) navigate(path string) tea.Cmd {
	m.navigating = true
	return m.navigateCmd(path)
}

func (m Model) navigateCmd(path string) tea.Cmd {
	ctx, auth := m.ctx, m.auth
	return func() tea.Msg {
		var title string
		guard := router.NewGuard(auth, func(t string) { title = t })
		route, err := guard.Navigate(ctx, path)
		return routedMsg{route: route, title: title, err: err}
	}
}

func (m Model) loginCmd(username, password string) tea.Cmd {
	ctx, auth := m.ctx, m.auth
	return func() tea.Msg {
		_, err := auth.Login(ctx, username, password)
		return loginMsg{err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctx, auth := m.ctx, m.auth
	return func() tea.Msg {
		auth.Logout(ctx)
		return logoutMsg{}
	}
}

func (m Model) fetchConnectionsCmd(page int, search string) tea.Cmd {
	ctx, store, perPage := m.ctx, m.conns, m.perPage
	if page < 1 {
		page = 1
	}
	return func() tea.Msg {
		_, err := store.FetchConnections(ctx, page, perPage, search)
		return connectionsMsg{err: err}
	}
}

func (m Model) fetchHistoryCmd(id string, page int, withDetail bool) tea.Cmd {
	ctx, store, perPage := m.ctx, m.conns, m.perPage
	return func() tea.Msg {
		if withDetail {
			if _, err := store.FetchConnectionDetail(ctx, id); err != nil {
				return historyMsg{err: err}
			}
		}
		_, err := store.FetchConnectionHistory(ctx, id, page, perPage)
		return historyMsg{err: err}
	}
}

func (m Model) loadRecordingCmd(uuid string) tea.Cmd {
	ctx, store := m.ctx, m.rec
	return func() tea.Msg {
		return recordingMsg{err: store.Load(ctx, uuid)}
	}
}

func (m Model) playCmd(uuid string) tea.Cmd {
	player := m.player
	return func() tea.Msg {
		url, err := player.Play(uuid)
		return playMsg{url: url, err: err}
	}
}

func (m Model) downloadCmd(uuid string) tea.Cmd {
	ctx, player, dir := m.ctx, m.player, m.downloadDir
	return func() tea.Msg {
		result, err := player.Download(ctx, uuid, dir)
		return downloadMsg{result: result, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if opts.OnStart != nil {
		opts.OnStart(p)
	}
	_, err := p.Run()
	return err
}
