package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/guacplayer/guacplayer/internal/api"
	"github.com/guacplayer/guacplayer/internal/router"
)

// historyIDPaths are the fields that may identify the recording of a
// history row, in order of preference.
var historyIDPaths = []string{"history_uuid", "uuid", "history_id"}

type connectionsView struct {
	list      table.Model
	history   table.Model
	search    textinput.Model
	searching bool
	onHistory bool
	width     int
	height    int
}

func newConnectionsView(theme Theme) connectionsView {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search connections"
	search.CharLimit = 128

	v := connectionsView{
		list:    table.New(table.WithFocused(true)),
		history: table.New(),
		search:  search,
	}
	v.applyTheme(theme)
	return v
}

func (v *connectionsView) applyTheme(theme Theme) {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Border)).
		BorderBottom(true).
		Foreground(lipgloss.Color(theme.Accent)).
		Bold(true)
	s.Cell = s.Cell.Foreground(lipgloss.Color(theme.Text))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(theme.SelectionText)).
		Background(lipgloss.Color(theme.SelectionBg)).
		Bold(false)
	v.list.SetStyles(s)
	v.history.SetStyles(s)
}

func (v *connectionsView) resize(width, height int) {
	v.width, v.height = width, height
	usable := width - 4
	if usable < 40 {
		usable = 40
	}

	v.list.SetColumns([]table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: usable - 6 - 12 - 8 - 8},
		{Title: "Protocol", Width: 12},
		{Title: "Max", Width: 8},
	})
	v.history.SetColumns([]table.Column{
		{Title: "Recording", Width: 12},
		{Title: "User", Width: 14},
		{Title: "Start", Width: 17},
		{Title: "End", Width: 17},
		{Title: "Remote host", Width: max(usable-12-14-17-17-10, 12)},
	})
	v.list.SetWidth(width)
	v.history.SetWidth(width)

	listHeight := height - 4
	if v.onHistory || len(v.history.Rows()) > 0 {
		listHeight = height/2 - 3
		v.history.SetHeight(max(height-listHeight-9, 3))
	}
	v.list.SetHeight(max(listHeight, 3))
}

func (v *connectionsView) focusHistory(on bool) {
	v.onHistory = on
	if on {
		v.list.Blur()
		v.history.Focus()
		return
	}
	v.history.Blur()
	v.list.Focus()
}

// syncConnections rebuilds both tables from the store.
func (m *Model) syncConnections() {
	if m.conns == nil {
		return
	}
	snap := m.conns.Snapshot()

	rows := make([]table.Row, 0, len(snap.Connections))
	for _, c := range snap.Connections {
		rows = append(rows, table.Row{
			c.ID("connection_id"),
			dash(c.String("connection_name")),
			dash(c.String("protocol")),
			dash(c.String("max_connections")),
		})
	}
	m.connsView.list.SetRows(rows)
	if m.connsView.list.Cursor() >= len(rows) {
		m.connsView.list.SetCursor(max(len(rows)-1, 0))
	}

	var history []table.Row
	if !snap.Current.IsZero() {
		history = make([]table.Row, 0, len(snap.History))
		for _, h := range snap.History {
			history = append(history, table.Row{
				shortID(h.ID(historyIDPaths...)),
				dash(h.First("username", "user_id")),
				formatShortTime(h.String("start_date")),
				formatShortTime(h.String("end_date")),
				dash(h.String("remote_host")),
			})
		}
	}
	m.connsView.history.SetRows(history)
	if m.connsView.history.Cursor() >= len(history) {
		m.connsView.history.SetCursor(max(len(history)-1, 0))
	}
	if len(history) == 0 && m.connsView.onHistory {
		m.connsView.focusHistory(false)
	}
	m.resize()
}

func (m Model) handleConnectionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.conns == nil {
		return m, nil
	}
	snap := m.conns.Snapshot()
	v := &m.connsView

	switch msg.String() {
	case "/":
		v.searching = true
		v.search.SetValue(snap.SearchQuery)
		v.search.CursorEnd()
		return m, v.search.Focus()

	case "n", "pgdown":
		if v.onHistory {
			if snap.HistoryPagination.HasNext() {
				return m, m.fetchHistoryCmd(snap.Current.ID("connection_id"), snap.HistoryPagination.Page+1, false)
			}
			return m, nil
		}
		if snap.Pagination.HasNext() {
			return m, m.fetchConnectionsCmd(snap.Pagination.Page+1, snap.SearchQuery)
		}
		return m, nil

	case "p", "pgup":
		if v.onHistory {
			if snap.HistoryPagination.HasPrev() {
				return m, m.fetchHistoryCmd(snap.Current.ID("connection_id"), snap.HistoryPagination.Page-1, false)
			}
			return m, nil
		}
		if snap.Pagination.HasPrev() {
			return m, m.fetchConnectionsCmd(snap.Pagination.Page-1, snap.SearchQuery)
		}
		return m, nil

	case "r":
		if v.onHistory {
			return m, m.fetchHistoryCmd(snap.Current.ID("connection_id"), snap.HistoryPagination.Page, true)
		}
		return m, m.fetchConnectionsCmd(snap.Pagination.Page, snap.SearchQuery)

	case "tab":
		if len(v.history.Rows()) > 0 {
			v.focusHistory(!v.onHistory)
		}
		return m, nil

	case "enter":
		if v.onHistory {
			idx := v.history.Cursor()
			if idx < 0 || idx >= len(snap.History) {
				return m, nil
			}
			uuid := snap.History[idx].ID(historyIDPaths...)
			if uuid == "" {
				m.notice = "This session has no recording"
				return m, nil
			}
			cmd := m.navigate(router.RecordingPath(uuid))
			return m, cmd
		}
		idx := v.list.Cursor()
		if idx < 0 || idx >= len(snap.Connections) {
			return m, nil
		}
		return m, m.fetchHistoryCmd(snap.Connections[idx].ID("connection_id"), 1, true)

	case "esc":
		if v.onHistory || !snap.Current.IsZero() {
			m.conns.ResetCurrentConnection()
			v.focusHistory(false)
			m.syncConnections()
			return m, nil
		}
		cmd := m.navigate(router.DashboardPath)
		return m, cmd
	}

	var cmd tea.Cmd
	if v.onHistory {
		v.history, cmd = v.history.Update(msg)
	} else {
		v.list, cmd = v.list.Update(msg)
	}
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.connsView
	switch msg.String() {
	case "enter":
		v.searching = false
		v.search.Blur()
		v.focusHistory(false)
		if m.conns != nil {
			m.conns.ResetCurrentConnection()
		}
		return m, m.fetchConnectionsCmd(1, strings.TrimSpace(v.search.Value()))
	case "esc":
		v.searching = false
		v.search.Blur()
		if m.conns != nil {
			v.search.SetValue(m.conns.Snapshot().SearchQuery)
		}
		return m, nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	return m, cmd
}

func (m Model) renderConnections() string {
	if m.conns == nil {
		return ""
	}
	styles := m.theme.Styles()
	snap := m.conns.Snapshot()
	v := m.connsView

	var b strings.Builder
	summary := fmt.Sprintf("Connections (%d)", snap.TotalConnections())
	b.WriteString(styles.AccentText.Bold(true).Render(summary))
	b.WriteString(styles.MutedText.Render("  " + pageLabel(snap.Pagination)))
	if snap.SearchQuery != "" {
		b.WriteString(styles.WarningText.Render("  search: " + snap.SearchQuery))
	}
	b.WriteString("\n")
	if v.searching {
		b.WriteString(v.search.View())
		b.WriteString("\n")
	}

	if !snap.HasConnections() && !snap.IsLoading {
		b.WriteString(styles.FaintText.Render("No connections found"))
		b.WriteString("\n")
	} else {
		b.WriteString(v.list.View())
		b.WriteString("\n")
	}

	if !snap.Current.IsZero() {
		b.WriteString("\n")
		b.WriteString(m.renderConnectionDetail(snap.Current, styles))
		b.WriteString("\n")
		label := fmt.Sprintf("History of %s (%d)", dash(snap.HistoryConnection), snap.HistoryPagination.Total)
		b.WriteString(styles.AccentText.Bold(true).Render(label))
		b.WriteString(styles.MutedText.Render("  " + pageLabel(snap.HistoryPagination)))
		b.WriteString("\n")
		if len(snap.History) == 0 {
			b.WriteString(styles.FaintText.Render("No sessions recorded"))
		} else {
			b.WriteString(v.history.View())
		}
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (m Model) renderConnectionDetail(c api.Record, styles Styles) string {
	parts := []string{
		styles.Text.Bold(true).Render(dash(c.String("connection_name"))),
		styles.ProtocolStyle(c.String("protocol")).Render(strings.ToUpper(dash(c.String("protocol")))),
	}
	if host := c.String("proxy_hostname"); host != "" {
		proxy := host
		if port := c.String("proxy_port"); port != "" {
			proxy += ":" + port
		}
		parts = append(parts, styles.MutedText.Render("proxy "+proxy))
	}
	if maxConns := c.String("max_connections"); maxConns != "" {
		parts = append(parts, styles.MutedText.Render("max "+maxConns))
	}
	return strings.Join(parts, "  ")
}

func pageLabel(p api.Pagination) string {
	if p.TotalPages == 0 {
		return "page -"
	}
	return fmt.Sprintf("page %d/%d", p.Page, p.TotalPages)
}
