package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/guacplayer/guacplayer/internal/router"
)

// renderHeader renders the title bar: logo, route title, user and activity.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	left := []string{
		bg.Render("guacplayer", styles.Logo),
		bg.Render(m.title, styles.Text),
	}

	var right []string
	if m.loading() {
		right = append(right, bg.Render(m.spinner.View(), styles.InfoText))
	}
	if m.auth != nil {
		if snap := m.auth.Snapshot(); snap.IsAuthenticated() {
			name := snap.Username()
			if name == "" {
				name = "signed in"
			}
			right = append(right, bg.Render(name, styles.AccentText))
		}
	}

	leftStr := bg.Join(left, "  ")
	rightStr := bg.Join(right, "  ")
	gap := m.width - lipgloss.Width(leftStr) - lipgloss.Width(rightStr) - 2
	line := bg.Spaces(1) + leftStr + bg.Spaces(gap) + rightStr + bg.Spaces(1)
	return bg.FillLine(line, m.width)
}

// renderFooter shows the most relevant error or notice above the key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var status string
	if msg := m.currentError(); msg != "" {
		status = bg.Render(msg, styles.DangerText)
	} else if m.notice != "" {
		status = bg.Render(m.notice, styles.WarningText)
	}

	hints := make([]string, 0, 6)
	for _, binding := range m.footerBindings() {
		h := binding.Help()
		hints = append(hints, bg.Render(h.Key, styles.AccentText)+bg.Spaces(1)+bg.Render(strings.ToLower(h.Desc), styles.MutedText))
	}

	lines := []string{}
	if status != "" {
		lines = append(lines, bg.FillLine(bg.Spaces(1)+status, m.width))
	}
	lines = append(lines, bg.FillLine(bg.Spaces(1)+bg.Join(hints, "  "), m.width))
	return strings.Join(lines, "\n")
}

func (m Model) currentError() string {
	switch m.route.Name {
	case router.Dashboard:
		if m.auth != nil {
			if e := m.auth.Snapshot().Error; e != "" {
				return e
			}
		}
		if m.conns != nil {
			return m.conns.Snapshot().Error
		}
	case router.Connections:
		if m.conns != nil {
			return m.conns.Snapshot().Error
		}
	case router.Recording:
		if m.rec != nil {
			return m.rec.Snapshot().Error
		}
	}
	return ""
}

func (m Model) footerBindings() []keyBinding {
	k := m.keys
	switch m.route.Name {
	case router.Login:
		return []keyBinding{k.Quit}
	case router.Dashboard:
		return []keyBinding{k.GoConnections, k.Refresh, k.Logout, k.CycleTheme, k.Help, k.Quit}
	case router.Connections:
		return []keyBinding{k.Open, k.NextPage, k.PrevPage, k.Search, k.Back, k.Help}
	case router.Recording:
		return []keyBinding{k.Play, k.Download, k.ShowURL, k.Back, k.Help}
	}
	return k.ShortHelp()
}
