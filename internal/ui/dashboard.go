package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c", "enter":
		cmd := m.navigate("/connections")
		return m, cmd
	case "r":
		return m, m.fetchConnectionsCmd(1, "")
	}
	return m, nil
}

func (m Model) renderDashboard() string {
	styles := m.theme.Styles()

	var b strings.Builder
	user := "unknown"
	if m.auth != nil {
		if name := m.auth.Snapshot().Username(); name != "" {
			user = name
		}
	}
	b.WriteString(styles.Text.Render("Signed in as "))
	b.WriteString(styles.AccentText.Bold(true).Render(user))
	b.WriteString("\n\n")

	if m.conns != nil {
		snap := m.conns.Snapshot()
		count := styles.SuccessText.Render(fmt.Sprintf("%d", snap.TotalConnections()))
		b.WriteString(count)
		b.WriteString(styles.Text.Render(" connections available"))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.FaintText.Render("c / enter  browse connections and recordings"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Padding(1, 2).
		Margin(1, 1).
		Render(b.String())
}
