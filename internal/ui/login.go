package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loginForm struct {
	username textinput.Model
	password textinput.Model
	focused  int // 0 = username, 1 = password
}

func newLoginForm() loginForm {
	user := textinput.New()
	user.Prompt = "Username  "
	user.Placeholder = "username"
	user.CharLimit = 128

	pass := textinput.New()
	pass.Prompt = "Password  "
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 256

	return loginForm{username: user, password: pass}
}

func (f *loginForm) reset() {
	f.username.Reset()
	f.password.Reset()
	f.focused = 0
}

func (f *loginForm) focus(idx int) tea.Cmd {
	f.focused = idx
	if idx == 0 {
		f.password.Blur()
		return f.username.Focus()
	}
	f.username.Blur()
	return f.password.Focus()
}

func (f *loginForm) resize(width int) {
	w := width/2 - 12
	if w < 16 {
		w = 16
	}
	f.username.Width = w
	f.password.Width = w
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		cmd := m.login.focus(1 - m.login.focused)
		return m, cmd

	case "esc":
		if m.auth != nil {
			m.auth.ClearError()
		}
		m.notice = ""
		return m, nil

	case "enter":
		if m.login.focused == 0 {
			cmd := m.login.focus(1)
			return m, cmd
		}
		username := strings.TrimSpace(m.login.username.Value())
		password := m.login.password.Value()
		if username == "" || password == "" {
			m.notice = "Username and password are required"
			return m, nil
		}
		if m.auth != nil && m.auth.Snapshot().IsLoading {
			return m, nil
		}
		m.notice = ""
		return m, m.loginCmd(username, password)
	}

	var cmd tea.Cmd
	if m.login.focused == 0 {
		m.login.username, cmd = m.login.username.Update(msg)
	} else {
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Logo.Render("GuacPlayer"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Session recording playback"))
	b.WriteString("\n\n")
	b.WriteString(m.login.username.View())
	b.WriteString("\n")
	b.WriteString(m.login.password.View())
	b.WriteString("\n\n")

	switch {
	case m.auth != nil && m.auth.Snapshot().IsLoading:
		b.WriteString(styles.InfoText.Render(m.spinner.View() + " Signing in..."))
	case m.auth != nil && m.auth.Snapshot().Error != "":
		b.WriteString(styles.DangerText.Render(m.auth.Snapshot().Error))
	default:
		b.WriteString(styles.FaintText.Render("enter to sign in · tab to switch field"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 3).
		Render(b.String())
	return lipgloss.Place(m.width, m.height-4, lipgloss.Center, lipgloss.Center, box)
}
