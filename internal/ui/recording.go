package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type recordingView struct {
	uuid        string
	ready       bool
	downloading bool
	showURL     bool
}

func (m Model) handleRecordingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	uuid := m.recView.uuid
	switch msg.String() {
	case "p":
		if m.player == nil {
			return m, nil
		}
		m.notice = "Starting player..."
		return m, m.playCmd(uuid)

	case "d":
		if m.player == nil || m.recView.downloading {
			return m, nil
		}
		m.recView.downloading = true
		m.notice = "Downloading..."
		return m, m.downloadCmd(uuid)

	case "u":
		m.recView.showURL = !m.recView.showURL
		return m, nil

	case "r":
		return m, m.loadRecordingCmd(uuid)

	case "esc":
		cmd := m.navigate("/connections")
		return m, cmd
	}
	return m, nil
}

func (m Model) renderRecording() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(styles.AccentText.Bold(true).Render("Recording " + m.recView.uuid))
	b.WriteString("\n\n")

	if m.rec != nil {
		snap := m.rec.Snapshot()
		if !snap.Info.IsZero() {
			label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Width(12)
			rows := [][2]string{
				{"Created", formatTimestamp(snap.Info.String("created_at"))},
				{"Size", formatBytes(snap.Info.Int("size_bytes"))},
				{"Video", dash(snap.Info.String("video_file"))},
				{"Path", dash(snap.Info.String("path"))},
			}
			for _, r := range rows {
				b.WriteString(label.Render(r[0]))
				b.WriteString(styles.Text.Render(r[1]))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}

		if len(snap.Files) > 0 {
			b.WriteString(styles.AccentText.Bold(true).Render("Files"))
			b.WriteString("\n")
			name := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Text)).Width(32)
			size := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Info)).Width(12)
			for _, f := range snap.Files {
				b.WriteString(name.Render(dash(f.First("name", "path"))))
				b.WriteString(size.Render(formatBytes(f.Int("size"))))
				b.WriteString(styles.MutedText.Render(formatTimestamp(f.String("modified"))))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		} else if !snap.IsLoading && snap.Error == "" {
			b.WriteString(styles.FaintText.Render("No files"))
			b.WriteString("\n\n")
		}
	}

	if m.recView.showURL && m.player != nil {
		b.WriteString(styles.MutedText.Render("Stream URL"))
		b.WriteString("\n")
		b.WriteString(styles.InfoText.Render(m.player.StreamURL(m.recView.uuid)))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.FaintText.Render("p play · d download · u stream URL · esc back"))
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}
