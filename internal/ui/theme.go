package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Colors are hex strings.
type Theme struct {
	Name string

	Background  string
	Surface     string // header and footer bars
	Border      string
	BorderFocus string

	SelectionBg   string
	SelectionText string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Badge colors keyed by connection protocol.
	ProtocolColors map[string]string
}

// protocols builds a badge map in the fixed rdp, vnc, ssh, telnet, kubernetes
// order.
func protocols(rdp, vnc, ssh, telnet, kubernetes string) map[string]string {
	return map[string]string{"rdp": rdp, "vnc": vnc, "ssh": ssh, "telnet": telnet, "kubernetes": kubernetes}
}

// themes is the cycle order used by NextTheme; the first entry is the default.
var themes = []Theme{
	{
		// https://github.com/EdenEast/nightfox.nvim
		Name:       "Nightfox",
		Background: "#131a24", Surface: "#192330", Border: "#39506d", BorderFocus: "#719cd6",
		SelectionBg: "#2b3b51", SelectionText: "#cdcecf",
		Text: "#cdcecf", Muted: "#738091", Faint: "#71839b", Accent: "#719cd6",
		Success: "#81b29a", Warning: "#dbc074", Danger: "#c94f6d", Info: "#63cdcf",
		ProtocolColors: protocols("#719cd6", "#9d79d6", "#81b29a", "#f4a261", "#63cdcf"),
	},
	{
		// https://github.com/rebelot/kanagawa.nvim
		Name:       "Kanagawa",
		Background: "#16161D", Surface: "#1F1F28", Border: "#54546D", BorderFocus: "#7E9CD8",
		SelectionBg: "#2D4F67", SelectionText: "#DCD7BA",
		Text: "#DCD7BA", Muted: "#C8C093", Faint: "#727169", Accent: "#7E9CD8",
		Success: "#98BB6C", Warning: "#E6C384", Danger: "#E46876", Info: "#7FB4CA",
		ProtocolColors: protocols("#7E9CD8", "#957FB8", "#98BB6C", "#E6C384", "#7FB4CA"),
	},
	{
		// Tailwind slate and sky
		Name:       "Slate",
		Background: "#020617", Surface: "#0f172a", Border: "#334155", BorderFocus: "#38bdf8",
		SelectionBg: "#0284c7", SelectionText: "#f8fafc",
		Text: "#f1f5f9", Muted: "#94a3b8", Faint: "#64748b", Accent: "#38bdf8",
		Success: "#22c55e", Warning: "#f59e0b", Danger: "#ef4444", Info: "#06b6d4",
		ProtocolColors: protocols("#0284c7", "#06b6d4", "#22c55e", "#f59e0b", "#14b8a6"),
	},
}

// GetTheme returns the named theme, or the default one.
func GetTheme(name string) Theme {
	for _, t := range themes {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return themes[0]
}

// NextTheme returns the theme after current in the cycle.
func NextTheme(current string) string {
	for i, t := range themes {
		if t.Name == current {
			return themes[(i+1)%len(themes)].Name
		}
	}
	return themes[0].Name
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// Styles are the text styles every screen draws with.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style
	Logo        lipgloss.Style

	theme Theme
}

// Styles builds the text styles of t.
func (t Theme) Styles() Styles {
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Logo:        fg(t.Warning).Bold(true),
		theme:       t,
	}
}

// WithBackground paints every style on color, for bars drawn on Surface.
func (s Styles) WithBackground(color string) Styles {
	bg := lipgloss.Color(color)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

// ProtocolStyle is the badge style for a connection protocol; unknown
// protocols get a muted badge.
func (s Styles) ProtocolStyle(protocol string) lipgloss.Style {
	color := s.theme.ProtocolColors[strings.ToLower(strings.TrimSpace(protocol))]
	if color == "" {
		color = s.theme.Muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.theme.Background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}
