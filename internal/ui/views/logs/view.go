package logs

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devlaunch/internal/ui/theme"
)

const maxLines = 5000

type Kind int

const (
	KindOutput Kind = iota
	KindDiagnostic
	KindExit
	KindError
	KindInfo
)

type Line struct {
	Kind Kind
	Text string
}

// Model is the shared log pane. It keeps the newest maxLines lines and
// follows the tail unless the user scrolled up.
type Model struct {
	viewport viewport.Model
	entries  []Line
	follow   bool
	width    int
	height   int
}

func New() Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text)
	return Model{viewport: vp, follow: true}
}

// Append adds lines and re-renders once.
func (m *Model) Append(lines ...Line) {
	if len(lines) == 0 {
		return
	}
	m.entries = append(m.entries, lines...)
	if over := len(m.entries) - maxLines; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	m.refresh()
}

func (m *Model) Clear() {
	m.entries = nil
	m.follow = true
	m.refresh()
}

func (m Model) Len() int { return len(m.entries) }

func (m *Model) refresh() {
	var sb strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(render(e))
	}
	m.viewport.SetContent(sb.String())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func render(e Line) string {
	switch e.Kind {
	case KindDiagnostic:
		return theme.Warn.Render(e.Text)
	case KindExit:
		return theme.Title.Render(e.Text)
	case KindError:
		return theme.Fail.Render(e.Text)
	case KindInfo:
		return theme.Muted.Render(e.Text)
	default:
		return e.Text
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width
		m.viewport.Height = max(m.height-2, 1)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "G", "end":
			m.follow = true
			m.viewport.GotoBottom()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.follow = m.viewport.AtBottom()
	return m, cmd
}

func (m Model) View() string {
	hint := "↑/↓ pgup/pgdn: scroll  G: follow"
	if m.follow {
		hint += "  (following)"
	}
	return m.viewport.View() + "\n" + theme.Muted.Render(hint)
}
