package runs

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	runnerdto "devlaunch/internal/modules/runner/dto"
	"devlaunch/internal/ui/theme"
)

// CancelRequestMsg asks the parent to cancel a handle.
type CancelRequestMsg struct{ HandleID string }

// ForgetRequestMsg asks the parent to drop a finished handle.
type ForgetRequestMsg struct{ HandleID string }

type Model struct {
	table   table.Model
	handles []runnerdto.HandleInfo
	width   int
	height  int
}

func New() Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(theme.Sapphire).BorderForeground(theme.Surface1).Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Lavender)
	t.SetStyles(styles)
	return Model{table: t}
}

func columns(width int) []table.Column {
	label := width - 8 - 10 - 9 - 6 - 8 - 12
	if label < 12 {
		label = 12
	}
	return []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Mode", Width: 10},
		{Title: "State", Width: 9},
		{Title: "Exit", Width: 6},
		{Title: "PID", Width: 8},
		{Title: "Label", Width: label},
	}
}

// SetHandles replaces the rows, keeping the cursor on the same handle when
// it is still listed.
func (m *Model) SetHandles(handles []runnerdto.HandleInfo) {
	selected := m.selectedID()
	m.handles = handles
	rows := make([]table.Row, 0, len(handles))
	cursor := 0
	for i, h := range handles {
		exit := ""
		if !h.Running {
			exit = strconv.Itoa(h.ExitCode)
		}
		pid := ""
		if h.PID > 0 {
			pid = strconv.Itoa(h.PID)
		}
		rows = append(rows, table.Row{shortID(h.ID), h.Mode, h.State, exit, pid, h.Label})
		if h.ID == selected {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
}

func (m Model) Running() int {
	n := 0
	for _, h := range m.handles {
		if h.Running {
			n++
		}
	}
	return n
}

func (m Model) selectedID() string {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.handles) {
		return ""
	}
	return m.handles[i].ID
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetHeight(max(m.height-6, 3))
		m.table.SetWidth(m.width)
	case tea.KeyMsg:
		id := m.selectedID()
		switch msg.String() {
		case "x":
			if id != "" {
				return m, func() tea.Msg { return CancelRequestMsg{HandleID: id} }
			}
			return m, nil
		case "d":
			if id != "" {
				return m, func() tea.Msg { return ForgetRequestMsg{HandleID: id} }
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.handles) == 0 {
		return theme.Muted.Render("No runs yet. Start an action from the Actions tab.")
	}
	var sb strings.Builder
	sb.WriteString(m.table.View() + "\n\n")
	if i := m.table.Cursor(); i >= 0 && i < len(m.handles) {
		h := m.handles[i]
		sb.WriteString(theme.Muted.Render("$ "+strings.Join(h.Argv, " ")) + "\n")
		sb.WriteString(theme.Muted.Render("started "+h.StartedAt.Format(time.TimeOnly)+"  id "+h.ID) + "\n")
	}
	sb.WriteString(theme.Muted.Render("x: cancel  d: forget finished run"))
	return lipgloss.NewStyle().Width(m.width).Render(sb.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
