package history

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	runnerdto "devlaunch/internal/modules/runner/dto"
	"devlaunch/internal/ui/theme"
)

const pageSize = 200

type Port interface {
	History(ctx context.Context, limit int) ([]runnerdto.HistoryEntry, error)
}

type LoadedMsg struct {
	Entries []runnerdto.HistoryEntry
	Err     error
}

// Model lists persisted runs, newest first.
type Model struct {
	port    Port
	table   table.Model
	entries []runnerdto.HistoryEntry
	err     error
	width   int
	height  int
}

func New(port Port) Model {
	t := table.New(table.WithColumns(columns(80)), table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(theme.Sapphire).BorderForeground(theme.Surface1).Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Lavender)
	t.SetStyles(styles)
	return Model{port: port, table: t}
}

func columns(width int) []table.Column {
	command := width - 19 - 22 - 9 - 6 - 10
	if command < 16 {
		command = 16
	}
	return []table.Column{
		{Title: "Started", Width: 19},
		{Title: "Label", Width: 22},
		{Title: "State", Width: 9},
		{Title: "Exit", Width: 6},
		{Title: "Command", Width: command},
	}
}

// Refresh reloads the history from the store.
func (m Model) Refresh() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{}
		}
		entries, err := m.port.History(context.Background(), pageSize)
		return LoadedMsg{Entries: entries, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetHeight(max(m.height-3, 3))
		m.table.SetWidth(m.width)
	case LoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.entries = msg.Entries
			rows := make([]table.Row, 0, len(msg.Entries))
			for _, e := range msg.Entries {
				rows = append(rows, table.Row{
					e.StartedAt.Local().Format("2006-01-02 15:04:05"),
					e.Label,
					e.State,
					strconv.Itoa(e.ExitCode),
					e.Command,
				})
			}
			m.table.SetRows(rows)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, m.Refresh()
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return theme.Fail.Render("[ERROR] history: " + m.err.Error())
	}
	if len(m.entries) == 0 {
		return theme.Muted.Render("No recorded runs.")
	}
	return m.table.View() + "\n" + theme.Muted.Render("r: refresh")
}
