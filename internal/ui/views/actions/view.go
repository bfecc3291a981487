package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	actiondto "devlaunch/internal/modules/action/dto"
	"devlaunch/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	List(ctx context.Context) ([]actiondto.ActionInfo, error)
	Reload(ctx context.Context) ([]actiondto.ActionInfo, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Actions []actiondto.ActionInfo
	Err     error
}

// RunRequestMsg asks the parent to start the selected action.
type RunRequestMsg struct {
	Action     actiondto.ActionInfo
	Background bool
}

// ─── list item ───────────────────────────────────────────────────────────────

type actionItem struct{ action actiondto.ActionInfo }

func (i actionItem) Title() string {
	title := i.action.Label
	if i.action.Destructive {
		title += " ⚠"
	}
	if i.action.Background {
		title += " ↻"
	}
	return title
}

func (i actionItem) Description() string { return i.action.Category }

func (i actionItem) FilterValue() string {
	return i.action.Category + " " + i.action.Label + " " + i.action.Key
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    Port
	list    list.Model
	spinner spinner.Model
	loading bool
	busy    bool
	err     error
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Actions"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(false), m.spinner.Tick)
}

// Reload re-reads every action source.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return tea.Batch(m.load(true), m.spinner.Tick)
}

// SetBusy marks a blocking run in progress; enter is ignored meanwhile.
func (m *Model) SetBusy(busy bool) { m.busy = busy }

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Selected() (actiondto.ActionInfo, bool) {
	item, ok := m.list.SelectedItem().(actionItem)
	if !ok {
		return actiondto.ActionInfo{}, false
	}
	return item.action, true
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width*45/100, m.height-1)

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			items := make([]list.Item, len(msg.Actions))
			for i, a := range msg.Actions {
				items[i] = actionItem{action: a}
			}
			cmds = append(cmds, m.list.SetItems(items))
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if !m.Filtering() {
			switch msg.String() {
			case "enter", "b":
				background := msg.String() == "b"
				if selected, ok := m.Selected(); ok && (background || !m.busy) {
					return m, func() tea.Msg { return RunRequestMsg{Action: selected, Background: background} }
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading actions…")
	}
	if m.err != nil {
		return theme.Fail.Render("[ERROR] " + m.err.Error())
	}
	listW := m.width * 45 / 100
	detailW := m.width - listW - 2
	if detailW < 10 {
		detailW = 10
	}
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height - 1).Render(m.list.View())
	detailPane := theme.Pane.Width(detailW).Height(m.height - 3).Render(m.renderDetail())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

func (m Model) renderDetail() string {
	a, ok := m.Selected()
	if !ok {
		return theme.Muted.Render("No actions. Add scripts or an actions: block to devlaunch.yaml.")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(a.Label) + "\n")
	sb.WriteString(theme.Muted.Render(a.Category+" · "+a.Source) + "\n\n")
	if a.Description != "" && a.Description != a.Key {
		sb.WriteString(a.Description + "\n\n")
	}
	sb.WriteString(theme.Muted.Render("key: ") + a.Key + "\n")
	if a.Destructive {
		sb.WriteString(theme.Fail.Render("destructive: asks for confirmation") + "\n")
	}
	if a.Background {
		sb.WriteString(theme.Warn.Render("runs in background") + "\n")
	}
	if len(a.Requires) > 0 {
		sb.WriteString(theme.Muted.Render("requires: ") + strings.Join(a.Requires, ", ") + "\n")
	}
	if p := a.Parameter; p != nil {
		label := p.Label
		if label == "" {
			label = "parameter"
		}
		sb.WriteString("\n" + theme.Title.Render(label) + "\n")
		for _, c := range p.Choices {
			marker := "  "
			if c == p.Default {
				marker = "• "
			}
			sb.WriteString(marker + c + "\n")
		}
	}
	sb.WriteString("\n" + theme.Title.Render("Options") + "\n")
	for _, o := range a.Options {
		status := theme.OK.Render("✓")
		if !o.Exists {
			status = theme.Fail.Render("✗")
		}
		line := fmt.Sprintf("%s %s", status, o.Label)
		if o.Path != "" {
			line += theme.Muted.Render("  " + o.Path)
		}
		sb.WriteString(line + "\n")
		if o.Command != "" {
			sb.WriteString(theme.Muted.Render("    $ "+o.Command) + "\n")
		}
	}
	sb.WriteString("\n" + theme.Muted.Render("enter: run  b: run in background  /: filter"))
	return sb.String()
}

func (m Model) load(reload bool) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{Err: fmt.Errorf("action table not configured")}
		}
		var (
			actions []actiondto.ActionInfo
			err     error
		)
		if reload {
			actions, err = m.port.Reload(context.Background())
		} else {
			actions, err = m.port.List(context.Background())
		}
		return LoadedMsg{Actions: actions, Err: err}
	}
}
