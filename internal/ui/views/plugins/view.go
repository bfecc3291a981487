package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	plugindto "devlaunch/internal/modules/plugin/dto"
	"devlaunch/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is the minimal interface this view needs from the plugin use-case.
type Port interface {
	List(ctx context.Context) ([]plugindto.PluginInfo, error)
	Doctor(ctx context.Context) ([]plugindto.DoctorResult, error)
	ListActions(ctx context.Context, pluginName string) ([]plugindto.ActionInfo, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// LoadedMsg carries the manifests together with their doctor results.
type LoadedMsg struct {
	Plugins []plugindto.PluginInfo
	Doctor  []plugindto.DoctorResult
	Err     error
}

// ActionsLoadedMsg is sent when a plugin's action descriptors arrive.
type ActionsLoadedMsg struct {
	PluginName string
	Actions    []plugindto.ActionInfo
	Err        error
}

// ─── list item ───────────────────────────────────────────────────────────────

type pluginItem struct {
	info   plugindto.PluginInfo
	health plugindto.DoctorResult
}

func (i pluginItem) Title() string {
	mark := theme.OK.Render("●")
	switch {
	case !i.info.Enabled:
		mark = theme.Muted.Render("○")
	case i.health.Error != "":
		mark = theme.Fail.Render("●")
	}
	return mark + " " + i.info.Name
}

func (i pluginItem) Description() string { return i.info.Version + "  " + i.info.Binary }
func (i pluginItem) FilterValue() string { return i.info.Name }

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the Plugins tab: manifests on the left, health and contributed
// actions of the selected plugin on the right.
type Model struct {
	port    Port
	list    list.Model
	detail  viewport.Model
	spinner spinner.Model
	loading bool
	err     error
	actions map[string]ActionsLoadedMsg
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Plugins"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		detail:  vp,
		spinner: sp,
		actions: map[string]ActionsLoadedMsg{},
	}
}

// Refresh re-reads manifests and runs the plugin doctor.
func (m *Model) Refresh() tea.Cmd {
	if m.port == nil {
		return nil
	}
	m.loading = true
	m.actions = map[string]ActionsLoadedMsg{}
	port := m.port
	return tea.Batch(func() tea.Msg {
		ctx := context.Background()
		plugins, err := port.List(ctx)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		doctor, err := port.Doctor(ctx)
		return LoadedMsg{Plugins: plugins, Doctor: doctor, Err: err}
	}, m.spinner.Tick)
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width*4/10, m.height-1)
		m.detail.Width = m.width - m.width*4/10 - 2
		m.detail.Height = m.height - 1
		m.renderDetail()

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		health := make(map[string]plugindto.DoctorResult, len(msg.Doctor))
		for _, d := range msg.Doctor {
			health[d.Name] = d
		}
		items := make([]list.Item, len(msg.Plugins))
		for i, p := range msg.Plugins {
			items[i] = pluginItem{info: p, health: health[p.Name]}
		}
		cmds = append(cmds, m.list.SetItems(items), m.loadSelectedActions())
		m.renderDetail()

	case ActionsLoadedMsg:
		m.actions[msg.PluginName] = msg
		m.renderDetail()
		return m, nil

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
			case "r":
				return m, m.Refresh()
			case "pgdown", "pgup":
				var cmd tea.Cmd
				m.detail, cmd = m.detail.Update(msg)
				return m, cmd
			}
		}
	}

	before := m.selectedName()
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	if m.selectedName() != before {
		cmds = append(cmds, m.loadSelectedActions())
		m.renderDetail()
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Checking plugins…")
	}
	if m.err != nil {
		return theme.Fail.Render("[ERROR] " + m.err.Error())
	}
	if len(m.list.Items()) == 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("No plugins configured. r: refresh"))
	}
	listW := m.width * 4 / 10
	listPane := lipgloss.NewStyle().Width(listW).Render(m.list.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, m.detail.View())
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) selected() (pluginItem, bool) {
	item, ok := m.list.SelectedItem().(pluginItem)
	return item, ok
}

func (m Model) selectedName() string {
	if item, ok := m.selected(); ok {
		return item.info.Name
	}
	return ""
}

// loadSelectedActions fetches descriptors once per refresh for enabled plugins.
func (m Model) loadSelectedActions() tea.Cmd {
	item, ok := m.selected()
	if !ok || !item.info.Enabled || m.port == nil {
		return nil
	}
	if _, done := m.actions[item.info.Name]; done {
		return nil
	}
	port := m.port
	name := item.info.Name
	return func() tea.Msg {
		actions, err := port.ListActions(context.Background(), name)
		return ActionsLoadedMsg{PluginName: name, Actions: actions, Err: err}
	}
}

func (m *Model) renderDetail() {
	item, ok := m.selected()
	if !ok {
		m.detail.SetContent("")
		return
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(item.info.Name+" "+item.info.Version) + "\n\n")
	sb.WriteString(theme.Muted.Render("binary: ") + item.info.Binary + "\n")
	sb.WriteString(theme.Muted.Render("capabilities: ") + strings.Join(item.info.Capabilities, ", ") + "\n\n")
	if !item.info.Enabled {
		sb.WriteString(theme.Muted.Render("disabled") + "\n")
		m.detail.SetContent(sb.String())
		return
	}
	h := item.health
	sb.WriteString(fmt.Sprintf("checksum %s  binary %s  lifecycle %s\n", flag(h.ChecksumValid), flag(h.BinaryReachable), flag(h.LifecycleOK)))
	if h.Error != "" {
		sb.WriteString(theme.Fail.Render(h.Error) + "\n")
	}
	sb.WriteString("\n")

	loaded, done := m.actions[item.info.Name]
	switch {
	case !done:
		sb.WriteString(theme.Muted.Render("loading actions…"))
	case loaded.Err != nil:
		sb.WriteString(theme.Fail.Render("actions: " + loaded.Err.Error()))
	case len(loaded.Actions) == 0:
		sb.WriteString(theme.Muted.Render("no actions"))
	default:
		for _, a := range loaded.Actions {
			title := a.Title
			if title == "" {
				title = a.ID
			}
			sb.WriteString(theme.OK.Render(title) + "  " + theme.Muted.Render(a.ID) + "\n")
			sb.WriteString("  $ " + strings.Join(a.Argv, " ") + "\n")
			if a.Destructive {
				sb.WriteString("  " + theme.Warn.Render("destructive") + "\n")
			}
		}
	}
	m.detail.SetContent(sb.String())
}

func flag(ok bool) string {
	if ok {
		return theme.OK.Render("ok")
	}
	return theme.Fail.Render("no")
}
