package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	actiondto "devlaunch/internal/modules/action/dto"
	actionin "devlaunch/internal/modules/action/port/in"
	doctordto "devlaunch/internal/modules/doctor/dto"
	runnerdto "devlaunch/internal/modules/runner/dto"
	runnerin "devlaunch/internal/modules/runner/port/in"
	"devlaunch/internal/ui/components"
	"devlaunch/internal/ui/theme"
	actionsview "devlaunch/internal/ui/views/actions"
	historyview "devlaunch/internal/ui/views/history"
	logsview "devlaunch/internal/ui/views/logs"
	pluginsview "devlaunch/internal/ui/views/plugins"
	runsview "devlaunch/internal/ui/views/runs"
)

const shutdownTimeout = 10 * time.Second

// ─── ports ───────────────────────────────────────────────────────────────────

type actionPort interface {
	List(ctx context.Context) ([]actiondto.ActionInfo, error)
	Reload(ctx context.Context) ([]actiondto.ActionInfo, error)
	Get(ctx context.Context, key string) (actiondto.ActionInfo, error)
	Dispatch(ctx context.Context, input actiondto.DispatchInput, sink runnerin.LogSink) (actiondto.DispatchResult, error)
}

type runnerPort interface {
	Poll(ctx context.Context) []runnerdto.LogLine
	Cancel(ctx context.Context, handleID string) error
	Handles(ctx context.Context) []runnerdto.HandleInfo
	Forget(ctx context.Context, handleID string) error
	History(ctx context.Context, limit int) ([]runnerdto.HistoryEntry, error)
	QueueSink(label string) runnerin.LogSink
	Shutdown(ctx context.Context) error
}

type doctorPort interface {
	Report(ctx context.Context) (doctordto.Report, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabActions tabID = iota
	tabRuns
	tabHistory
	tabPlugins
	tabLog
	tabCount
)

var tabLabels = [tabCount]string{
	"Actions", "Runs", "History", "Plugins", "Log",
}

// ─── async messages ──────────────────────────────────────────────────────────

type pollMsg struct{}

type dispatchDoneMsg struct {
	request runRequest
	result  actiondto.DispatchResult
	err     error
}

type selfCheckDoneMsg struct {
	report doctordto.Report
	err    error
}

type shutdownDoneMsg struct{ err error }

// runRequest accumulates the answers collected before a dispatch.
type runRequest struct {
	action     actiondto.ActionInfo
	background bool
	option     string
	optionSet  bool
	param      string
	paramSet   bool
	confirmed  bool
}

type choiceStage int

const (
	stageOption choiceStage = iota
	stageParam
)

type choiceTag struct {
	stage   choiceStage
	request runRequest
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab        key.Binding
	Help       key.Binding
	Palette    key.Binding
	Quit       key.Binding
	Run        key.Binding
	Background key.Binding
	Cancel     key.Binding
	Reload     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:    key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Run:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run action")),
		Background: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "run in background")),
		Cancel:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cancel run")),
		Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload actions")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Run, k.Background},
		{k.Cancel, k.Reload},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the poll tick that
// drains the runner queue, and the dialogs collecting option, parameter and
// confirmation before a dispatch. Only one blocking run is active at a time.
type Model struct {
	rootPath     string
	pollInterval time.Duration

	actions actionPort
	runner  runnerPort
	doctor  doctorPort

	actionsView actionsview.Model
	runsView    runsview.Model
	historyView historyview.Model
	pluginsView pluginsview.Model
	logView     logsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	confirm   components.Confirm
	choice    components.Choice

	pluginsLoaded  bool
	blockingLabel  string
	cancelBlocking context.CancelFunc
	shuttingDown   bool
	status         string
	width          int
	height         int
}

func NewModel(rootPath string, pollInterval time.Duration, actions actionPort, runner runnerPort, doctor doctorPort, plugins pluginsview.Port) Model {
	if pollInterval <= 0 {
		pollInterval = 80 * time.Millisecond
	}
	var history historyview.Port
	if runner != nil {
		history = runner
	}
	return Model{
		rootPath:     rootPath,
		pollInterval: pollInterval,
		actions:      actions,
		runner:       runner,
		doctor:       doctor,
		actionsView:  actionsview.New(actions),
		runsView:     runsview.New(),
		historyView:  historyview.New(history),
		pluginsView:  pluginsview.New(plugins),
		logView:      logsview.New(),
		activeTab:    tabActions,
		keys:         defaultKeys(),
		help:         help.New(),
		palette:      components.NewPalette(),
		confirm:      components.NewConfirm(),
		choice:       components.NewChoice(),
		status:       "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.actionsView.Init(),
		m.historyView.Refresh(),
		m.pollCmd(),
	)
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Dialogs intercept all key input while open.
	if _, isKey := msg.(tea.KeyMsg); isKey {
		switch {
		case m.confirm.Visible():
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		case m.choice.Visible():
			var cmd tea.Cmd
			m.choice, cmd = m.choice.Update(msg)
			return m, cmd
		case m.palette.Visible():
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case pollMsg:
		m.drainQueue()
		if m.shuttingDown {
			return m, nil
		}
		return m, m.pollCmd()

	case actionsview.RunRequestMsg:
		return m.beginRun(runRequest{action: msg.Action, background: msg.Background})

	case components.ChoiceResultMsg:
		tag, ok := msg.Tag.(choiceTag)
		if !ok || msg.Cancelled {
			m.status = "cancelled"
			return m, nil
		}
		if tag.stage == stageOption {
			tag.request.option = msg.Value
			tag.request.optionSet = true
		} else {
			tag.request.param = msg.Value
			tag.request.paramSet = true
		}
		return m.beginRun(tag.request)

	case components.ConfirmResultMsg:
		req, ok := msg.Tag.(runRequest)
		if !ok || !msg.Confirmed {
			m.appendInfo("Cancelled.")
			m.status = "cancelled"
			return m, nil
		}
		req.confirmed = true
		return m.beginRun(req)

	case dispatchDoneMsg:
		return m.handleDispatchDone(msg)

	case selfCheckDoneMsg:
		m.renderSelfCheck(msg)
		return m, nil

	case shutdownDoneMsg:
		return m, tea.Quit

	case runsview.CancelRequestMsg:
		if err := m.runner.Cancel(context.Background(), msg.HandleID); err != nil {
			m.appendError(err)
		} else {
			m.status = "cancel requested"
		}
		m.runsView.SetHandles(m.runner.Handles(context.Background()))
		return m, nil

	case runsview.ForgetRequestMsg:
		if err := m.runner.Forget(context.Background(), msg.HandleID); err != nil {
			m.status = err.Error()
		}
		m.runsView.SetHandles(m.runner.Handles(context.Background()))
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.subViewFiltering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m.quit()
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			cmd := m.onTabChange()
			return m, cmd
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			cmd := m.onTabChange()
			return m, cmd
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			cmd := m.palette.Open()
			return m, cmd
		case "x":
			if m.activeTab != tabRuns {
				m.cancelBlockingRun()
				return m, nil
			}
		case "r":
			if m.activeTab == tabActions {
				cmd := m.actionsView.Reload()
				return m, cmd
			}
		}
	}

	var tabCmd tea.Cmd
	switch msg.(type) {
	case actionsview.LoadedMsg:
		m.actionsView, tabCmd = m.actionsView.Update(msg)
	case spinner.TickMsg:
		var pluginsCmd tea.Cmd
		m.actionsView, tabCmd = m.actionsView.Update(msg)
		m.pluginsView, pluginsCmd = m.pluginsView.Update(msg)
		cmds = append(cmds, pluginsCmd)
	case pluginsview.LoadedMsg, pluginsview.ActionsLoadedMsg:
		m.pluginsView, tabCmd = m.pluginsView.Update(msg)
	case historyview.LoadedMsg:
		m.historyView, tabCmd = m.historyView.Update(msg)
	default:
		tabCmd = m.updateActiveTab(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabActions:
		m.actionsView, cmd = m.actionsView.Update(msg)
	case tabRuns:
		m.runsView, cmd = m.runsView.Update(msg)
	case tabHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case tabPlugins:
		m.pluginsView, cmd = m.pluginsView.Update(msg)
	case tabLog:
		m.logView, cmd = m.logView.Update(msg)
	}
	return cmd
}

func (m *Model) onTabChange() tea.Cmd {
	switch m.activeTab {
	case tabHistory:
		return m.historyView.Refresh()
	case tabPlugins:
		if !m.pluginsLoaded {
			m.pluginsLoaded = true
			return m.pluginsView.Refresh()
		}
	}
	return nil
}

// ─── run flow ────────────────────────────────────────────────────────────────

// beginRun asks for whatever the request still misses, then dispatches.
func (m Model) beginRun(req runRequest) (tea.Model, tea.Cmd) {
	if m.shuttingDown {
		return m, nil
	}
	a := req.action
	background := req.background || a.Background
	if !background && m.blockingLabel != "" {
		m.status = "a run is already active: " + m.blockingLabel
		return m, nil
	}

	if !req.optionSet {
		runnable := []string{}
		for _, o := range a.Options {
			if o.Exists {
				runnable = append(runnable, o.Label)
			}
		}
		if len(runnable) > 1 {
			m.choice.Open("Run "+a.Label+" with", runnable, runnable[0], nil, choiceTag{stage: stageOption, request: req})
			return m, nil
		}
		req.optionSet = true
	}

	if p := a.Parameter; p != nil && !req.paramSet {
		if len(p.Choices) == 0 {
			if p.Default == "" {
				m.appendError(fmt.Errorf("%s needs a value: use \":run %s <value>\"", a.Label, a.Key))
				return m, nil
			}
			req.param = p.Default
			req.paramSet = true
		} else {
			title := p.Label
			if title == "" {
				title = "Parameter"
			}
			selected := p.Default
			if selected == "" {
				selected = p.Choices[0]
			}
			m.choice.Open(title+" for "+a.Label, p.Choices, selected, p.DestructiveChoices, choiceTag{stage: stageParam, request: req})
			return m, nil
		}
	}

	return m.dispatch(req)
}

func (m Model) dispatch(req runRequest) (tea.Model, tea.Cmd) {
	input := actiondto.DispatchInput{
		Key:        req.action.Key,
		Option:     req.option,
		Param:      req.param,
		Confirmed:  req.confirmed,
		Background: req.background,
	}
	background := req.background || req.action.Background
	ctx := context.Background()
	var sink runnerin.LogSink
	if !background {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		m.cancelBlocking = cancel
		m.blockingLabel = req.action.Label
		m.actionsView.SetBusy(true)
		sink = m.runner.QueueSink(req.action.Label)
		m.status = "running " + req.action.Label
	} else {
		sink = m.runner.QueueSink("")
		m.status = "starting " + req.action.Label + " in background"
	}
	actions := m.actions
	return m, func() tea.Msg {
		result, err := actions.Dispatch(ctx, input, sink)
		return dispatchDoneMsg{request: req, result: result, err: err}
	}
}

func (m Model) handleDispatchDone(msg dispatchDoneMsg) (tea.Model, tea.Cmd) {
	background := msg.result.Background || msg.request.background || msg.request.action.Background
	if !background {
		if m.cancelBlocking != nil {
			m.cancelBlocking()
		}
		m.cancelBlocking = nil
		m.blockingLabel = ""
		m.actionsView.SetBusy(false)
	}
	m.drainQueue()

	if errors.Is(msg.err, actionin.ErrConfirmationRequired) {
		cmd := msg.result.Command
		body := []string{
			"Action: " + cmd.Category + " :: " + cmd.Label,
			"$ " + strings.Join(cmd.Argv, " "),
		}
		if cmd.Param != "" {
			body = append(body, "Parameter: "+cmd.Param)
		}
		m.confirm.Open("This action is potentially destructive. Continue?", body, msg.request)
		m.status = "confirmation required"
		return m, nil
	}

	switch {
	case msg.err != nil:
		m.appendError(msg.err)
		m.status = "failed: " + msg.request.action.Label
	case background:
		m.appendInfo(fmt.Sprintf("Started %s in background (handle %s).", msg.request.action.Label, msg.result.HandleID))
		m.status = "background: " + msg.request.action.Label
	default:
		m.appendInfo(fmt.Sprintf("Finished %s (exit_code=%d).", msg.request.action.Label, msg.result.ExitCode))
		m.status = "done: " + msg.request.action.Label
	}
	m.runsView.SetHandles(m.runner.Handles(context.Background()))
	return m, m.historyView.Refresh()
}

func (m *Model) cancelBlockingRun() {
	if m.cancelBlocking == nil {
		m.status = "no active run"
		return
	}
	m.cancelBlocking()
	m.status = "cancelling " + m.blockingLabel
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.shuttingDown {
		return m, nil
	}
	m.shuttingDown = true
	m.status = "stopping runs…"
	if m.cancelBlocking != nil {
		m.cancelBlocking()
	}
	runner := m.runner
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return shutdownDoneMsg{err: runner.Shutdown(ctx)}
	}
}

// ─── queue ───────────────────────────────────────────────────────────────────

func (m *Model) drainQueue() {
	if m.runner == nil {
		return
	}
	lines := m.runner.Poll(context.Background())
	if len(lines) == 0 {
		return
	}
	out := make([]logsview.Line, 0, len(lines))
	finished := false
	for _, l := range lines {
		kind := logsview.KindOutput
		switch l.Kind {
		case "diagnostic":
			kind = logsview.KindDiagnostic
		case "exit":
			kind = logsview.KindExit
			finished = true
		}
		out = append(out, logsview.Line{Kind: kind, Text: l.Text})
	}
	m.logView.Append(out...)
	if finished || m.runsView.Running() > 0 {
		m.runsView.SetHandles(m.runner.Handles(context.Background()))
	}
}

func (m *Model) appendError(err error) {
	m.logView.Append(logsview.Line{Kind: logsview.KindError, Text: "[ERROR] " + err.Error()})
}

func (m *Model) appendInfo(text string) {
	m.logView.Append(logsview.Line{Kind: logsview.KindInfo, Text: text})
}

func (m *Model) renderSelfCheck(msg selfCheckDoneMsg) {
	if msg.err != nil {
		m.appendError(msg.err)
		return
	}
	lines := make([]logsview.Line, 0, len(msg.report.Checks)+len(msg.report.Failures)+1)
	for _, c := range msg.report.Checks {
		kind := logsview.KindOutput
		switch c.Status {
		case "FAIL":
			kind = logsview.KindError
		case "WARN":
			kind = logsview.KindDiagnostic
		}
		lines = append(lines, logsview.Line{Kind: kind, Text: c.Line})
	}
	if msg.report.OK {
		lines = append(lines, logsview.Line{Kind: logsview.KindExit, Text: "SELF-CHECK: OK"})
		m.status = "self-check ok"
	} else {
		lines = append(lines, logsview.Line{Kind: logsview.KindError, Text: "SELF-CHECK: FAIL"})
		for _, f := range msg.report.Failures {
			lines = append(lines, logsview.Line{Kind: logsview.KindError, Text: "- " + f})
		}
		m.status = "self-check failed"
	}
	m.logView.Append(lines...)
	m.activeTab = tabLog
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.confirm.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.confirm.View())
	case m.choice.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.choice.View())
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabActions:
		return m.actionsView.View()
	case tabRuns:
		return m.runsView.View()
	case tabHistory:
		return m.historyView.View()
	case tabPlugins:
		return m.pluginsView.View()
	case tabLog:
		return m.logView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == tabRuns {
			if n := m.runsView.Running(); n > 0 {
				label = fmt.Sprintf("%s (%d)", label, n)
			}
		}
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "devlaunch " + theme.Muted.Render(filepath.Base(m.rootPath)) + "  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.blockingLabel != "" {
		left = theme.Hot.Render("● "+m.blockingLabel) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  x:cancel  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "run", "bg":
		if len(parts) < 2 {
			m.status = "usage: " + parts[0] + " <key> [param]"
			return m, nil
		}
		a, err := m.actions.Get(context.Background(), parts[1])
		if err != nil {
			m.appendError(err)
			m.status = err.Error()
			return m, nil
		}
		req := runRequest{action: a, background: parts[0] == "bg"}
		if len(parts) >= 3 {
			req.param = strings.Join(parts[2:], " ")
			req.paramSet = true
		}
		return m.beginRun(req)

	case "cancel":
		if len(parts) < 2 {
			m.cancelBlockingRun()
			return m, nil
		}
		return m.Update(runsview.CancelRequestMsg{HandleID: m.resolveHandle(parts[1])})

	case "forget":
		if len(parts) < 2 {
			m.status = "usage: forget <handle>"
			return m, nil
		}
		return m.Update(runsview.ForgetRequestMsg{HandleID: m.resolveHandle(parts[1])})

	case "reload":
		m.activeTab = tabActions
		cmd := m.actionsView.Reload()
		return m, cmd

	case "self-check":
		if m.doctor == nil {
			m.status = "self-check not configured"
			return m, nil
		}
		doctor := m.doctor
		m.status = "running self-check"
		return m, func() tea.Msg {
			report, err := doctor.Report(context.Background())
			return selfCheckDoneMsg{report: report, err: err}
		}

	case "clear":
		m.logView.Clear()
		m.status = "log cleared"

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// resolveHandle expands the short id shown in the Runs table.
func (m Model) resolveHandle(prefix string) string {
	for _, h := range m.runner.Handles(context.Background()) {
		if strings.HasPrefix(h.ID, prefix) {
			return h.ID
		}
	}
	return prefix
}

func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabActions:
		return m.actionsView.Filtering()
	case tabPlugins:
		return m.pluginsView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.actionsView, _ = m.actionsView.Update(sz)
	m.runsView, _ = m.runsView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.pluginsView, _ = m.pluginsView.Update(sz)
	m.logView, _ = m.logView.Update(sz)
}

func (m Model) pollCmd() tea.Cmd {
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}
