package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devlaunch/internal/ui/theme"
)

// ConfirmResultMsg carries the answer of a confirmation dialog. Tag echoes
// the value passed to Open so the caller can match answers to requests.
type ConfirmResultMsg struct {
	Tag       any
	Confirmed bool
}

var confirmStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.Red).
	Background(theme.Mantle).
	Foreground(theme.Text).
	Padding(1, 2)

// Confirm is a yes/no dialog. Only an explicit "y" confirms.
type Confirm struct {
	visible bool
	title   string
	body    []string
	tag     any
}

func NewConfirm() Confirm {
	return Confirm{}
}

func (c Confirm) Visible() bool { return c.visible }

func (c *Confirm) Open(title string, body []string, tag any) {
	c.visible = true
	c.title = title
	c.body = body
	c.tag = tag
}

func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	if !c.visible {
		return c, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	switch strings.ToLower(key.String()) {
	case "y":
		return c.answer(true)
	case "n", "esc", "q", "enter":
		return c.answer(false)
	}
	return c, nil
}

func (c Confirm) answer(yes bool) (Confirm, tea.Cmd) {
	tag := c.tag
	c.visible = false
	c.tag = nil
	return c, func() tea.Msg { return ConfirmResultMsg{Tag: tag, Confirmed: yes} }
}

func (c Confirm) View() string {
	if !c.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Fail.Render(c.title) + "\n\n")
	for _, line := range c.body {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("y: confirm   n/esc: cancel"))
	return confirmStyle.Render(sb.String())
}
