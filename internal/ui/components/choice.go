package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devlaunch/internal/ui/theme"
)

// ChoiceResultMsg is emitted when a choice is picked or the picker is
// dismissed. Value is empty when Cancelled is set.
type ChoiceResultMsg struct {
	Tag       any
	Value     string
	Cancelled bool
}

var choiceStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.Lavender).
	Background(theme.Mantle).
	Foreground(theme.Text).
	Padding(0, 2)

// Choice is a single-select picker over a short list of values.
type Choice struct {
	visible bool
	title   string
	items   []string
	marked  map[string]bool
	cursor  int
	tag     any
}

func NewChoice() Choice {
	return Choice{}
}

func (c Choice) Visible() bool { return c.visible }

// Open shows items with the cursor on selected. Items in marked are
// rendered as dangerous.
func (c *Choice) Open(title string, items []string, selected string, marked []string, tag any) {
	c.visible = true
	c.title = title
	c.items = items
	c.tag = tag
	c.cursor = 0
	c.marked = map[string]bool{}
	for _, m := range marked {
		c.marked[m] = true
	}
	for i, item := range items {
		if item == selected {
			c.cursor = i
		}
	}
}

func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	if !c.visible {
		return c, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	switch key.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.items)-1 {
			c.cursor++
		}
	case "enter":
		if len(c.items) == 0 {
			return c.finish(ChoiceResultMsg{Cancelled: true})
		}
		return c.finish(ChoiceResultMsg{Value: c.items[c.cursor]})
	case "esc", "q":
		return c.finish(ChoiceResultMsg{Cancelled: true})
	}
	return c, nil
}

func (c Choice) finish(result ChoiceResultMsg) (Choice, tea.Cmd) {
	result.Tag = c.tag
	c.visible = false
	c.tag = nil
	return c, func() tea.Msg { return result }
}

func (c Choice) View() string {
	if !c.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(c.title) + "\n\n")
	for i, item := range c.items {
		label := item
		if c.marked[item] {
			label = theme.Fail.Render(item + " !")
		}
		if i == c.cursor {
			sb.WriteString(theme.Hot.Render("› ") + label + "\n")
		} else {
			sb.WriteString("  " + label + "\n")
		}
	}
	sb.WriteString("\n" + theme.Muted.Render("↑/↓: move  enter: select  esc: cancel"))
	return choiceStyle.Render(sb.String())
}
