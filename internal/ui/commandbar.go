package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/navjournal/internal/theme"
)

// CommandBar is the always-focused shell prompt at the bottom of the
// screen. Up and down walk through submitted commands.
type CommandBar struct {
	input      textinput.Model
	width      int
	history    []string
	historyPos int
}

// NewCommandBar creates a focused command bar that completes the given
// command names.
func NewCommandBar(commands []string) CommandBar {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Prompt = "navjournal> "
	ti.Placeholder = "open <url> · back · forward · help"
	ti.ShowSuggestions = len(commands) > 0
	ti.SetSuggestions(commands)
	ti.Focus()

	return CommandBar{
		input:      ti,
		historyPos: -1,
	}
}

// SetWidth sets the command bar width.
func (c *CommandBar) SetWidth(w int) {
	c.width = w
	c.input.Width = w - lipgloss.Width(c.input.Prompt) - 1
}

// Value returns the text typed so far.
func (c *CommandBar) Value() string {
	return c.input.Value()
}

// SetValue replaces the typed text.
func (c *CommandBar) SetValue(val string) {
	c.input.SetValue(val)
	c.input.CursorEnd()
}

// Submit returns the typed command, records it and clears the prompt.
func (c *CommandBar) Submit() string {
	val := strings.TrimSpace(c.input.Value())
	if val != "" && (len(c.history) == 0 || c.history[len(c.history)-1] != val) {
		c.history = append(c.history, val)
	}
	c.historyPos = -1
	c.input.Reset()
	return val
}

// Update processes key messages for the command bar.
func (c *CommandBar) Update(msg tea.Msg) (*CommandBar, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyUp:
			if len(c.history) > 0 {
				if c.historyPos < len(c.history)-1 {
					c.historyPos++
				}
				c.SetValue(c.history[len(c.history)-1-c.historyPos])
			}
			return c, nil
		case tea.KeyDown:
			switch {
			case c.historyPos > 0:
				c.historyPos--
				c.SetValue(c.history[len(c.history)-1-c.historyPos])
			case c.historyPos == 0:
				c.historyPos = -1
				c.input.Reset()
			}
			return c, nil
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the command bar.
func (c *CommandBar) View() string {
	t := theme.Current
	c.input.PromptStyle = theme.Style(t.Heading).Bold(true)
	c.input.PlaceholderStyle = theme.Style(t.Dim)
	return lipgloss.NewStyle().Width(c.width).Render(c.input.View())
}
