package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vidyasagar/navjournal/internal/theme"
)

// PageViewport shows a page or the output of the last command. A page's
// line offset is its reading position, which the journal keeps.
type PageViewport struct {
	viewport   viewport.Model
	ready      bool
	contentSet bool
	isPage     bool
}

// NewPageViewport creates a viewport (dimensions set on first WindowSizeMsg).
func NewPageViewport() PageViewport {
	return PageViewport{}
}

// SetSize updates the viewport dimensions.
func (pv *PageViewport) SetSize(width, height int) {
	if !pv.ready {
		pv.viewport = viewport.New(width, height)
		pv.viewport.MouseWheelEnabled = true
		pv.viewport.MouseWheelDelta = 3
		pv.ready = true
		return
	}
	pv.viewport.Width = width
	pv.viewport.Height = height
}

// ShowPage displays page content scrolled to line.
func (pv *PageViewport) ShowPage(content string, line int) {
	if !pv.ready {
		return
	}
	pv.viewport.SetContent(content)
	pv.viewport.SetYOffset(line)
	pv.contentSet = true
	pv.isPage = true
}

// ShowText displays command output from the top.
func (pv *PageViewport) ShowText(text string) {
	if !pv.ready {
		return
	}
	pv.viewport.SetContent(text)
	pv.viewport.GotoTop()
	pv.contentSet = true
	pv.isPage = false
}

// IsPage reports whether a page, rather than command output, is shown.
func (pv *PageViewport) IsPage() bool { return pv.isPage }

// Offset returns the first visible line.
func (pv *PageViewport) Offset() int {
	if !pv.ready {
		return 0
	}
	return pv.viewport.YOffset
}

// Update forwards mouse messages to the viewport. Keys belong to the
// command bar.
func (pv *PageViewport) Update(msg tea.Msg) (*PageViewport, tea.Cmd) {
	if !pv.ready {
		return pv, nil
	}
	if _, ok := msg.(tea.KeyMsg); ok {
		return pv, nil
	}
	var cmd tea.Cmd
	pv.viewport, cmd = pv.viewport.Update(msg)
	return pv, cmd
}

// HalfPageDown scrolls down half a page.
func (pv *PageViewport) HalfPageDown() {
	if pv.ready {
		pv.viewport.HalfViewDown()
	}
}

// HalfPageUp scrolls up half a page.
func (pv *PageViewport) HalfPageUp() {
	if pv.ready {
		pv.viewport.HalfViewUp()
	}
}

// PageDown scrolls down a full page.
func (pv *PageViewport) PageDown() {
	if pv.ready {
		pv.viewport.ViewDown()
	}
}

// PageUp scrolls up a full page.
func (pv *PageViewport) PageUp() {
	if pv.ready {
		pv.viewport.ViewUp()
	}
}

// ScrollInfo returns "TOP", "BOT" or a percentage for pages, and nothing
// for command output.
func (pv *PageViewport) ScrollInfo() string {
	if !pv.ready || !pv.isPage {
		return ""
	}
	pct := pv.viewport.ScrollPercent()
	switch {
	case pct <= 0:
		return "TOP"
	case pct >= 1:
		return "BOT"
	default:
		return fmt.Sprintf("%d%%", int(pct*100))
	}
}

// View renders the viewport.
func (pv *PageViewport) View() string {
	if !pv.ready {
		return "\n  Initializing..."
	}
	if !pv.contentSet {
		return pv.renderWelcome()
	}
	return pv.viewport.View()
}

func (pv *PageViewport) renderWelcome() string {
	t := theme.Current
	keyStyle := theme.Style(t.LinkIndex)

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(theme.Style(t.Heading).Bold(true).Render("  navjournal"))
	sb.WriteString("\n")
	sb.WriteString(theme.Style(t.Dim).Render("  a terminal browser that remembers where you have been"))
	sb.WriteString("\n\n")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"open <url>", "Open a URL or search"},
		{"alt+← / alt+→", "Go back / forward"},
		{"pgup / pgdn", "Scroll the page"},
		{"alt+↑ / alt+↓", "Half page up / down"},
		{"list", "Show the journal"},
		{"help", "Show every command"},
		{"ctrl+c", "Save and quit"},
	}
	for _, s := range shortcuts {
		sb.WriteString(keyStyle.Render(fmt.Sprintf("  %-18s", s.key)))
		sb.WriteString(s.desc)
		sb.WriteString("\n")
	}
	return sb.String()
}
