package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/navjournal/internal/theme"
)

// StatusBar shows the current journal entry and whether back and forward
// are available.
type StatusBar struct {
	entryID    int
	title      string
	canBack    bool
	canForward bool
	busy       bool
	scrollInfo string
	message    string
	isError    bool
	width      int
}

// NewStatusBar creates an empty status bar.
func NewStatusBar() StatusBar {
	return StatusBar{}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetEntry shows the journal entry being displayed. An id of 0 clears it.
func (s *StatusBar) SetEntry(id int, title string) {
	s.entryID = id
	s.title = title
}

// SetNavigation updates the back and forward arrows.
func (s *StatusBar) SetNavigation(canBack, canForward bool) {
	s.canBack = canBack
	s.canForward = canForward
}

// SetBusy shows a loading indicator while a command runs.
func (s *StatusBar) SetBusy(busy bool) {
	s.busy = busy
}

// SetScrollInfo sets the scroll position string (e.g. "42%", "TOP", "BOT").
func (s *StatusBar) SetScrollInfo(info string) {
	s.scrollInfo = info
}

// SetMessage sets a one-line result. Errors are shown in the error color.
func (s *StatusBar) SetMessage(msg string, isError bool) {
	s.message = msg
	s.isError = isError
}

// CanGoBack reports what the back arrow shows.
func (s *StatusBar) CanGoBack() bool { return s.canBack }

// CanGoForward reports what the forward arrow shows.
func (s *StatusBar) CanGoForward() bool { return s.canForward }

// View renders the status bar.
func (s *StatusBar) View() string {
	t := theme.Current

	arrow := func(glyph string, on bool) string {
		if on {
			return theme.Style(t.Current).Bold(true).Render(glyph)
		}
		return theme.Style(t.Dim).Render(glyph)
	}
	nav := lipgloss.NewStyle().Padding(0, 1).Render(arrow("←", s.canBack) + " " + arrow("→", s.canForward))

	var left string
	switch {
	case s.busy:
		left = theme.Style(t.Heading).Bold(true).Render("loading…")
	case s.message != "" && s.isError:
		left = theme.Style(t.Error).Render(s.message)
	case s.entryID != 0:
		left = theme.Style(t.Dim).Render(fmt.Sprintf("[%d] ", s.entryID)) + theme.Style(t.Entry).Render(s.title)
	default:
		left = theme.Style(t.Dim).Render("journal is empty")
	}

	var right string
	if s.scrollInfo != "" {
		right = lipgloss.NewStyle().Padding(0, 1).Render(theme.Style(t.LinkIndex).Render(s.scrollInfo))
	}

	room := s.width - lipgloss.Width(nav) - lipgloss.Width(right)
	if room < 0 {
		room = 0
	}
	left = lipgloss.NewStyle().MaxWidth(room).Render(left)
	spacer := fmt.Sprintf("%*s", max(0, room-lipgloss.Width(left)), "")
	return nav + left + spacer + right
}
