package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vidyasagar/navjournal/internal/browser"
	"github.com/vidyasagar/navjournal/internal/journal"
	"github.com/vidyasagar/navjournal/internal/theme"
)

// notesType is the registry name of the notes page function.
const notesType = "notes"

// notesPage is a scratch pad shown in the frame like any other page. It is
// journaled by type, so back and forward rebuild it from its saved lines.
type notesPage struct {
	id       uuid.UUID
	lines    []string
	bindings []journal.ReturnBinding
}

func newNotesPage(id uuid.UUID) journal.PageFunction {
	return &notesPage{id: id}
}

func (n *notesPage) PageFunctionID() uuid.UUID                      { return n.id }
func (n *notesPage) ParentPageFunctionID() uuid.UUID                { return uuid.Nil }
func (n *notesPage) ReturnBindings() []journal.ReturnBinding        { return n.bindings }
func (n *notesPage) AttachReturnBindings(b []journal.ReturnBinding) { n.bindings = b }

// View implements browser.PageView.
func (n *notesPage) View() *browser.Page {
	t := theme.Current
	var b strings.Builder
	if len(n.lines) == 0 {
		b.WriteString(theme.Style(t.Dim).Render("no notes yet (note <text> adds one)"))
	}
	for i, line := range n.lines {
		fmt.Fprintf(&b, "%s %s\n", theme.Style(t.LinkIndex).Render(fmt.Sprintf("%2d.", i+1)), line)
	}
	return &browser.Page{
		Title:   fmt.Sprintf("Notes (%d)", len(n.lines)),
		Content: strings.TrimRight(b.String(), "\n"),
	}
}

// SaveState implements journal.StateSaver.
func (n *notesPage) SaveState() ([]byte, error) {
	return json.Marshal(n.lines)
}

// RestoreState implements journal.StateRestorer.
func (n *notesPage) RestoreState(state []byte) error {
	var lines []string
	if err := json.Unmarshal(state, &lines); err != nil {
		return fmt.Errorf("parsing notes: %w", err)
	}
	n.lines = lines
	return nil
}
