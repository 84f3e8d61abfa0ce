package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/vidyasagar/navjournal/internal/browser"
	"github.com/vidyasagar/navjournal/internal/journal"
	"github.com/vidyasagar/navjournal/internal/storage"
	"github.com/vidyasagar/navjournal/internal/theme"
)

// renderJournal lists every journal entry, oldest first. The current entry
// is marked with an arrow and entries the user cannot reach are dimmed.
func renderJournal(scope *journal.Scope) string {
	t := theme.Current
	if !scope.HasJournal() || scope.Journal().Len() == 0 {
		return theme.Style(t.Dim).Render("journal is empty")
	}
	j := scope.Journal()

	var b strings.Builder
	b.WriteString(theme.Style(t.Heading).Bold(true).Render("Journal"))
	b.WriteString("\n")
	for i, e := range j.Entries() {
		marker := "  "
		style := theme.Style(t.Entry)
		switch {
		case i == j.CurrentIndex():
			marker = "→ "
			style = theme.Style(t.Current).Bold(true)
		case !j.IsNavigable(e):
			style = theme.Style(t.Dim)
		}
		id := theme.Style(t.Dim).Render(fmt.Sprintf("%4d", e.ID()))
		fmt.Fprintf(&b, "%s%s  %s\n", marker, id, style.Render(entryLabel(e)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderStatus is the one-line summary printed after each navigation.
func renderStatus(cur *journal.Entry, scope *journal.Scope) string {
	t := theme.Current
	arrows := ""
	if scope.CanGoBack() {
		arrows += "←"
	}
	if scope.CanGoForward() {
		arrows += "→"
	}
	return fmt.Sprintf("%s %s %s",
		theme.Style(t.Dim).Render(fmt.Sprintf("[%d]", cur.ID())),
		theme.Style(t.Current).Render(entryLabel(cur)),
		theme.Style(t.Dim).Render(arrows))
}

func renderPage(page *browser.Page) string {
	if page == nil {
		return theme.Style(theme.Current.Dim).Render("no page loaded")
	}
	lines := strings.Split(page.Content, "\n")
	if page.Scroll > 0 && page.Scroll < len(lines) {
		lines = lines[page.Scroll:]
	}
	return strings.Join(lines, "\n")
}

func renderLinks(page *browser.Page) string {
	t := theme.Current
	if page == nil || len(page.Links) == 0 {
		return theme.Style(t.Dim).Render("no links")
	}
	var b strings.Builder
	for _, l := range page.Links {
		fmt.Fprintf(&b, "%s %s\n     %s\n",
			theme.Style(t.LinkIndex).Render(fmt.Sprintf("[%d]", l.Index)),
			l.Text,
			theme.Style(t.Dim).Render(l.URL))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHistory(entries []storage.HistoryEntry) string {
	t := theme.Current
	if len(entries) == 0 {
		return theme.Style(t.Dim).Render("no history")
	}
	var b strings.Builder
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.URL
		}
		fmt.Fprintf(&b, "%s %-8s %s\n              %s\n",
			theme.Style(t.LinkIndex).Render(fmt.Sprintf("%4d", e.ID)),
			theme.Style(t.Dim).Render(timeAgo(e.VisitedAt)),
			title,
			theme.Style(t.Dim).Render(e.URL))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderSessions lists saved travel logs, marking the active one.
func renderSessions(names []string, active, path string) string {
	t := theme.Current
	var b strings.Builder
	if len(names) == 0 {
		b.WriteString(theme.Style(t.Dim).Render("no saved sessions"))
		b.WriteString("\n")
	}
	for _, name := range names {
		marker, style := "  ", theme.Style(t.Entry)
		if name == active {
			marker, style = "→ ", theme.Style(t.Current).Bold(true)
		}
		fmt.Fprintf(&b, "%s%s\n", marker, style.Render(name))
	}
	b.WriteString(theme.Style(t.Dim).Render("stored in " + path))
	return b.String()
}

func entryLabel(e *journal.Entry) string {
	label := e.Name
	if label == "" && e.Source != nil {
		label = e.Source.String()
	}
	if label == "" {
		label = e.Kind().String()
	}
	if e.Type == journal.UILess {
		label += " (hidden)"
	}
	return label
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
