package app

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/navjournal/internal/journal"
	"github.com/vidyasagar/navjournal/internal/ui"
)

// Model is the terminal front end of a Session. Every line submitted in
// the command bar runs through Session.Exec, one at a time. The status bar
// follows the journal's back/forward state.
type Model struct {
	session *Session

	commandBar ui.CommandBar
	viewport   ui.PageViewport
	statusBar  ui.StatusBar

	states      chan journal.State
	unsubscribe func()

	busy     bool
	width    int
	height   int
	ready    bool
	startURL string
}

// execMsg carries the result of one command back to the UI goroutine.
type execMsg struct {
	out     string
	err     error
	entryID int
	title   string
	page    *pageView
}

type pageView struct {
	content string
	line    int
}

// navStateMsg is a back/forward state change published by the scope.
type navStateMsg journal.State

// NewModel creates the front end for s. A non-empty startURL is opened
// once the program starts.
func NewModel(s *Session, startURL string) Model {
	m := Model{
		session:    s,
		commandBar: ui.NewCommandBar(commandNames),
		viewport:   ui.NewPageViewport(),
		statusBar:  ui.NewStatusBar(),
		states:     make(chan journal.State, 1),
		startURL:   startURL,
	}

	// Only the latest state matters; a stale one is dropped.
	states := m.states
	scope := s.Frame().Scope()
	m.unsubscribe = scope.Subscribe(func(st journal.State) {
		select {
		case <-states:
		default:
		}
		select {
		case states <- st:
		default:
		}
	})
	m.statusBar.SetNavigation(scope.CanGoBack(), scope.CanGoForward())
	if scope.HasJournal() {
		if cur := scope.Journal().Current(); cur != nil {
			m.statusBar.SetEntry(cur.ID(), entryLabel(cur))
		}
	}
	if startURL != "" {
		m.busy = true
		m.statusBar.SetBusy(true)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForState(m.states)}
	if m.startURL != "" {
		cmds = append(cmds, m.exec("open "+m.startURL))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case navStateMsg:
		m.statusBar.SetNavigation(msg.CanGoBack, msg.CanGoForward)
		return m, waitForState(m.states)

	case execMsg:
		return m.handleResult(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	_, cmd = m.viewport.Update(msg)
	m.statusBar.SetScrollInfo(m.viewport.ScrollInfo())
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading navjournal..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.statusBar.View(),
		m.commandBar.View(),
	)
}

func (m *Model) layout() {
	m.statusBar.SetWidth(m.width)
	m.commandBar.SetWidth(m.width)

	statusBarHeight := 1
	commandBarHeight := 1
	viewportHeight := m.height - statusBarHeight - commandBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.SetSize(m.width, viewportHeight)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "enter":
		if m.busy {
			return m, nil
		}
		line := m.commandBar.Submit()
		if line == "" {
			return m, nil
		}
		return m.run(line)
	case "alt+left":
		return m.run("back")
	case "alt+right":
		return m.run("forward")
	case "pgdown":
		m.viewport.PageDown()
	case "pgup":
		m.viewport.PageUp()
	case "alt+down":
		m.viewport.HalfPageDown()
	case "alt+up":
		m.viewport.HalfPageUp()
	default:
		_, cmd := m.commandBar.Update(msg)
		return m, cmd
	}
	m.statusBar.SetScrollInfo(m.viewport.ScrollInfo())
	return m, nil
}

// run starts line unless another command is still running. The reading
// position of the displayed page is recorded first so the journal keeps it.
func (m Model) run(line string) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if m.viewport.IsPage() {
		if page := m.session.Frame().Current(); page != nil {
			page.Scroll = m.viewport.Offset()
		}
	}
	m.busy = true
	m.statusBar.SetBusy(true)
	return m, m.exec(line)
}

func (m Model) exec(line string) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		before := s.Frame().Current()
		out, err := s.Exec(line)
		msg := execMsg{out: out, err: err}

		scope := s.Frame().Scope()
		if scope.HasJournal() {
			if cur := scope.Journal().Current(); cur != nil {
				msg.entryID, msg.title = cur.ID(), entryLabel(cur)
			}
		}
		page := s.Frame().Current()
		if err == nil && page != nil && (page != before || isShow(line)) {
			msg.page = &pageView{content: page.Content, line: page.Scroll}
		}
		return msg
	}
}

func (m Model) handleResult(msg execMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.statusBar.SetBusy(false)
	if errors.Is(msg.err, ErrQuit) {
		return m.quit()
	}

	m.statusBar.SetEntry(msg.entryID, msg.title)
	if msg.err != nil {
		m.statusBar.SetMessage(msg.err.Error(), true)
	} else {
		m.statusBar.SetMessage("", false)
	}
	switch {
	case msg.page != nil:
		m.viewport.ShowPage(msg.page.content, msg.page.line)
	case msg.out != "":
		m.viewport.ShowText(msg.out)
	}
	m.statusBar.SetScrollInfo(m.viewport.ScrollInfo())
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}

func waitForState(ch <-chan journal.State) tea.Cmd {
	return func() tea.Msg {
		return navStateMsg(<-ch)
	}
}

func isShow(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && fields[0] == "show"
}
