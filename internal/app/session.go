package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidyasagar/navjournal/internal/browser"
	"github.com/vidyasagar/navjournal/internal/journal"
	"github.com/vidyasagar/navjournal/internal/storage"
)

// ErrQuit is returned by Exec when the user asks to leave.
var ErrQuit = errors.New("quit")

// Options configures a Session.
type Options struct {
	Config  *storage.Config
	DataDir string
	Logger  *zap.Logger
	Width   int
}

// Session is one interactive browsing session: a frame, its journal and
// the stores that outlive the process.
type Session struct {
	cfg     *storage.Config
	log     *zap.Logger
	db      *storage.DB
	travel  *storage.TravelLog
	history *storage.HistoryStore
	frame   *browser.Frame
	closed  bool
}

// Open starts a session and restores its travel log, if one was saved.
func Open(ctx context.Context, opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		def := storage.DefaultConfig()
		cfg = &def
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := storage.OpenDB(opts.DataDir)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		log:     logger,
		db:      db,
		travel:  storage.NewTravelLog(db),
		history: storage.NewHistoryStore(db),
	}

	s.frame, err = browser.NewFrame(ctx, browser.FrameConfig{
		UserAgent:    cfg.UserAgent,
		CacheSize:    cfg.PageCacheSize,
		JournalLimit: cfg.JournalLimit,
		Width:        opts.Width,
		Logger:       logger.Named("frame"),
		OnVisit:      s.recordVisit,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	s.frame.Registry().Register(notesType, newNotesPage)
	s.frame.Scope().Subscribe(func(st journal.State) {
		s.log.Debug("navigation state changed",
			zap.Bool("can_go_back", st.CanGoBack),
			zap.Bool("can_go_forward", st.CanGoForward))
	})

	s.restore()
	return s, nil
}

// Frame returns the session's browser frame.
func (s *Session) Frame() *browser.Frame { return s.frame }

// Exec runs one shell command and returns what should be printed.
func (s *Session) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "open", "o":
		if len(args) == 0 {
			return "", fmt.Errorf("usage: open <url|query>")
		}
		return s.after(s.frame.Open(strings.Join(args, " ")))

	case "frag":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: frag <name>")
		}
		return s.after(s.frame.Fragment(args[0]))

	case "back", "b":
		return s.after(s.frame.Back())

	case "forward", "f":
		return s.after(s.frame.Forward())

	case "go":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: go <entry id>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("parsing entry id %q: %w", args[0], err)
		}
		ok, err := s.frame.Go(id)
		if err != nil {
			return "", err
		}
		if !ok {
			return fmt.Sprintf("entry %d is not in the journal", id), nil
		}
		return s.status(), nil

	case "reload", "r":
		return s.after(s.frame.Reload())

	case "list", "ls":
		return renderJournal(s.frame.Scope()), nil

	case "history", "h":
		if len(args) == 2 && args[0] == "rm" {
			return s.removeVisit(args[1])
		}
		return s.listHistory(strings.Join(args, " "))

	case "clear-history":
		n := s.history.Count()
		if err := s.history.Clear(); err != nil {
			return "", fmt.Errorf("clearing history: %w", err)
		}
		return fmt.Sprintf("cleared %d visits", n), nil

	case "note", "n":
		return s.note(strings.Join(args, " "))

	case "sessions":
		names, err := s.travel.Sessions()
		if err != nil {
			return "", err
		}
		return renderSessions(names, s.cfg.Session, s.db.Path()), nil

	case "forget":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: forget <session>")
		}
		return s.forget(args[0])

	case "show":
		if s.frame.Current() == nil && s.frame.Scope().Journal().Current() != nil {
			if err := s.frame.Reload(); err != nil {
				return "", err
			}
		}
		return renderPage(s.frame.Current()), nil

	case "links":
		return renderLinks(s.frame.Current()), nil

	case "follow":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: follow <link number>")
		}
		return s.follow(args[0])

	case "scroll":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: scroll <line>")
		}
		return s.scroll(args[0])

	case "save":
		if err := s.Save(); err != nil {
			return "", err
		}
		return fmt.Sprintf("saved session %q", s.cfg.Session), nil

	case "help", "?":
		return helpText, nil

	case "quit", "q", "exit":
		return "", ErrQuit
	}
	return "", fmt.Errorf("unknown command %q (try help)", cmd)
}

// Save writes the journal to the travel log under the configured session.
func (s *Session) Save() error {
	var base *url.URL
	if s.cfg.Homepage != "" {
		if u, err := url.Parse(browser.NormalizeURL(s.cfg.Homepage)); err == nil {
			base = u
		}
	}

	var buf bytes.Buffer
	if err := s.frame.Scope().SaveHistory(&buf, base, true); err != nil {
		return err
	}
	baseURI := ""
	if base != nil {
		baseURI = base.String()
	}
	if err := s.travel.Save(s.cfg.Session, buf.Bytes(), baseURI); err != nil {
		return err
	}
	s.log.Info("session saved",
		zap.String("session", s.cfg.Session),
		zap.Int("entries", s.frame.Scope().Journal().Len()),
		zap.Int("bytes", buf.Len()))
	return nil
}

// Close saves the session and releases its resources. It is safe to call
// more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.Save()
	s.frame.Close()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Session) restore() {
	record, ok, err := s.travel.Load(s.cfg.Session)
	if err != nil {
		s.log.Warn("loading travel log", zap.String("session", s.cfg.Session), zap.Error(err))
		return
	}
	if !ok {
		return
	}
	rec, err := s.frame.Scope().LoadHistory(bytes.NewReader(record))
	if err != nil {
		// A corrupt record starts the session empty rather than failing it.
		s.log.Warn("restoring journal", zap.String("session", s.cfg.Session), zap.Error(err))
		return
	}
	base := ""
	if rec.BaseURI != nil {
		base = rec.BaseURI.String()
	}
	s.log.Info("journal restored",
		zap.String("session", s.cfg.Session),
		zap.String("base", base),
		zap.Int("entries", s.frame.Scope().Journal().Len()))
}

func (s *Session) recordVisit(u, title string) {
	if err := s.history.Add(u, title); err != nil {
		s.log.Warn("recording visit", zap.String("url", u), zap.Error(err))
	}
}

func (s *Session) after(err error) (string, error) {
	if err != nil {
		return "", err
	}
	return s.status(), nil
}

func (s *Session) status() string {
	cur := s.frame.Scope().Journal().Current()
	if cur == nil {
		return ""
	}
	return renderStatus(cur, s.frame.Scope())
}

func (s *Session) follow(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return "", fmt.Errorf("parsing link number %q: %w", arg, err)
	}
	page := s.frame.Current()
	if page == nil {
		return "", fmt.Errorf("no page loaded")
	}
	link, ok := page.Link(n)
	if !ok {
		return "", fmt.Errorf("page has no link %d", n)
	}
	return s.after(s.frame.Open(link.URL))
}

func (s *Session) scroll(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid line %q", arg)
	}
	page := s.frame.Current()
	if page == nil {
		return "", fmt.Errorf("no page loaded")
	}
	page.Scroll = n
	return fmt.Sprintf("at line %d", n), nil
}

func (s *Session) removeVisit(arg string) (string, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return "", fmt.Errorf("parsing visit id %q: %w", arg, err)
	}
	if !s.history.Remove(id) {
		return fmt.Sprintf("no visit %d", id), nil
	}
	return fmt.Sprintf("removed visit %d", id), nil
}

// note appends text to the displayed notes page, or opens a new one.
func (s *Session) note(text string) (string, error) {
	if np, ok := s.frame.Content().(*notesPage); ok {
		if text == "" {
			return renderPage(s.frame.Current()), nil
		}
		np.lines = append(np.lines, text)
		if _, err := s.after(s.frame.Reload()); err != nil {
			return "", err
		}
		return renderPage(s.frame.Current()), nil
	}

	pf, err := s.frame.Registry().New(notesType, uuid.New())
	if err != nil {
		return "", err
	}
	if text != "" {
		pf.(*notesPage).lines = []string{text}
	}
	return s.after(s.frame.OpenPageFunction(pf, notesType))
}

func (s *Session) forget(name string) (string, error) {
	if name == s.cfg.Session {
		return "", fmt.Errorf("session %q is in use", name)
	}
	ok, err := s.travel.Delete(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("no session %q", name), nil
	}
	return fmt.Sprintf("forgot session %q", name), nil
}

func (s *Session) listHistory(query string) (string, error) {
	var (
		entries []storage.HistoryEntry
		err     error
	)
	if query == "" {
		entries, err = s.history.List(20)
	} else {
		entries, err = s.history.Search(query)
	}
	if err != nil {
		return "", err
	}
	return renderHistory(entries), nil
}

// commandNames are offered as completions by the terminal front end.
var commandNames = []string{
	"back", "clear-history", "follow", "forget", "forward", "frag", "go",
	"help", "history", "links", "list", "note", "open", "quit", "reload",
	"save", "scroll", "sessions", "show",
}

const helpText = `open <url|query>  navigate to a page
frag <name>       navigate to an anchor of the current page
back, forward     move through the journal
go <id>           jump to a journal entry
reload            fetch the current entry again
list              show the journal
history [query]   show or search visited pages
history rm <id>   delete one visit
clear-history     delete every visit
note [text]       open a notes page, or add a line to it
sessions          list saved travel logs
forget <session>  delete a saved travel log
show, links       print the page or its links
follow <n>        open link n
scroll <line>     remember a reading position
save              write the journal to the travel log
quit              save and exit`
