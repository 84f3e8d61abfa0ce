package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/vidyasagar/navjournal/internal/journal"
)

// ErrClosed is returned by navigation on a closed frame.
var ErrClosed = errors.New("browser: frame is closed")

// FrameConfig holds the tunables of a Frame.
type FrameConfig struct {
	UserAgent    string
	CacheSize    int // rendered pages kept for instant back/forward
	JournalLimit int
	Width        int
	Timeout      time.Duration
	Logger       *zap.Logger

	// OnVisit, if set, is called for every page shown by a new navigation.
	OnVisit func(url, title string)
}

// PageView is implemented by page functions the frame can display.
type PageView interface {
	View() *Page
}

// Frame is a top-level browser window. It displays one Page at a time and
// owns the journal scope that records where it has been.
type Frame struct {
	id       uuid.UUID
	fetcher  *Fetcher
	cache    *lru.Cache[string, *Page]
	scope    *journal.Scope
	registry *journal.Registry
	log      *zap.Logger
	cfg      FrameConfig

	// gone holds documents the origin reported missing. Their entries are
	// skipped by back and forward.
	gone map[string]bool

	ctx       context.Context
	current   *Page
	content   any
	contentID uint32
	lastID    uint32
	closed    bool
}

// NewFrame creates a frame. ctx bounds every fetch the frame makes.
func NewFrame(ctx context.Context, cfg FrameConfig) (*Frame, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	f := &Frame{
		id:       uuid.New(),
		fetcher:  NewFetcher(cfg.UserAgent),
		registry: journal.NewRegistry(),
		log:      cfg.Logger,
		cfg:      cfg,
		gone:     make(map[string]bool),
		ctx:      ctx,
	}
	cache, err := lru.NewWithEvict[string, *Page](cfg.CacheSize, func(_ string, page *Page) {
		f.release(page)
	})
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}
	f.cache = cache
	f.scope = journal.NewScope(f,
		journal.WithLogger(cfg.Logger.Named("journal")),
		journal.WithLimit(cfg.JournalLimit),
	)
	return f, nil
}

// Scope returns the frame's journal scope.
func (f *Frame) Scope() *journal.Scope { return f.scope }

// Registry returns the page-function registry used to resume wizard pages.
func (f *Frame) Registry() *journal.Registry { return f.registry }

// Current returns the displayed page, or nil.
func (f *Frame) Current() *Page { return f.current }

// Close stops the frame from navigating.
func (f *Frame) Close() { f.closed = true }

// Open navigates to raw, which may be a URL, a bare domain or a search
// query. Navigating to the displayed document with a different fragment
// records a fragment navigation instead of fetching again.
func (f *Frame) Open(raw string) error {
	if err := f.VerifyContextAndObjectState(); err != nil {
		return err
	}
	u, err := url.Parse(NormalizeURL(raw))
	if err != nil {
		return fmt.Errorf("parsing %q: %w", raw, err)
	}
	if f.current != nil && u.Fragment != "" && sameDocument(f.current.URL, u) {
		return f.Fragment(u.Fragment)
	}

	if err := f.scope.SaveCurrentState(); err != nil {
		f.log.Warn("saving page state", zap.Error(err))
	}
	page, err := f.load(u, journal.ModeNew)
	if err != nil {
		return err
	}

	// The entry holds the page while it stays in the cache.
	f.lastID++
	g := journal.NewGroupState(f.id, f.lastID)
	e := journal.NewKeepAliveEntry(g, u, page)
	e.Name = page.Title
	e.MarkExit()

	f.show(page, page, f.lastID)
	if err := f.scope.Navigated(e, page); err != nil {
		return err
	}
	if f.cfg.OnVisit != nil {
		f.cfg.OnVisit(u.String(), page.Title)
	}
	return nil
}

// OpenPageFunction shows a page function as a new navigation. It is
// journaled by typeName so it can be rebuilt from the registry later.
func (f *Frame) OpenPageFunction(pf journal.PageFunction, typeName string) error {
	if err := f.VerifyContextAndObjectState(); err != nil {
		return err
	}
	view, ok := pf.(PageView)
	if !ok {
		return fmt.Errorf("%w: page function %T has no view", journal.ErrInvalidArgument, pf)
	}
	if err := f.scope.SaveCurrentState(); err != nil {
		f.log.Warn("saving page state", zap.Error(err))
	}

	page := view.View()
	f.lastID++
	e := journal.NewPageFunctionTypeEntry(journal.NewGroupState(f.id, f.lastID), pf, typeName)
	e.Name = page.Title
	e.MarkExit()

	f.show(pf, page, f.lastID)
	return f.scope.Navigated(e, pf)
}

// Fragment records a navigation to a named anchor of the displayed page.
// The new entry joins the page's group and becomes its exit entry.
func (f *Frame) Fragment(name string) error {
	if err := f.VerifyContextAndObjectState(); err != nil {
		return err
	}
	cur := f.scope.Journal().Current()
	if f.current == nil || f.current.URL == nil || cur == nil {
		return fmt.Errorf("%w: no document to navigate within", journal.ErrInvalidOperation)
	}
	if err := f.scope.SaveCurrentState(); err != nil {
		f.log.Warn("saving page state", zap.Error(err))
	}

	u := *f.current.URL
	u.Fragment = name
	e := journal.NewURIEntry(cur.Group(), &u)
	e.Name = f.current.Title + " #" + name
	e.MarkExit()

	at := *f.current
	at.URL = &u
	f.show(&at, &at, f.contentID)
	return f.scope.Navigated(e, &at)
}

// Reload shows the current journal entry again without moving the
// journal. Documents bypass the page cache and every HTTP cache. It is also
// how a restored journal gets its first page on screen.
func (f *Frame) Reload() error {
	if err := f.VerifyContextAndObjectState(); err != nil {
		return err
	}
	cur := f.scope.Journal().Current()
	if cur == nil {
		return fmt.Errorf("%w: nothing to reload", journal.ErrInvalidOperation)
	}
	if f.content != nil {
		if err := f.scope.SaveCurrentState(); err != nil {
			f.log.Warn("saving page state", zap.Error(err))
		}
	}
	if cur.Kind() == journal.KindKeepAlive {
		cur.Downgrade()
	}
	ok, err := cur.Navigate(f, journal.ModeRefresh)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("reloading %s: canceled", cur)
	}
	return nil
}

// Back goes back one entry.
func (f *Frame) Back() error { return f.scope.GoBack() }

// Forward goes forward one entry.
func (f *Frame) Forward() error { return f.scope.GoForward() }

// Go navigates to the journal entry with the given id.
func (f *Frame) Go(id int) (bool, error) { return f.scope.NavigateToEntryID(id) }

// NavigationService implements journal.Host.
func (f *Frame) NavigationService() journal.NavigationService { return f }

// FindNavigationService implements journal.Host. A Frame has no children.
func (f *Frame) FindNavigationService(id uuid.UUID) (journal.NavigationService, bool) {
	if id != f.id {
		return nil, false
	}
	return f, true
}

// VerifyContextAndObjectState implements journal.Host.
func (f *Frame) VerifyContextAndObjectState() error {
	if f.closed {
		return ErrClosed
	}
	return f.ctx.Err()
}

// IsEntryNavigable implements journal.EntryFilter. A frame has no child
// frames, so only the entry type and documents the origin reported missing
// matter.
func (f *Frame) IsEntryNavigable(e *journal.Entry) bool {
	if e.Type != journal.Navigable {
		return false
	}
	return e.Source == nil || !f.gone[documentKey(e.Source)]
}

// OnJournalAvailable implements journal.Host. A restored journal brings
// the frame identity it was recorded under, and its content ids must not
// be handed out again.
func (f *Frame) OnJournalAvailable() {
	j := f.scope.Journal()
	if owner := j.Owner(); owner != uuid.Nil {
		f.id = owner
	}
	for _, e := range j.Entries() {
		f.lastID = max(f.lastID, e.ContentID())
	}
	f.log.Debug("journal available", zap.Int("entries", j.Len()))
}

// ID implements journal.NavigationService.
func (f *Frame) ID() uuid.UUID { return f.id }

// ContentID implements journal.NavigationService.
func (f *Frame) ContentID() uint32 { return f.contentID }

// Content implements journal.NavigationService.
func (f *Frame) Content() any {
	return f.content
}

// NavigateToURI implements journal.NavigationService.
func (f *Frame) NavigateToURI(u *url.URL, e *journal.Entry, mode journal.Mode) (bool, error) {
	page, err := f.load(u, mode)
	if err != nil {
		return false, err
	}
	if page.URL.Fragment != u.Fragment {
		copied := *page
		fragURL := *page.URL
		fragURL.Fragment = u.Fragment
		copied.URL = &fragURL
		page = &copied
	}
	if err := e.RestoreState(page); err != nil {
		return false, err
	}
	f.show(page, page, f.adoptContentID(e))
	f.log.Debug("journal navigation", zap.Stringer("mode", mode), zap.String("url", u.String()))
	return true, nil
}

// NavigateToContent implements journal.NavigationService.
func (f *Frame) NavigateToContent(content any, e *journal.Entry, mode journal.Mode) (bool, error) {
	var page *Page
	switch c := content.(type) {
	case *Page:
		page = c
	case PageView:
		page = c.View()
	}
	if page == nil {
		return false, fmt.Errorf("%w: frame cannot display %T", journal.ErrInvalidArgument, content)
	}
	if err := e.RestoreState(content); err != nil {
		return false, err
	}
	f.show(content, page, f.adoptContentID(e))
	f.log.Debug("journal navigation", zap.Stringer("mode", mode), zap.Stringer("entry", e))
	return true, nil
}

// ResolvePageFunction implements journal.NavigationService.
func (f *Frame) ResolvePageFunction(ref journal.PageFunctionRef) (journal.PageFunction, error) {
	if ref.TypeName == "" {
		return nil, fmt.Errorf("page function %s: markup page functions are not supported", ref.ID)
	}
	return f.registry.New(ref.TypeName, ref.ID)
}

// load returns the rendered page for u, from cache unless mode is a
// refresh.
func (f *Frame) load(u *url.URL, mode journal.Mode) (*Page, error) {
	key := documentKey(u)
	if mode == journal.ModeRefresh {
		f.cache.Remove(key)
	} else if page, ok := f.cache.Get(key); ok {
		return page, nil
	}

	ctx, cancel := context.WithTimeout(f.ctx, f.cfg.Timeout)
	defer cancel()

	result, err := f.fetcher.FetchWithContext(ctx, u, mode)
	f.track(key, err)
	if err != nil {
		return nil, err
	}
	if result.Truncated {
		f.log.Warn("document truncated", zap.String("url", key), zap.Int("bytes", len(result.Body)))
	}
	article, err := Extract(result)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", key, err)
	}

	final, err := url.Parse(result.FinalURL)
	if err != nil {
		final = u
	}
	page := NewPage(final, Render(article, f.cfg.Width))
	if page.Title == "" {
		page.Title = final.String()
	}
	f.cache.Add(key, page)
	return page, nil
}

// track records whether the origin reported key missing. Observers learn
// about entries that stopped or started being navigable.
func (f *Frame) track(key string, err error) {
	var se *StatusError
	missing := errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusGone)
	if f.gone[key] == missing || (err != nil && !missing) {
		return
	}
	if missing {
		f.gone[key] = true
	} else {
		delete(f.gone, key)
	}
	if f.scope.HasJournal() {
		f.scope.Journal().Refresh()
	}
}

// release turns keep-alive entries holding page into URI entries once the
// page leaves the cache. Their form state is kept.
func (f *Frame) release(page *Page) {
	if !f.scope.HasJournal() {
		return
	}
	for _, e := range f.scope.Journal().Entries() {
		if e.Kind() == journal.KindKeepAlive && e.Content() == any(page) {
			e.Downgrade()
		}
	}
}

func (f *Frame) show(content any, page *Page, contentID uint32) {
	f.content = content
	f.current = page
	f.contentID = contentID
}

// adoptContentID returns the content id recorded for e, assigning a fresh
// one to groups restored without it.
func (f *Frame) adoptContentID(e *journal.Entry) uint32 {
	if id := e.ContentID(); id != 0 {
		return id
	}
	f.lastID++
	if err := e.Group().SetContentID(f.lastID); err != nil {
		f.log.Warn("assigning content id", zap.Error(err))
	}
	return f.lastID
}

func documentKey(u *url.URL) string {
	doc := *u
	doc.Fragment = ""
	doc.RawFragment = ""
	return doc.String()
}

func sameDocument(a, b *url.URL) bool {
	return a != nil && b != nil && documentKey(a) == documentKey(b)
}
