package journal

import (
	"fmt"
	"io"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures a Scope.
type Option func(*Scope)

// WithLogger sets the logger used for navigation diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scope) {
		if l != nil {
			s.log = l
		}
	}
}

// WithLimit caps the journal at n entries.
func WithLimit(n int) Option {
	return func(s *Scope) { s.limit = n }
}

// Scope connects a navigation host to its journal. A top-level window
// always has one; a frame only when it keeps its own history.
type Scope struct {
	host  Host
	log   *zap.Logger
	limit int

	journal     *Journal
	unsubscribe func()

	observers  []observer
	observerID int
	reported   State
}

// NewScope creates a scope for host. The journal is created on first use.
func NewScope(host Host, opts ...Option) *Scope {
	s := &Scope{host: host, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Journal returns the scope's journal, creating it on first access.
func (s *Scope) Journal() *Journal {
	if s.journal == nil {
		s.attach(New())
	}
	return s.journal
}

// HasJournal reports whether the journal has been created yet.
func (s *Scope) HasJournal() bool {
	return s.journal != nil
}

// SetJournal replaces the journal, typically with one restored from a
// travel log.
func (s *Scope) SetJournal(j *Journal) error {
	if j == nil {
		return fmt.Errorf("%w: nil journal", ErrInvalidArgument)
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.attach(j)
	return nil
}

func (s *Scope) attach(j *Journal) {
	// A restored journal keeps the owner it was saved with; the host learns
	// it in OnJournalAvailable.
	if svc := s.host.NavigationService(); svc != nil && j.Owner() == uuid.Nil {
		j.SetOwner(svc.ID())
	}
	if s.limit > 0 {
		j.SetLimit(s.limit)
	}
	if f, ok := s.host.(EntryFilter); ok {
		j.SetFilter(f.IsEntryNavigable)
	}
	j.SetFrameLookup(s.frameContent)
	s.unsubscribe = j.Subscribe(s.publish)
	s.journal = j
	s.host.OnJournalAvailable()
	s.publish(j.State())
}

// CanGoBack reports whether GoBack would succeed. It does not create the
// journal.
func (s *Scope) CanGoBack() bool {
	return s.journal != nil && s.journal.CanGoBack()
}

// CanGoForward reports whether GoForward would succeed.
func (s *Scope) CanGoForward() bool {
	return s.journal != nil && s.journal.CanGoForward()
}

// BackStack returns the navigable entries behind the current one.
func (s *Scope) BackStack() []*Entry {
	if s.journal == nil {
		return nil
	}
	return s.journal.BackStack()
}

// ForwardStack returns the navigable entries ahead of the current one.
func (s *Scope) ForwardStack() []*Entry {
	if s.journal == nil {
		return nil
	}
	return s.journal.ForwardStack()
}

// GoBack navigates to the nearest back entry. Calling it with an empty back
// stack is an error: it means a disabled command was invoked anyway.
func (s *Scope) GoBack() error {
	if err := s.host.VerifyContextAndObjectState(); err != nil {
		return err
	}
	if !s.CanGoBack() {
		return ErrNoBackEntry
	}
	if o, ok := s.host.(HistoryOverrider); ok && o.GoBackOverride() {
		s.log.Debug("back navigation handled by host")
		return nil
	}
	_, err := s.navigate(s.journal.BeginBackNavigation(), ModeBack)
	return err
}

// GoForward navigates to the nearest forward entry.
func (s *Scope) GoForward() error {
	if err := s.host.VerifyContextAndObjectState(); err != nil {
		return err
	}
	if !s.CanGoForward() {
		return ErrNoForwardEntry
	}
	if o, ok := s.host.(HistoryOverrider); ok && o.GoForwardOverride() {
		s.log.Debug("forward navigation handled by host")
		return nil
	}
	_, err := s.navigate(s.journal.BeginForwardNavigation(), ModeForward)
	return err
}

// NavigateToEntry navigates to any navigable entry of the journal. It
// reports false when the host canceled the navigation.
func (s *Scope) NavigateToEntry(e *Entry) (bool, error) {
	if err := s.host.VerifyContextAndObjectState(); err != nil {
		return false, err
	}
	j := s.Journal()
	if e == nil {
		return false, fmt.Errorf("%w: nil entry", ErrInvalidArgument)
	}
	i, ok := j.FindIndexForEntryWithID(e.id)
	if !ok || !j.BeginNavigation(e) {
		return false, fmt.Errorf("%w: entry %d cannot be navigated to", ErrInvalidOperation, e.id)
	}
	mode := ModeForward
	if i < j.CurrentIndex() {
		mode = ModeBack
	}
	return s.navigate(e, mode)
}

// NavigateToIndex navigates to the entry at index i.
func (s *Scope) NavigateToIndex(i int) (bool, error) {
	e, ok := s.Journal().At(i)
	if !ok {
		return false, fmt.Errorf("%w: index %d out of range", ErrInvalidArgument, i)
	}
	return s.NavigateToEntry(e)
}

// NavigateToEntryID navigates to the entry with the given id. Unknown ids
// come from stale host history and are ignored.
func (s *Scope) NavigateToEntryID(id int) (bool, error) {
	e, ok := s.Journal().EntryWithID(id)
	if !ok {
		s.log.Debug("ignoring unknown journal entry", zap.Int("id", id))
		return false, nil
	}
	if e == s.journal.Current() {
		return true, nil
	}
	return s.NavigateToEntry(e)
}

// CanInvokeJournalEntry reports whether the entry with the given id exists
// and may be navigated to.
func (s *Scope) CanInvokeJournalEntry(id int) bool {
	if s.journal == nil {
		return false
	}
	e, ok := s.journal.EntryWithID(id)
	return ok && s.journal.IsNavigable(e)
}

// Navigated records a completed navigation to new content. content is
// handed to the entry's SaveState and may be nil for URI entries.
func (s *Scope) Navigated(e *Entry, content any) error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidArgument)
	}
	if content != nil {
		if err := e.SaveState(content); err != nil {
			return fmt.Errorf("recording navigation: %w", err)
		}
	}
	return s.Journal().Add(e)
}

// SaveCurrentState snapshots the state of the displayed content into the
// current entry. Hosts call it before replacing content.
func (s *Scope) SaveCurrentState() error {
	if s.journal == nil {
		return nil
	}
	cur := s.journal.Current()
	if cur == nil {
		return nil
	}
	content := s.serviceFor(cur).Content()
	if content == nil {
		return nil
	}
	if err := cur.SaveState(content); err != nil {
		return fmt.Errorf("saving state of entry %d: %w", cur.id, err)
	}
	return nil
}

// Subscribe registers fn for back/forward state changes. The returned
// function removes it.
func (s *Scope) Subscribe(fn func(State)) func() {
	s.observerID++
	id := s.observerID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// SaveHistory writes the journal to w for a host's travel log. A full
// record prunes keep-alive entries first; an index record only names the
// current entry.
func (s *Scope) SaveHistory(w io.Writer, base *url.URL, full bool) error {
	j := s.Journal()
	if !full {
		cur := j.Current()
		if cur == nil {
			return fmt.Errorf("%w: journal is empty", ErrInvalidOperation)
		}
		return EncodeIndex(w, cur.id)
	}

	if err := s.SaveCurrentState(); err != nil {
		s.log.Warn("saving current state before serialization", zap.Error(err))
	}
	for _, e := range j.PruneKeepAliveEntries() {
		s.log.Debug("pruned keep-alive entry", zap.Int("id", e.id), zap.Stringer("kind", e.kind))
	}
	if err := EncodeJournal(w, j, base); err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}
	return nil
}

// LoadHistory reads a travel-log record. A full record replaces the
// journal; an index record navigates to the entry it names, if it still
// exists.
func (s *Scope) LoadHistory(r io.Reader) (*Record, error) {
	rec, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	switch rec.Tag {
	case TagFull:
		if err := s.SetJournal(rec.Journal); err != nil {
			return nil, err
		}
		s.log.Debug("journal restored", zap.Int("entries", rec.Journal.Len()))
	case TagIndex:
		if _, err := s.NavigateToEntryID(rec.EntryID); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func (s *Scope) navigate(e *Entry, mode Mode) (bool, error) {
	j := s.journal
	if e == nil {
		j.AbortJournalNavigation()
		return false, fmt.Errorf("%w: no %s entry", ErrInvalidOperation, mode)
	}

	var (
		ok  bool
		err error
	)
	j.Batch(func() {
		if serr := s.SaveCurrentState(); serr != nil {
			s.log.Warn("saving state before journal navigation", zap.Error(serr))
		}
		ok, err = e.Navigate(s.serviceFor(e), mode)
		if err != nil || !ok {
			j.AbortJournalNavigation()
			s.log.Debug("journal navigation aborted",
				zap.Int("id", e.id), zap.Stringer("mode", mode), zap.Error(err))
			return
		}
		err = j.CommitJournalNavigation(e)
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Scope) serviceFor(e *Entry) NavigationService {
	if id := e.NavigationServiceID(); id != uuid.Nil {
		if svc, ok := s.host.FindNavigationService(id); ok {
			return svc
		}
	}
	return s.host.NavigationService()
}

func (s *Scope) frameContent(id uuid.UUID) (uint32, bool) {
	svc, ok := s.host.FindNavigationService(id)
	if !ok {
		return 0, false
	}
	return svc.ContentID(), true
}

func (s *Scope) publish(st State) {
	if st == s.reported {
		return
	}
	s.reported = st
	observers := append([]observer(nil), s.observers...)
	for _, o := range observers {
		o.fn(st)
	}
}
