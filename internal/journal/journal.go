// Package journal records navigation history for a window and its frames
// and drives back/forward travel through it.
//
// A Journal is an ordered list of entries with a cursor on the entry for the
// content currently displayed. Entries before the cursor form the back
// stack, entries after it the forward stack. Cursor moves are two-phase: a
// Begin call picks the target, and the caller either commits once the host
// has shown the content or aborts when the navigation was canceled.
//
// Nothing in this package is safe for concurrent use. Callers keep all
// access on one UI thread.
package journal

import (
	"fmt"

	"github.com/google/uuid"
)

// State is what observers of a journal are told about.
type State struct {
	CanGoBack    bool
	CanGoForward bool
}

type observer struct {
	id int
	fn func(State)
}

type pending struct {
	entry *Entry
	from  int
}

// Journal is the back/forward history of one navigation host.
type Journal struct {
	entries []*Entry
	current int
	nextID  int
	limit   int

	pending *pending

	owner        uuid.UUID
	filter       func(*Entry) bool
	frameContent func(uuid.UUID) (uint32, bool)

	observers  []observer
	observerID int
	batchDepth int
	reported   State
}

// New returns an empty journal.
func New() *Journal {
	return &Journal{current: -1, nextID: 1}
}

// SetLimit caps the number of entries. The oldest entries are evicted when
// the cap is exceeded, but never the current one. Zero means unlimited.
func (j *Journal) SetLimit(n int) {
	if n < 0 {
		n = 0
	}
	j.limit = n
	j.Batch(j.evict)
}

// SetOwner sets the id of the service that owns the journal. Entries from
// other services belong to child frames.
func (j *Journal) SetOwner(id uuid.UUID) {
	j.owner = id
}

// Owner returns the id of the owning service, or uuid.Nil if unset.
func (j *Journal) Owner() uuid.UUID { return j.owner }

// SetFilter replaces the navigability rule. A nil filter restores the
// default rule.
func (j *Journal) SetFilter(f func(*Entry) bool) {
	j.filter = f
	j.notify()
}

// SetFrameLookup installs the function used by the default rule to find
// the content currently shown by a child frame.
func (j *Journal) SetFrameLookup(f func(uuid.UUID) (uint32, bool)) {
	j.frameContent = f
	j.notify()
}

// Len returns the number of entries.
func (j *Journal) Len() int { return len(j.entries) }

// CurrentIndex returns the cursor position, or -1 when the journal is empty.
func (j *Journal) CurrentIndex() int { return j.current }

// Current returns the entry for the displayed content, or nil.
func (j *Journal) Current() *Entry {
	if j.current < 0 || j.current >= len(j.entries) {
		return nil
	}
	return j.entries[j.current]
}

// At returns the entry at index i.
func (j *Journal) At(i int) (*Entry, bool) {
	if i < 0 || i >= len(j.entries) {
		return nil, false
	}
	return j.entries[i], true
}

// Entries returns a copy of the entry list, oldest first.
func (j *Journal) Entries() []*Entry {
	out := make([]*Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// FindIndexForEntryWithID returns the index of the entry with the given id.
// An unknown id, typically one evicted since a host recorded it, yields
// (-1, false); callers ignore such requests.
func (j *Journal) FindIndexForEntryWithID(id int) (int, bool) {
	if id <= 0 {
		return -1, false
	}
	for i, e := range j.entries {
		if e.id == id {
			return i, true
		}
	}
	return -1, false
}

// EntryWithID returns the entry with the given id.
func (j *Journal) EntryWithID(id int) (*Entry, bool) {
	i, ok := j.FindIndexForEntryWithID(id)
	if !ok {
		return nil, false
	}
	return j.entries[i], true
}

// IsNavigable reports whether e may be offered for back/forward travel.
func (j *Journal) IsNavigable(e *Entry) bool {
	if e == nil {
		return false
	}
	if j.filter != nil {
		return j.filter(e)
	}
	return j.DefaultNavigable(e)
}

// DefaultNavigable is the rule used when no filter is set. An entry must be
// Navigable. Entries of a child frame additionally need the frame to still
// show the entry's content, unless the entry is its group's exit entry.
func (j *Journal) DefaultNavigable(e *Entry) bool {
	if e == nil || e.Type != Navigable {
		return false
	}
	sid := e.NavigationServiceID()
	if sid == uuid.Nil || sid == j.owner || j.frameContent == nil {
		return true
	}
	if cid, ok := j.frameContent(sid); ok && cid == e.ContentID() {
		return true
	}
	return e.IsExit()
}

// CanGoBack reports whether a navigable entry precedes the cursor.
func (j *Journal) CanGoBack() bool {
	return j.nearest(j.current-1, -1) >= 0
}

// CanGoForward reports whether a navigable entry follows the cursor.
func (j *Journal) CanGoForward() bool {
	if j.current < 0 {
		return false
	}
	return j.nearest(j.current+1, 1) >= 0
}

// State returns the current back/forward availability.
func (j *Journal) State() State {
	return State{CanGoBack: j.CanGoBack(), CanGoForward: j.CanGoForward()}
}

// BackStack returns the navigable entries before the cursor, nearest first.
func (j *Journal) BackStack() []*Entry {
	var out []*Entry
	for i := j.current - 1; i >= 0; i-- {
		if j.IsNavigable(j.entries[i]) {
			out = append(out, j.entries[i])
		}
	}
	return out
}

// ForwardStack returns the navigable entries after the cursor, nearest
// first.
func (j *Journal) ForwardStack() []*Entry {
	if j.current < 0 {
		return nil
	}
	var out []*Entry
	for i := j.current + 1; i < len(j.entries); i++ {
		if j.IsNavigable(j.entries[i]) {
			out = append(out, j.entries[i])
		}
	}
	return out
}

// Add records a new, non-journal navigation. Entries after the cursor are
// discarded before e is appended and becomes current.
func (j *Journal) Add(e *Entry) error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidArgument)
	}
	if j.contains(e) {
		return fmt.Errorf("%w: entry %d is already in the journal", ErrInvalidArgument, e.id)
	}

	j.Batch(func() {
		j.pending = nil
		j.truncateForward()
		j.assignID(e)
		j.entries = append(j.entries, e)
		j.current = len(j.entries) - 1
		j.evict()
	})
	return nil
}

// UpdateCurrentEntry replaces the entry at the cursor with e, or appends e
// when the journal is empty.
func (j *Journal) UpdateCurrentEntry(e *Entry) error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidArgument)
	}
	if j.current < 0 {
		return j.Add(e)
	}
	if j.entries[j.current] == e {
		return nil
	}
	if j.contains(e) {
		return fmt.Errorf("%w: entry %d is already in the journal", ErrInvalidArgument, e.id)
	}

	j.Batch(func() {
		j.assignID(e)
		j.entries[j.current] = e
	})
	return nil
}

// BeginBackNavigation returns the nearest navigable entry behind the cursor
// and marks it as the pending target. The cursor does not move until
// CommitJournalNavigation. It returns nil when there is no such entry.
func (j *Journal) BeginBackNavigation() *Entry {
	i := j.nearest(j.current-1, -1)
	if i < 0 {
		return nil
	}
	return j.begin(i)
}

// BeginForwardNavigation is the forward counterpart of BeginBackNavigation.
func (j *Journal) BeginForwardNavigation() *Entry {
	if j.current < 0 {
		return nil
	}
	i := j.nearest(j.current+1, 1)
	if i < 0 {
		return nil
	}
	return j.begin(i)
}

// BeginNavigation marks an arbitrary navigable entry as the pending target.
// It reports false when e is not in the journal, is not navigable, or is
// already current.
func (j *Journal) BeginNavigation(e *Entry) bool {
	if e == nil {
		return false
	}
	i, ok := j.FindIndexForEntryWithID(e.id)
	if !ok || j.entries[i] != e || i == j.current || !j.IsNavigable(e) {
		return false
	}
	j.begin(i)
	return true
}

// Pending returns the target of a navigation that was begun but not yet
// committed or aborted.
func (j *Journal) Pending() *Entry {
	if j.pending == nil {
		return nil
	}
	return j.pending.entry
}

// CommitJournalNavigation moves the cursor to e after the host has shown
// its content.
func (j *Journal) CommitJournalNavigation(e *Entry) error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrInvalidArgument)
	}
	i, ok := j.FindIndexForEntryWithID(e.id)
	if !ok || j.entries[i] != e {
		return fmt.Errorf("%w: entry %d is not in the journal", ErrInvalidOperation, e.id)
	}
	j.Batch(func() {
		j.pending = nil
		j.current = i
	})
	return nil
}

// AbortJournalNavigation undoes a begun navigation. Calling it again, or
// with nothing pending, has no effect.
func (j *Journal) AbortJournalNavigation() {
	if j.pending == nil {
		return
	}
	j.Batch(func() {
		if j.pending.from < len(j.entries) {
			j.current = j.pending.from
		}
		j.pending = nil
	})
}

// RemoveBackEntry removes and returns the nearest navigable entry behind the
// cursor, or nil.
func (j *Journal) RemoveBackEntry() *Entry {
	i := j.nearest(j.current-1, -1)
	if i < 0 {
		return nil
	}
	e := j.entries[i]
	j.Batch(func() {
		j.pending = nil
		j.removeAt(i)
	})
	return e
}

// PruneKeepAliveEntries prepares the journal for serialization. Keep-alive
// entries are downgraded to a reconstructible variant, or
// removed when that is not possible. It returns the removed entries.
func (j *Journal) PruneKeepAliveEntries() []*Entry {
	var removed []*Entry
	j.Batch(func() {
		j.pending = nil
		for i := 0; i < len(j.entries); {
			e := j.entries[i]
			if !e.kind.IsKeepAlive() || e.Downgrade() {
				i++
				continue
			}
			removed = append(removed, e)
			j.removeAt(i)
		}
	})
	return removed
}

// Subscribe registers fn to be called whenever the back/forward state
// changes. The returned function removes the registration.
func (j *Journal) Subscribe(fn func(State)) func() {
	j.observerID++
	id := j.observerID
	j.observers = append(j.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range j.observers {
			if o.id == id {
				j.observers = append(j.observers[:i:i], j.observers[i+1:]...)
				return
			}
		}
	}
}

// Batch runs fn with notifications held back. Observers see at most one
// notification once the outermost batch returns.
func (j *Journal) Batch(fn func()) {
	j.batchDepth++
	defer func() {
		j.batchDepth--
		j.notify()
	}()
	fn()
}

// Refresh re-evaluates the back/forward state, for example after a child
// frame went away, and notifies observers if it changed.
func (j *Journal) Refresh() {
	j.notify()
}

func (j *Journal) notify() {
	if j.batchDepth > 0 {
		return
	}
	s := j.State()
	if s == j.reported {
		return
	}
	j.reported = s
	observers := append([]observer(nil), j.observers...)
	for _, o := range observers {
		o.fn(s)
	}
}

func (j *Journal) begin(i int) *Entry {
	e := j.entries[i]
	j.pending = &pending{entry: e, from: j.current}
	return e
}

func (j *Journal) nearest(start, step int) int {
	for i := start; i >= 0 && i < len(j.entries); i += step {
		if j.IsNavigable(j.entries[i]) {
			return i
		}
	}
	return -1
}

// assignID gives e the next id of this journal. An id e carried from
// another journal is dropped so ids stay unique here.
func (j *Journal) assignID(e *Entry) {
	e.id = j.nextID
	j.nextID++
}

func (j *Journal) contains(e *Entry) bool {
	i, ok := j.FindIndexForEntryWithID(e.id)
	return ok && j.entries[i] == e
}

func (j *Journal) truncateForward() {
	keep := j.current + 1
	if keep >= len(j.entries) {
		return
	}
	clear(j.entries[keep:])
	j.entries = j.entries[:keep]
}

// evict drops entries beyond the limit, oldest first. The current entry
// always survives: once the back stack is gone the forward tail is trimmed.
func (j *Journal) evict() {
	if j.limit <= 0 || len(j.entries) <= j.limit {
		return
	}
	j.pending = nil
	over := len(j.entries) - j.limit
	n := min(over, max(j.current, 0))
	j.entries = append([]*Entry(nil), j.entries[n:]...)
	j.current -= n
	if over -= n; over > 0 {
		keep := len(j.entries) - over
		clear(j.entries[keep:])
		j.entries = j.entries[:keep]
	}
}

func (j *Journal) removeAt(i int) {
	copy(j.entries[i:], j.entries[i+1:])
	j.entries[len(j.entries)-1] = nil
	j.entries = j.entries[:len(j.entries)-1]

	switch {
	case len(j.entries) == 0:
		j.current = -1
	case i < j.current:
		j.current--
	case j.current >= len(j.entries):
		j.current = len(j.entries) - 1
	}
}
