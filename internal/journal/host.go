package journal

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/google/uuid"
)

// Mode describes why a journal entry is being navigated to.
type Mode int

const (
	ModeNew Mode = iota // ordinary navigation that creates a new entry
	ModeBack
	ModeForward
	ModeRefresh
)

func (m Mode) String() string {
	switch m {
	case ModeNew:
		return "new"
	case ModeBack:
		return "back"
	case ModeForward:
		return "forward"
	case ModeRefresh:
		return "refresh"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// NavigationService is a single window or frame that displays content.
// The journal never swaps content itself; it asks a service to do it.
type NavigationService interface {
	// ID identifies the service. Entries recorded while this service showed
	// content carry the same id.
	ID() uuid.UUID

	// ContentID returns the id of the content currently displayed, or 0.
	ContentID() uint32

	// Content returns the displayed content root, or nil.
	Content() any

	// NavigateToURI loads content from u on behalf of e. It reports false
	// when the navigation was canceled.
	NavigateToURI(u *url.URL, e *Entry, mode Mode) (bool, error)

	// NavigateToContent re-displays content that is already in memory.
	NavigateToContent(content any, e *Entry, mode Mode) (bool, error)

	// ResolvePageFunction reconstructs a page function that was not kept
	// alive.
	ResolvePageFunction(ref PageFunctionRef) (PageFunction, error)
}

// Host is the window that owns a Scope.
type Host interface {
	// NavigationService returns the root service of the host.
	NavigationService() NavigationService

	// FindNavigationService returns the service with the given id. Child
	// frames are reachable through it as long as they exist.
	FindNavigationService(id uuid.UUID) (NavigationService, bool)

	// VerifyContextAndObjectState is called before any public navigation.
	VerifyContextAndObjectState() error

	// OnJournalAvailable is called each time the scope creates or receives
	// a journal, including every restore through SetJournal or LoadHistory.
	OnJournalAvailable()
}

// HistoryOverrider lets a host take over back/forward handling, for example
// to route it through an external travel log. Returning true suppresses the
// default journal navigation.
type HistoryOverrider interface {
	GoBackOverride() bool
	GoForwardOverride() bool
}

// EntryFilter replaces the default navigability rule of a journal.
type EntryFilter interface {
	IsEntryNavigable(e *Entry) bool
}

// StateSaver is implemented by content that has form state worth keeping
// across reconstruction.
type StateSaver interface {
	SaveState() ([]byte, error)
}

// StateRestorer is the inverse of StateSaver.
type StateRestorer interface {
	RestoreState(state []byte) error
}

// ReturnBinding names a handler on the parent page function that receives
// the child's return value.
type ReturnBinding struct {
	ParentID uuid.UUID
	Handler  string
}

// PageFunction is resumable, wizard-style content.
type PageFunction interface {
	PageFunctionID() uuid.UUID
	ParentPageFunctionID() uuid.UUID
	ReturnBindings() []ReturnBinding
	AttachReturnBindings(b []ReturnBinding)
}

// PageFunctionRef identifies how to rebuild a page function: by registered
// type name, or by markup URI.
type PageFunctionRef struct {
	ID        uuid.UUID
	TypeName  string
	MarkupURI *url.URL
}

// Registry maps page-function type names to constructors. Hosts use it to
// implement ResolvePageFunction for entries resumable by type.
type Registry struct {
	ctors map[string]func(id uuid.UUID) PageFunction
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]func(id uuid.UUID) PageFunction)}
}

// Register adds a constructor under name, replacing any previous one. The
// constructor receives the id the page function had when it was journaled.
func (r *Registry) Register(name string, ctor func(id uuid.UUID) PageFunction) {
	r.ctors[name] = ctor
}

// New constructs the page function registered under name.
func (r *Registry) New(name string, id uuid.UUID) (PageFunction, error) {
	ctor, ok := r.ctors[name]
	if !ok {
		return nil, fmt.Errorf("page function type %q is not registered", name)
	}
	return ctor(id), nil
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
