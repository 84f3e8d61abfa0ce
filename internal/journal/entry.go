package journal

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// EntryType controls whether an entry shows up in the back/forward stacks.
type EntryType uint8

const (
	Navigable EntryType = iota
	UILess              // recorded, but never offered for back/forward
)

// Kind is the variant of an Entry.
type Kind uint8

const (
	// KindURI entries re-fetch their content from Source.
	KindURI Kind = iota + 1
	// KindKeepAlive entries hold the live content root.
	KindKeepAlive
	// KindPageFunctionKeepAlive entries hold a live page function.
	KindPageFunctionKeepAlive
	// KindPageFunctionType entries rebuild a page function by type name.
	KindPageFunctionType
	// KindPageFunctionURI entries rebuild a page function from markup.
	KindPageFunctionURI
)

func (k Kind) String() string {
	switch k {
	case KindURI:
		return "uri"
	case KindKeepAlive:
		return "keep-alive"
	case KindPageFunctionKeepAlive:
		return "page-function/keep-alive"
	case KindPageFunctionType:
		return "page-function/type"
	case KindPageFunctionURI:
		return "page-function/uri"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsPageFunction reports whether k is one of the page-function variants.
func (k Kind) IsPageFunction() bool {
	return k == KindPageFunctionKeepAlive || k == KindPageFunctionType || k == KindPageFunctionURI
}

// IsKeepAlive reports whether k retains live content and so cannot be
// serialized.
func (k Kind) IsKeepAlive() bool {
	return k == KindKeepAlive || k == KindPageFunctionKeepAlive
}

// PageFunctionInfo is the resumption data of a page-function entry.
type PageFunctionInfo struct {
	ID             uuid.UUID
	ParentID       uuid.UUID
	TypeName       string
	MarkupURI      *url.URL
	State          []byte
	ReturnBindings []ReturnBinding
}

// Entry is one record in a Journal.
type Entry struct {
	id   int
	kind Kind

	Source      *url.URL
	Name        string
	Type        EntryType
	CustomState []byte

	group *GroupState

	content      any          // KindKeepAlive
	livePF       PageFunction // KindPageFunctionKeepAlive
	pageFunction *PageFunctionInfo
}

func newEntry(kind Kind, g *GroupState, source *url.URL) *Entry {
	if g == nil {
		g = NewGroupState(uuid.Nil, 0)
	}
	return &Entry{kind: kind, group: g, Source: source}
}

// NewURIEntry creates an entry that navigates by URI.
func NewURIEntry(g *GroupState, source *url.URL) *Entry {
	return newEntry(KindURI, g, source)
}

// NewKeepAliveEntry creates an entry that retains content. source, if set,
// is used when the entry has to be downgraded before serialization.
func NewKeepAliveEntry(g *GroupState, source *url.URL, content any) *Entry {
	e := newEntry(KindKeepAlive, g, source)
	e.content = content
	return e
}

// NewKeepAlivePageFunctionEntry creates an entry that retains pf. typeName
// is optional; when set the entry can be downgraded to a by-type entry.
func NewKeepAlivePageFunctionEntry(g *GroupState, pf PageFunction, typeName string) *Entry {
	e := newEntry(KindPageFunctionKeepAlive, g, nil)
	e.livePF = pf
	e.pageFunction = &PageFunctionInfo{TypeName: typeName}
	e.capturePageFunction(pf)
	return e
}

// NewPageFunctionTypeEntry creates an entry that rebuilds its page function
// from a registered type name.
func NewPageFunctionTypeEntry(g *GroupState, pf PageFunction, typeName string) *Entry {
	e := newEntry(KindPageFunctionType, g, nil)
	e.pageFunction = &PageFunctionInfo{TypeName: typeName}
	e.capturePageFunction(pf)
	return e
}

// NewPageFunctionURIEntry creates an entry that rebuilds its page function
// from markup at markup.
func NewPageFunctionURIEntry(g *GroupState, pf PageFunction, markup *url.URL) *Entry {
	e := newEntry(KindPageFunctionURI, g, markup)
	e.pageFunction = &PageFunctionInfo{MarkupURI: markup}
	e.capturePageFunction(pf)
	return e
}

// ID returns the id assigned by the journal, or 0 if the entry was never
// added to one.
func (e *Entry) ID() int { return e.id }

// Kind returns the entry's variant.
func (e *Entry) Kind() Kind { return e.kind }

// Group returns the entry's group. It is never nil.
func (e *Entry) Group() *GroupState { return e.group }

// ContentID returns the content id of the entry's group.
func (e *Entry) ContentID() uint32 { return e.group.ContentID() }

// NavigationServiceID returns the id of the service the entry belongs to.
func (e *Entry) NavigationServiceID() uuid.UUID { return e.group.NavigationServiceID() }

// PageFunction returns the resumption data, or nil for non page-function
// entries.
func (e *Entry) PageFunction() *PageFunctionInfo { return e.pageFunction }

// Content returns the retained content of a keep-alive entry.
func (e *Entry) Content() any {
	switch e.kind {
	case KindKeepAlive:
		return e.content
	case KindPageFunctionKeepAlive:
		if e.livePF == nil {
			return nil
		}
		return e.livePF
	}
	return nil
}

// IsAlive reports whether the entry holds a live reference to displayable
// content.
func (e *Entry) IsAlive() bool {
	switch e.kind {
	case KindKeepAlive:
		return e.content != nil
	case KindPageFunctionKeepAlive:
		return e.livePF != nil
	}
	return false
}

// MarkExit makes e its group's exit entry.
func (e *Entry) MarkExit() {
	e.group.exit = e
}

// IsExit reports whether e is its group's exit entry.
func (e *Entry) IsExit() bool {
	return e.group.exit == e
}

func (e *Entry) String() string {
	name := e.Name
	if name == "" && e.Source != nil {
		name = e.Source.String()
	}
	return fmt.Sprintf("#%d %s (%s)", e.id, name, e.kind)
}

// SaveState captures what is needed to show content again later.
func (e *Entry) SaveState(content any) error {
	if content == nil {
		return fmt.Errorf("%w: nil content for entry %d", ErrInvalidArgument, e.id)
	}

	switch e.kind {
	case KindURI:
		state, err := saveState(content)
		if err != nil {
			return err
		}
		if state != nil {
			e.group.FormState = state
		}
	case KindKeepAlive:
		e.content = content
	case KindPageFunctionKeepAlive, KindPageFunctionType, KindPageFunctionURI:
		pf, ok := content.(PageFunction)
		if !ok {
			return fmt.Errorf("%w: entry %d expects a page function, got %T", ErrInvalidArgument, e.id, content)
		}
		e.capturePageFunction(pf)
		if e.kind == KindPageFunctionKeepAlive {
			e.livePF = pf
			return nil
		}
		state, err := saveState(pf)
		if err != nil {
			return err
		}
		e.pageFunction.State = state
	default:
		return fmt.Errorf("%w: unknown entry kind %d", ErrInvalidArgument, e.kind)
	}
	return nil
}

// RestoreState applies state captured by SaveState to content before it is
// displayed again.
func (e *Entry) RestoreState(content any) error {
	if content == nil {
		return fmt.Errorf("%w: nil content for entry %d", ErrInvalidArgument, e.id)
	}

	switch e.kind {
	case KindURI, KindKeepAlive:
		return restoreState(content, e.group.FormState)
	case KindPageFunctionKeepAlive, KindPageFunctionType, KindPageFunctionURI:
		pf, ok := content.(PageFunction)
		if !ok {
			return fmt.Errorf("%w: entry %d expects a page function, got %T", ErrInvalidArgument, e.id, content)
		}
		info := e.pageFunction
		if info.ID != uuid.Nil && pf.PageFunctionID() != info.ID {
			return fmt.Errorf("%w: entry %d belongs to page function %s, got %s",
				ErrInvalidArgument, e.id, info.ID, pf.PageFunctionID())
		}
		if e.kind != KindPageFunctionKeepAlive {
			if err := restoreState(pf, info.State); err != nil {
				return err
			}
		}
		pf.AttachReturnBindings(cloneBindings(info.ReturnBindings))
		return nil
	}
	return fmt.Errorf("%w: unknown entry kind %d", ErrInvalidArgument, e.kind)
}

// Navigate shows the entry's content in svc. It reports false when the
// service canceled the navigation; the caller is responsible for rolling the
// journal back.
func (e *Entry) Navigate(svc NavigationService, mode Mode) (bool, error) {
	switch e.kind {
	case KindURI:
		if e.Source == nil {
			return false, fmt.Errorf("%w: entry %d has no source", ErrInvalidOperation, e.id)
		}
		return svc.NavigateToURI(e.Source, e, mode)

	case KindKeepAlive:
		if e.content == nil {
			if e.Source == nil {
				return false, fmt.Errorf("%w: entry %d lost its content", ErrInvalidOperation, e.id)
			}
			return svc.NavigateToURI(e.Source, e, mode)
		}
		return svc.NavigateToContent(e.content, e, mode)

	case KindPageFunctionKeepAlive:
		if e.livePF == nil {
			return false, fmt.Errorf("%w: entry %d lost its page function", ErrInvalidOperation, e.id)
		}
		e.livePF.AttachReturnBindings(cloneBindings(e.pageFunction.ReturnBindings))
		return svc.NavigateToContent(e.livePF, e, mode)

	case KindPageFunctionType, KindPageFunctionURI:
		pf, err := svc.ResolvePageFunction(e.pageFunctionRef())
		if err != nil {
			return false, fmt.Errorf("resuming page function %s of entry %d: %w", e.pageFunction.ID, e.id, err)
		}
		if err := e.RestoreState(pf); err != nil {
			return false, fmt.Errorf("resuming page function %s of entry %d: %w", e.pageFunction.ID, e.id, err)
		}
		return svc.NavigateToContent(pf, e, mode)
	}
	return false, fmt.Errorf("%w: unknown entry kind %d", ErrInvalidOperation, e.kind)
}

// Downgrade converts a keep-alive entry into a variant that can be rebuilt
// without live content. It reports false when that is impossible.
func (e *Entry) Downgrade() bool {
	switch e.kind {
	case KindKeepAlive:
		if e.Source == nil {
			return false
		}
		if e.content != nil {
			if state, err := saveState(e.content); err == nil && state != nil {
				e.group.FormState = state
			}
		}
		e.kind = KindURI
		e.content = nil
		return true

	case KindPageFunctionKeepAlive:
		info := e.pageFunction
		switch {
		case info.TypeName != "":
			e.kind = KindPageFunctionType
		case info.MarkupURI != nil:
			e.kind = KindPageFunctionURI
			e.Source = info.MarkupURI
		default:
			return false
		}
		if e.livePF != nil {
			e.capturePageFunction(e.livePF)
			if state, err := saveState(e.livePF); err == nil {
				info.State = state
			}
		}
		e.livePF = nil
		return true
	}
	return true
}

func (e *Entry) pageFunctionRef() PageFunctionRef {
	return PageFunctionRef{
		ID:        e.pageFunction.ID,
		TypeName:  e.pageFunction.TypeName,
		MarkupURI: e.pageFunction.MarkupURI,
	}
}

func (e *Entry) capturePageFunction(pf PageFunction) {
	if pf == nil {
		return
	}
	e.pageFunction.ID = pf.PageFunctionID()
	e.pageFunction.ParentID = pf.ParentPageFunctionID()
	e.pageFunction.ReturnBindings = cloneBindings(pf.ReturnBindings())
}

func saveState(content any) ([]byte, error) {
	s, ok := content.(StateSaver)
	if !ok {
		return nil, nil
	}
	state, err := s.SaveState()
	if err != nil {
		return nil, fmt.Errorf("saving content state: %w", err)
	}
	return state, nil
}

func restoreState(content any, state []byte) error {
	if state == nil {
		return nil
	}
	r, ok := content.(StateRestorer)
	if !ok {
		return nil
	}
	if err := r.RestoreState(state); err != nil {
		return fmt.Errorf("restoring content state: %w", err)
	}
	return nil
}

func cloneBindings(b []ReturnBinding) []ReturnBinding {
	if b == nil {
		return nil
	}
	out := make([]ReturnBinding, len(b))
	copy(out, b)
	return out
}
