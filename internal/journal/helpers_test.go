package journal

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeContent struct {
	form     string
	restored string
}

func (c *fakeContent) SaveState() ([]byte, error) { return []byte(c.form), nil }

func (c *fakeContent) RestoreState(state []byte) error {
	c.restored = string(state)
	return nil
}

type fakePage struct {
	id       uuid.UUID
	parent   uuid.UUID
	step     string
	bindings []ReturnBinding
	attached []ReturnBinding
}

func (p *fakePage) PageFunctionID() uuid.UUID       { return p.id }
func (p *fakePage) ParentPageFunctionID() uuid.UUID { return p.parent }
func (p *fakePage) ReturnBindings() []ReturnBinding { return p.bindings }
func (p *fakePage) AttachReturnBindings(b []ReturnBinding) {
	p.attached = b
}
func (p *fakePage) SaveState() ([]byte, error) { return []byte(p.step), nil }
func (p *fakePage) RestoreState(state []byte) error {
	p.step = string(state)
	return nil
}

type navCall struct {
	entry *Entry
	mode  Mode
	uri   string
}

type fakeService struct {
	id        uuid.UUID
	contentID uint32
	content   any
	cancel    bool
	err       error
	registry  *Registry
	calls     []navCall
}

func newFakeService() *fakeService {
	return &fakeService{id: uuid.New(), registry: NewRegistry()}
}

func (s *fakeService) ID() uuid.UUID     { return s.id }
func (s *fakeService) ContentID() uint32 { return s.contentID }
func (s *fakeService) Content() any      { return s.content }

func (s *fakeService) NavigateToURI(u *url.URL, e *Entry, mode Mode) (bool, error) {
	s.calls = append(s.calls, navCall{entry: e, mode: mode, uri: u.String()})
	return s.finish(e, nil)
}

func (s *fakeService) NavigateToContent(c any, e *Entry, mode Mode) (bool, error) {
	s.calls = append(s.calls, navCall{entry: e, mode: mode})
	return s.finish(e, c)
}

func (s *fakeService) finish(e *Entry, c any) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.cancel {
		return false, nil
	}
	s.contentID = e.ContentID()
	s.content = c
	return true, nil
}

func (s *fakeService) ResolvePageFunction(ref PageFunctionRef) (PageFunction, error) {
	if ref.TypeName == "" {
		return nil, errors.New("markup loading not supported")
	}
	return s.registry.New(ref.TypeName, ref.ID)
}

type fakeHost struct {
	root      *fakeService
	frames    map[uuid.UUID]*fakeService
	available int
	verifyErr error

	overrideBack    bool
	overrideForward bool
	overrides       int
}

func newFakeHost() *fakeHost {
	return &fakeHost{root: newFakeService(), frames: make(map[uuid.UUID]*fakeService)}
}

func (h *fakeHost) NavigationService() NavigationService { return h.root }

func (h *fakeHost) FindNavigationService(id uuid.UUID) (NavigationService, bool) {
	if id == h.root.id {
		return h.root, true
	}
	f, ok := h.frames[id]
	if !ok {
		return nil, false
	}
	return f, true
}

func (h *fakeHost) VerifyContextAndObjectState() error { return h.verifyErr }
func (h *fakeHost) OnJournalAvailable()                { h.available++ }

type overridingHost struct {
	*fakeHost
}

func (h overridingHost) GoBackOverride() bool {
	h.overrides++
	return h.overrideBack
}

func (h overridingHost) GoForwardOverride() bool {
	h.overrides++
	return h.overrideForward
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// page creates a URI entry with its own group.
func page(t *testing.T, svc uuid.UUID, contentID uint32, raw string) *Entry {
	t.Helper()
	return NewURIEntry(NewGroupState(svc, contentID), mustURL(t, raw))
}

// filled returns a journal holding one URI entry per name, cursor on the
// last one. Content ids are 1-based positions.
func filled(t *testing.T, names ...string) (*Journal, []*Entry) {
	t.Helper()
	j := New()
	entries := make([]*Entry, len(names))
	for i, name := range names {
		entries[i] = page(t, uuid.Nil, uint32(i+1), "https://example.com/"+name)
		entries[i].Name = name
		require.NoError(t, j.Add(entries[i]))
	}
	return j, entries
}
