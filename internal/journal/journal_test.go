package journal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalEmpty(t *testing.T) {
	j := New()

	assert.False(t, j.CanGoBack())
	assert.False(t, j.CanGoForward())
	assert.Nil(t, j.BeginBackNavigation())
	assert.Nil(t, j.BeginForwardNavigation())
	assert.Nil(t, j.Current())
	assert.Equal(t, -1, j.CurrentIndex())
	assert.Empty(t, j.BackStack())
	assert.Empty(t, j.ForwardStack())
}

func TestJournalSingleEntry(t *testing.T) {
	j, _ := filled(t, "a")

	assert.False(t, j.CanGoBack())
	assert.False(t, j.CanGoForward())
	assert.Equal(t, 0, j.CurrentIndex())
}

func TestJournalBeginBackDoesNotMoveCursor(t *testing.T) {
	j, e := filled(t, "a", "b", "c")
	require.Equal(t, []int{1, 2, 3}, []int{e[0].ID(), e[1].ID(), e[2].ID()})
	require.Equal(t, 2, j.CurrentIndex())

	target := j.BeginBackNavigation()
	assert.Same(t, e[1], target)
	assert.Equal(t, 2, j.CurrentIndex())
	assert.Same(t, e[1], j.Pending())

	require.NoError(t, j.CommitJournalNavigation(target))
	assert.Equal(t, 1, j.CurrentIndex())
	assert.True(t, j.CanGoForward())
	assert.Equal(t, []*Entry{e[2]}, j.ForwardStack())
	assert.Equal(t, []*Entry{e[0]}, j.BackStack())
	assert.Nil(t, j.Pending())
}

func TestJournalForwardFromTail(t *testing.T) {
	j, _ := filled(t, "a", "b")
	assert.Nil(t, j.BeginForwardNavigation())
	assert.Nil(t, j.Pending())
}

func TestJournalTruncatesForwardStack(t *testing.T) {
	j, e := filled(t, "a", "b", "c")
	require.True(t, j.BeginNavigation(e[0]))
	require.NoError(t, j.CommitJournalNavigation(e[0]))

	d := page(t, uuid.Nil, 4, "https://example.com/d")
	require.NoError(t, j.Add(d))

	assert.Equal(t, []*Entry{e[0], d}, j.Entries())
	assert.Equal(t, 1, j.CurrentIndex())
	assert.Equal(t, 4, d.ID(), "ids of discarded entries are not reused")
	assert.False(t, j.CanGoForward())
	_, ok := j.FindIndexForEntryWithID(e[1].ID())
	assert.False(t, ok)
}

func TestJournalAbortIsIdempotent(t *testing.T) {
	j, e := filled(t, "a", "b", "c")
	require.NotNil(t, j.BeginBackNavigation())

	j.AbortJournalNavigation()
	once := struct {
		index   int
		entries []*Entry
		pending *Entry
	}{j.CurrentIndex(), j.Entries(), j.Pending()}

	j.AbortJournalNavigation()
	assert.Equal(t, once.index, j.CurrentIndex())
	assert.Equal(t, once.entries, j.Entries())
	assert.Nil(t, j.Pending())
	assert.Same(t, e[2], j.Current())
}

func TestJournalForwardThenBackRestoresContent(t *testing.T) {
	for _, n := range []int{1, 2, 4} {
		j, e := filled(t, "a", "b", "c", "d", "e")
		require.True(t, j.BeginNavigation(e[0]))
		require.NoError(t, j.CommitJournalNavigation(e[0]))
		start := j.Current().ContentID()

		for i := 0; i < n; i++ {
			next := j.BeginForwardNavigation()
			require.NotNil(t, next)
			require.NoError(t, j.CommitJournalNavigation(next))
		}
		for i := 0; i < n; i++ {
			prev := j.BeginBackNavigation()
			require.NotNil(t, prev)
			require.NoError(t, j.CommitJournalNavigation(prev))
		}
		assert.Equal(t, start, j.Current().ContentID(), "n=%d", n)
	}
}

func TestJournalNotificationsAreBatched(t *testing.T) {
	j := New()
	var got []State
	unsubscribe := j.Subscribe(func(s State) { got = append(got, s) })

	require.NoError(t, j.Add(page(t, uuid.Nil, 1, "https://example.com/a")))
	assert.Empty(t, got, "state did not change")

	require.NoError(t, j.Add(page(t, uuid.Nil, 2, "https://example.com/b")))
	assert.Equal(t, []State{{CanGoBack: true}}, got)

	j.Batch(func() {
		back := j.BeginBackNavigation()
		require.NoError(t, j.CommitJournalNavigation(back))
		require.NoError(t, j.Add(page(t, uuid.Nil, 3, "https://example.com/c")))
	})
	assert.Len(t, got, 1, "net state unchanged inside batch")

	back := j.BeginBackNavigation()
	require.NoError(t, j.CommitJournalNavigation(back))
	assert.Equal(t, State{CanGoBack: false, CanGoForward: true}, got[len(got)-1])

	unsubscribe()
	fwd := j.BeginForwardNavigation()
	require.NoError(t, j.CommitJournalNavigation(fwd))
	assert.Len(t, got, 2)
}

func TestJournalFragmentGroupNavigability(t *testing.T) {
	owner := uuid.New()
	frame := uuid.New()

	j := New()
	j.SetOwner(owner)
	j.SetFrameLookup(func(uuid.UUID) (uint32, bool) { return 0, false })

	g := NewGroupState(frame, 7)
	fragment1 := NewURIEntry(g, mustURL(t, "https://example.com/p#one"))
	fragment2 := NewURIEntry(g, mustURL(t, "https://example.com/p#two"))
	fragment2.MarkExit()

	assert.Equal(t, fragment1.ContentID(), fragment2.ContentID())
	assert.False(t, j.IsNavigable(fragment1))
	assert.True(t, j.IsNavigable(fragment2))

	// A live frame showing the same content makes every entry navigable.
	j.SetFrameLookup(func(id uuid.UUID) (uint32, bool) { return 7, id == frame })
	assert.True(t, j.IsNavigable(fragment1))
}

func TestJournalUILessEntriesAreHidden(t *testing.T) {
	j, e := filled(t, "a", "b", "c")
	e[1].Type = UILess

	assert.Equal(t, []*Entry{e[0]}, j.BackStack())
	assert.Same(t, e[0], j.BeginBackNavigation())
	assert.False(t, j.IsNavigable(nil))
}

func TestJournalCustomFilter(t *testing.T) {
	j, e := filled(t, "a", "b")
	j.SetFilter(func(*Entry) bool { return false })
	assert.False(t, j.CanGoBack())

	j.SetFilter(nil)
	assert.True(t, j.CanGoBack())
	assert.Same(t, e[0], j.BackStack()[0])
}

func TestJournalFindIndexForEntryWithID(t *testing.T) {
	j, _ := filled(t, "a", "b")

	i, ok := j.FindIndexForEntryWithID(2)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	for _, id := range []int{0, -3, 99} {
		i, ok := j.FindIndexForEntryWithID(id)
		assert.False(t, ok)
		assert.Equal(t, -1, i)
	}
}

func TestJournalUpdateCurrentEntry(t *testing.T) {
	j := New()
	a := page(t, uuid.Nil, 1, "https://example.com/a")
	require.NoError(t, j.UpdateCurrentEntry(a))
	assert.Same(t, a, j.Current())

	replacement := page(t, uuid.Nil, 1, "https://example.com/a?v=2")
	require.NoError(t, j.UpdateCurrentEntry(replacement))
	assert.Equal(t, 1, j.Len())
	assert.Same(t, replacement, j.Current())
	assert.Equal(t, 2, replacement.ID())

	assert.ErrorIs(t, j.UpdateCurrentEntry(nil), ErrInvalidArgument)
}

func TestJournalAddRejectsDuplicates(t *testing.T) {
	j, e := filled(t, "a")
	assert.ErrorIs(t, j.Add(e[0]), ErrInvalidArgument)
	assert.ErrorIs(t, j.Add(nil), ErrInvalidArgument)
}

func TestJournalRemoveBackEntry(t *testing.T) {
	j, e := filled(t, "a", "b", "c")

	assert.Same(t, e[1], j.RemoveBackEntry())
	assert.Equal(t, []*Entry{e[0], e[2]}, j.Entries())
	assert.Same(t, e[2], j.Current())

	assert.Same(t, e[0], j.RemoveBackEntry())
	assert.Nil(t, j.RemoveBackEntry())
	assert.Equal(t, 0, j.CurrentIndex())
}

func TestJournalPruneKeepAliveEntries(t *testing.T) {
	j := New()
	withSource := NewKeepAliveEntry(NewGroupState(uuid.Nil, 1), mustURL(t, "https://example.com/a"), &fakeContent{form: "x"})
	orphan := NewKeepAliveEntry(NewGroupState(uuid.Nil, 2), nil, &fakeContent{})
	wizard := NewKeepAlivePageFunctionEntry(NewGroupState(uuid.Nil, 3), &fakePage{id: uuid.New(), step: "2"}, "wizard")
	plain := page(t, uuid.Nil, 4, "https://example.com/d")
	for _, e := range []*Entry{withSource, orphan, wizard, plain} {
		require.NoError(t, j.Add(e))
	}

	removed := j.PruneKeepAliveEntries()

	assert.Equal(t, []*Entry{orphan}, removed)
	assert.Equal(t, []*Entry{withSource, wizard, plain}, j.Entries())
	assert.Same(t, plain, j.Current())

	assert.Equal(t, KindURI, withSource.Kind())
	assert.False(t, withSource.IsAlive())
	assert.Equal(t, []byte("x"), withSource.Group().FormState)

	assert.Equal(t, KindPageFunctionType, wizard.Kind())
	assert.Equal(t, []byte("2"), wizard.PageFunction().State)
}

func TestJournalLimitEvictsOldest(t *testing.T) {
	j, e := filled(t, "a", "b", "c", "d")
	j.SetLimit(2)

	assert.Equal(t, []*Entry{e[2], e[3]}, j.Entries())
	assert.Equal(t, 1, j.CurrentIndex())

	f := page(t, uuid.Nil, 5, "https://example.com/e")
	require.NoError(t, j.Add(f))
	assert.Equal(t, []*Entry{e[3], f}, j.Entries())
	assert.Equal(t, 5, f.ID())
}

func TestJournalLimitKeepsCurrentEntry(t *testing.T) {
	j, e := filled(t, "a", "b", "c", "d", "e", "f")
	require.True(t, j.BeginNavigation(e[1]))
	require.NoError(t, j.CommitJournalNavigation(e[1]))

	j.SetLimit(3)
	assert.Same(t, e[1], j.Current())
	assert.Equal(t, uint32(2), j.Current().ContentID())
	assert.Equal(t, []*Entry{e[1], e[2], e[3]}, j.Entries())
	assert.Equal(t, 0, j.CurrentIndex())
	assert.False(t, j.CanGoBack())

	j.SetLimit(1)
	assert.Equal(t, []*Entry{e[1]}, j.Entries())
	assert.Same(t, e[1], j.Current())
}

func TestJournalIDsStayUniqueAcrossJournals(t *testing.T) {
	_, e := filled(t, "a", "b")
	require.Equal(t, 2, e[1].ID())

	j := New()
	require.NoError(t, j.Add(e[1]))
	c := page(t, uuid.Nil, 3, "https://example.com/c")
	require.NoError(t, j.Add(c))
	d := page(t, uuid.Nil, 4, "https://example.com/d")
	require.NoError(t, j.Add(d))

	assert.Equal(t, []int{1, 2, 3}, []int{e[1].ID(), c.ID(), d.ID()})
	i, ok := j.FindIndexForEntryWithID(d.ID())
	require.True(t, ok)
	assert.Equal(t, 2, i)
}

func TestJournalCommitUnknownEntry(t *testing.T) {
	j, _ := filled(t, "a")
	stranger := page(t, uuid.Nil, 9, "https://example.com/z")
	assert.ErrorIs(t, j.CommitJournalNavigation(stranger), ErrInvalidOperation)
	assert.ErrorIs(t, j.CommitJournalNavigation(nil), ErrInvalidArgument)
	assert.False(t, j.BeginNavigation(stranger))
}
