package journal

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIndexLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeIndex(&buf, 0x01020304))
	assert.Equal(t, []byte{0x01, 0x01, 0x02, 0x03, 0x04}, buf.Bytes())

	rec, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, TagIndex, rec.Tag)
	assert.Equal(t, 0x01020304, rec.EntryID)

	assert.ErrorIs(t, EncodeIndex(&buf, 0), ErrInvalidArgument)
}

func TestJournalRoundTrip(t *testing.T) {
	owner := uuid.New()
	frame := uuid.New()

	j := New()
	j.SetOwner(owner)

	a := page(t, owner, 1, "https://example.com/a")
	a.Name = "Home"
	a.CustomState = []byte{}

	fragments := NewGroupState(frame, 2)
	fragments.FormState = []byte("q=go")
	f1 := NewURIEntry(fragments, mustURL(t, "https://example.com/b#one"))
	f2 := NewURIEntry(fragments, mustURL(t, "https://example.com/b#two"))
	f2.MarkExit()

	parent := uuid.New()
	pf := &fakePage{id: uuid.New(), parent: parent, step: "4",
		bindings: []ReturnBinding{{ParentID: parent, Handler: "OnFinish"}}}
	wizard := NewPageFunctionTypeEntry(NewGroupState(owner, 3), pf, "wizard")
	require.NoError(t, wizard.SaveState(pf))
	markup := NewPageFunctionURIEntry(NewGroupState(owner, 4), pf, mustURL(t, "app:///step.xml"))
	hidden := page(t, owner, 5, "https://example.com/c")
	hidden.Type = UILess

	for _, e := range []*Entry{a, f1, f2, wizard, markup, hidden} {
		require.NoError(t, j.Add(e))
	}
	require.True(t, j.BeginNavigation(wizard))
	require.NoError(t, j.CommitJournalNavigation(wizard))

	var buf bytes.Buffer
	base := mustURL(t, "https://example.com/")
	require.NoError(t, EncodeJournal(&buf, j, base))
	assert.Equal(t, TagFull, buf.Bytes()[0])

	rec, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, TagFull, rec.Tag)
	assert.Equal(t, base.String(), rec.BaseURI.String())

	got := rec.Journal
	require.Equal(t, j.Len(), got.Len())
	assert.Equal(t, j.Current().ID(), got.Current().ID())
	assert.Equal(t, j.CurrentIndex(), got.CurrentIndex())

	for i, want := range j.Entries() {
		have, _ := got.At(i)
		assert.Equal(t, want.ID(), have.ID())
		assert.Equal(t, want.Kind(), have.Kind())
		assert.Equal(t, want.Type, have.Type)
		assert.Equal(t, want.Name, have.Name)
		assert.Equal(t, want.CustomState, have.CustomState)
		assert.Equal(t, want.ContentID(), have.ContentID())
		assert.Equal(t, want.NavigationServiceID(), have.NavigationServiceID())
		assert.Equal(t, want.IsExit(), have.IsExit())
		if want.Source != nil {
			assert.Equal(t, want.Source.String(), have.Source.String())
		}
	}

	// Shared groups stay shared.
	gf1, _ := got.At(1)
	gf2, _ := got.At(2)
	assert.Same(t, gf1.Group(), gf2.Group())
	assert.Equal(t, []byte("q=go"), gf1.Group().FormState)

	gw, _ := got.At(3)
	assert.Equal(t, wizard.PageFunction().ID, gw.PageFunction().ID)
	assert.Equal(t, parent, gw.PageFunction().ParentID)
	assert.Equal(t, "wizard", gw.PageFunction().TypeName)
	assert.Equal(t, []byte("4"), gw.PageFunction().State)
	assert.Equal(t, pf.bindings, gw.PageFunction().ReturnBindings)

	gm, _ := got.At(4)
	assert.Equal(t, "app:///step.xml", gm.PageFunction().MarkupURI.String())

	// New ids continue after the restored ones.
	next := page(t, owner, 6, "https://example.com/d")
	require.NoError(t, got.Add(next))
	assert.Equal(t, 7, next.ID())
}

func TestEncodeEmptyJournal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJournal(&buf, New(), nil))

	rec, err := Decode(&buf)
	require.NoError(t, err)
	assert.Nil(t, rec.BaseURI)
	assert.Equal(t, 0, rec.Journal.Len())
	assert.Equal(t, -1, rec.Journal.CurrentIndex())
}

func TestEncodeRejectsKeepAlive(t *testing.T) {
	j := New()
	require.NoError(t, j.Add(NewKeepAliveEntry(nil, nil, &fakeContent{})))

	var buf bytes.Buffer
	assert.ErrorIs(t, EncodeJournal(&buf, j, nil), ErrNotSerializable)
}

func TestDecodeCorruptInput(t *testing.T) {
	j, _ := filled(t, "a", "b")
	var buf bytes.Buffer
	require.NoError(t, EncodeJournal(&buf, j, nil))
	full := buf.Bytes()

	encode := func(mutate func(e []*Entry)) []byte {
		j, e := filled(t, "a", "b")
		mutate(e)
		var buf bytes.Buffer
		require.NoError(t, EncodeJournal(&buf, j, nil))
		return buf.Bytes()
	}
	duplicateIDs := encode(func(e []*Entry) { e[1].id = e[0].id })
	unknownType := encode(func(e []*Entry) { e[0].Type = EntryType(7) })

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unknown tag", []byte{0x7f}},
		{"short index", []byte{TagIndex, 0x00, 0x01}},
		{"bad version", []byte{TagFull, 0x09}},
		{"truncated journal", full[:len(full)-3]},
		{"trailing bytes", append(bytes.Clone(full), 0x00)},
		{"index trailing bytes", []byte{TagIndex, 0x00, 0x00, 0x00, 0x01, 0x00}},
		{"duplicate entry ids", duplicateIDs},
		{"unknown entry type", unknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}
