package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTravelLog(t *testing.T) {
	tl := NewTravelLog(openTestDB(t))

	_, ok, err := tl.Load("default")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tl.Save("default", []byte{0x01, 0x00, 0x00, 0x00, 0x03}, ""))
	require.NoError(t, tl.Save("default", []byte{0x01, 0x00, 0x00, 0x00, 0x04}, "https://example.com/"))
	require.NoError(t, tl.Save("work", []byte{0x02}, ""))

	record, ok, err := tl.Load("default")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00, 0x04}, record)

	sessions, err := tl.Sessions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default", "work"}, sessions)

	deleted, err := tl.Delete("work")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = tl.Delete("work")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestHistoryStore(t *testing.T) {
	hs := NewHistoryStore(openTestDB(t))

	require.NoError(t, hs.Add("https://example.com/a", "A"))
	require.NoError(t, hs.Add("https://example.com/a", ""))
	require.NoError(t, hs.Add("https://golang.org", "Go"))
	require.NoError(t, hs.Add("", "ignored"))

	entries, err := hs.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://golang.org", entries[0].URL)
	assert.Equal(t, "A", entries[1].Title, "empty title keeps the previous one")
	assert.False(t, entries[0].VisitedAt.IsZero())

	found, err := hs.Search("golang")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	assert.True(t, hs.Remove(entries[0].ID))
	assert.False(t, hs.Remove(entries[0].ID))
	assert.Equal(t, 1, hs.Count())

	require.NoError(t, hs.Clear())
	assert.Equal(t, 0, hs.Count())
}

func TestHistoryStoreTrims(t *testing.T) {
	hs := NewHistoryStore(openTestDB(t))
	hs.maxSize = 3
	for _, u := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, hs.Add("https://example.com/"+u, u))
	}

	entries, err := hs.List(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e", entries[0].Title)
	assert.Equal(t, "c", entries[2].Title)
}

func TestLoadConfigFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().JournalLimit, cfg.JournalLimit)
	assert.FileExists(t, path, "defaults are written on first load")

	require.NoError(t, os.WriteFile(path, []byte(`{"session":"work","journal_limit":5}`), 0o644))
	cfg, err = LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "work", cfg.Session)
	assert.Equal(t, 5, cfg.JournalLimit)
	assert.Equal(t, 50, cfg.PageCacheSize)
	assert.Equal(t, path, cfg.Path())

	require.NoError(t, os.WriteFile(path, []byte(`{"journal_limit":-1}`), 0o644))
	_, err = LoadConfigFrom(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = LoadConfigFrom(path)
	assert.Error(t, err)
}
