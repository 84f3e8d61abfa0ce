package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/vidyasagar/navjournal/internal/browser"
	"github.com/vidyasagar/navjournal/internal/storage"
	"github.com/vidyasagar/navjournal/internal/theme"
)

func TestMain(m *testing.M) {
	theme.Set("mono")
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><head><title>%[1]s</title></head><body>
<h1>%[1]s</h1>
<p>Welcome to %[1]s. There is a <a href="/linked">linked page</a> here.</p>
</body></html>`, name)
	}))
	t.Cleanup(func() {
		srv.Close()
		browser.SharedTransport.CloseIdleConnections()
	})
	return srv
}

func openSession(t *testing.T, dir string) *Session {
	t.Helper()
	cfg := storage.DefaultConfig()
	s, err := Open(context.Background(), Options{
		Config:  &cfg,
		DataDir: dir,
		Logger:  zaptest.NewLogger(t),
		Width:   60,
	})
	require.NoError(t, err)
	return s
}

func run(t *testing.T, s *Session, line string) string {
	t.Helper()
	out, err := s.Exec(line)
	require.NoError(t, err, line)
	return out
}

func TestSessionNavigation(t *testing.T) {
	srv := newServer(t)
	s := openSession(t, t.TempDir())
	defer s.Close()

	run(t, s, "open "+srv.URL+"/alpha")
	run(t, s, "open "+srv.URL+"/beta")
	out := run(t, s, "back")
	assert.Contains(t, out, "→", "forward is available after going back")
	assert.Equal(t, "/alpha", s.Frame().Current().URL.Path)

	run(t, s, "forward")
	assert.Equal(t, "/beta", s.Frame().Current().URL.Path)

	listing := run(t, s, "list")
	assert.Contains(t, listing, "Journal")
	assert.Len(t, strings.Split(listing, "\n"), 3, "heading plus two entries")

	_, err := s.Exec("forward")
	assert.Error(t, err)
}

func TestSessionGoAndFollow(t *testing.T) {
	srv := newServer(t)
	s := openSession(t, t.TempDir())
	defer s.Close()

	run(t, s, "open "+srv.URL+"/alpha")
	first := s.Frame().Scope().Journal().Current().ID()

	links := run(t, s, "links")
	assert.Contains(t, links, "/linked")
	run(t, s, "follow 1")
	assert.Equal(t, "/linked", s.Frame().Current().URL.Path)

	run(t, s, fmt.Sprintf("go %d", first))
	assert.Equal(t, "/alpha", s.Frame().Current().URL.Path)

	out := run(t, s, "go 4242")
	assert.Contains(t, out, "not in the journal")

	_, err := s.Exec("follow 9")
	assert.Error(t, err)
	_, err = s.Exec("go x")
	assert.Error(t, err)
}

func TestSessionFragments(t *testing.T) {
	srv := newServer(t)
	s := openSession(t, t.TempDir())
	defer s.Close()

	run(t, s, "open "+srv.URL+"/alpha")
	run(t, s, "frag install")
	assert.Equal(t, "install", s.Frame().Current().URL.Fragment)
	assert.Equal(t, 2, s.Frame().Scope().Journal().Len())

	run(t, s, "back")
	assert.Empty(t, s.Frame().Current().URL.Fragment)
}

func TestSessionRestoresJournal(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()

	s := openSession(t, dir)
	run(t, s, "open "+srv.URL+"/alpha")
	run(t, s, "scroll 5")
	run(t, s, "open "+srv.URL+"/beta")
	run(t, s, "back")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")

	s = openSession(t, dir)
	defer s.Close()

	j := s.Frame().Scope().Journal()
	require.Equal(t, 2, j.Len())
	assert.Equal(t, 0, j.CurrentIndex())
	assert.True(t, s.Frame().Scope().CanGoForward())
	assert.Nil(t, s.Frame().Current(), "restored pages load on demand")

	page := run(t, s, "show")
	assert.NotEmpty(t, page)
	assert.Equal(t, "/alpha", s.Frame().Current().URL.Path)
	assert.Equal(t, 5, s.Frame().Current().Scroll)

	run(t, s, "forward")
	assert.Equal(t, "/beta", s.Frame().Current().URL.Path)
}

func TestSessionHistory(t *testing.T) {
	srv := newServer(t)
	s := openSession(t, t.TempDir())
	defer s.Close()

	assert.Contains(t, run(t, s, "history"), "no history")
	run(t, s, "open "+srv.URL+"/alpha")
	run(t, s, "open "+srv.URL+"/beta")
	run(t, s, "back")

	out := run(t, s, "history")
	assert.Contains(t, out, "/alpha")
	assert.Contains(t, out, "/beta")
	assert.Equal(t, 2, strings.Count(out, "just now"), "journal navigation is not a visit")

	assert.NotContains(t, run(t, s, "history beta"), "/alpha")
}

func TestSessionCommands(t *testing.T) {
	s := openSession(t, t.TempDir())
	defer s.Close()

	out, err := s.Exec("   ")
	require.NoError(t, err)
	assert.Empty(t, out)

	assert.Contains(t, run(t, s, "help"), "open <url|query>")
	assert.Contains(t, run(t, s, "list"), "journal is empty")
	assert.Contains(t, run(t, s, "show"), "no page loaded")
	assert.Contains(t, run(t, s, "save"), `"default"`)

	_, err = s.Exec("quit")
	assert.ErrorIs(t, err, ErrQuit)
	_, err = s.Exec("dance")
	assert.ErrorContains(t, err, "unknown command")
	_, err = s.Exec("back")
	assert.Error(t, err)
	_, err = s.Exec("open")
	assert.Error(t, err)
}

func TestSessionNotes(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()

	s := openSession(t, dir)
	run(t, s, "open "+srv.URL+"/alpha")
	assert.Contains(t, run(t, s, "note"), "Notes (0)")
	out := run(t, s, "note buy milk")
	assert.Contains(t, out, "buy milk")
	run(t, s, "note call home")
	assert.Equal(t, "Notes (2)", s.Frame().Current().Title)
	assert.Equal(t, 2, s.Frame().Scope().Journal().Len(), "adding a line does not navigate")

	run(t, s, "back")
	assert.Equal(t, "/alpha", s.Frame().Current().URL.Path)
	run(t, s, "forward")
	notes, ok := s.Frame().Content().(*notesPage)
	require.True(t, ok)
	assert.Equal(t, []string{"buy milk", "call home"}, notes.lines)
	require.NoError(t, s.Close())

	s = openSession(t, dir)
	defer s.Close()
	assert.Contains(t, run(t, s, "show"), "call home", "notes survive a restart")
}

func TestSessionTravelLogCommands(t *testing.T) {
	dir := t.TempDir()

	cfg := storage.DefaultConfig()
	cfg.Session = "work"
	work, err := Open(context.Background(), Options{Config: &cfg, DataDir: dir, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	require.NoError(t, work.Close())

	s := openSession(t, dir)
	defer s.Close()
	run(t, s, "save")

	out := run(t, s, "sessions")
	assert.Contains(t, out, "work")
	assert.Contains(t, out, "→ default")
	assert.Contains(t, out, dir)

	assert.Contains(t, run(t, s, "forget work"), `forgot session "work"`)
	assert.Contains(t, run(t, s, "forget work"), `no session "work"`)
	assert.NotContains(t, run(t, s, "sessions"), "work")

	_, err = s.Exec("forget default")
	assert.ErrorContains(t, err, "in use")
	_, err = s.Exec("forget")
	assert.Error(t, err)
}

func TestSessionEditHistory(t *testing.T) {
	srv := newServer(t)
	s := openSession(t, t.TempDir())
	defer s.Close()

	run(t, s, "open "+srv.URL+"/alpha")
	run(t, s, "open "+srv.URL+"/beta")
	visits, err := s.history.List(10)
	require.NoError(t, err)
	require.Len(t, visits, 2)

	id := visits[0].ID
	assert.Equal(t, fmt.Sprintf("removed visit %d", id), run(t, s, fmt.Sprintf("history rm %d", id)))
	assert.Equal(t, fmt.Sprintf("no visit %d", id), run(t, s, fmt.Sprintf("history rm %d", id)))
	_, err = s.Exec("history rm x")
	assert.Error(t, err)

	assert.Equal(t, "cleared 1 visits", run(t, s, "clear-history"))
	assert.Contains(t, run(t, s, "history"), "no history")
}
