package browser

import (
	"fmt"
	"net/url"
	"strconv"
)

// Page is the content a Frame displays.
type Page struct {
	URL     *url.URL
	Title   string
	Content string
	Links   []Link

	// Scroll is the reader's line offset. It is the page's form state and
	// survives back/forward even when the page is fetched again.
	Scroll int
}

// NewPage builds a page from a rendered article.
func NewPage(u *url.URL, rendered *RenderedPage) *Page {
	return &Page{
		URL:     u,
		Title:   rendered.Title,
		Content: rendered.Content,
		Links:   rendered.Links,
	}
}

// SaveState implements journal.StateSaver.
func (p *Page) SaveState() ([]byte, error) {
	return strconv.AppendInt(nil, int64(p.Scroll), 10), nil
}

// RestoreState implements journal.StateRestorer.
func (p *Page) RestoreState(state []byte) error {
	n, err := strconv.Atoi(string(state))
	if err != nil {
		return fmt.Errorf("parsing scroll offset: %w", err)
	}
	p.Scroll = n
	return nil
}

// Link returns the link numbered n.
func (p *Page) Link(n int) (Link, bool) {
	for _, l := range p.Links {
		if l.Index == n {
			return l, true
		}
	}
	return Link{}, false
}
