package browser

import (
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/glamour"
)

// Cached glamour renderer to avoid recreation on every render call.
var (
	cachedRenderer      *glamour.TermRenderer
	cachedRendererWidth int
	rendererMu          sync.Mutex
)

// RenderedPage holds the final terminal-ready output.
type RenderedPage struct {
	Title   string
	Content string // styled terminal text
	Links   []Link
}

// Render converts an Article's HTML content into styled terminal text and
// numbers its links, resolved against the article's final URL.
func Render(article *Article, width int) *RenderedPage {
	if width <= 0 {
		width = 80
	}
	contentWidth := min(width-4, 100)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return &RenderedPage{Title: article.Title, Content: article.TextContent}
	}

	base, _ := url.Parse(article.FinalURL)
	links := ExtractLinks(doc.Selection, base)

	var md strings.Builder
	if article.Title != "" {
		md.WriteString("# " + article.Title + "\n\n")
	}
	if article.Byline != "" {
		md.WriteString("*" + article.Byline + "*\n\n")
	}
	doc.Find("h1, h2, h3, p, li, pre").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(s) {
		case "h1", "h2", "h3":
			md.WriteString("## " + text + "\n\n")
		case "li":
			md.WriteString("- " + text + "\n")
		case "pre":
			md.WriteString("```\n" + text + "\n```\n\n")
		default:
			md.WriteString(text + "\n\n")
		}
	})

	rendered, err := renderWithGlamour(md.String(), contentWidth)
	if err != nil {
		rendered = md.String()
	}

	return &RenderedPage{Title: article.Title, Content: rendered, Links: links}
}

// ExtractLinks numbers every anchor under sel, starting at 1. Relative
// hrefs are resolved against base; fragments and javascript: links are
// skipped.
func ExtractLinks(sel *goquery.Selection, base *url.URL) []Link {
	var links []Link
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if base != nil {
			u = base.ResolveReference(u)
		}
		text := strings.Join(strings.Fields(a.Text()), " ")
		if text == "" {
			text = u.String()
		}
		links = append(links, Link{Index: len(links) + 1, Text: text, URL: u.String()})
	})
	return links
}

// renderWithGlamour uses glamour to render markdown into styled terminal output.
func renderWithGlamour(markdown string, width int) (string, error) {
	rendererMu.Lock()
	defer rendererMu.Unlock()

	if cachedRenderer == nil || cachedRendererWidth != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		cachedRenderer = renderer
		cachedRendererWidth = width
	}

	return cachedRenderer.Render(markdown)
}
