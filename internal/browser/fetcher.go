package browser

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vidyasagar/navjournal/internal/journal"
)

const (
	defaultTimeout   = 15 * time.Second
	maxDocumentSize  = 10 << 20
	maxRedirects     = 10
	defaultUserAgent = "navjournal/0.1 (+https://github.com/vidyasagar/navjournal)"
)

// SharedTransport pools connections for every frame in the process.
var SharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ResponseHeaderTimeout: 15 * time.Second,
	ForceAttemptHTTP2:     true,
}

// StatusError is returned when a document answers with an HTTP error.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Status)
}

// FetchResult is one fetched document.
type FetchResult struct {
	URL         string
	FinalURL    string // after redirects
	StatusCode  int
	ContentType string
	Body        []byte
	Truncated   bool
	Duration    time.Duration
}

// Fetcher retrieves documents for a frame.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher returns a Fetcher on the shared transport. An empty userAgent
// selects the default one.
func NewFetcher(userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{
		client: &http.Client{
			Transport: SharedTransport,
			Timeout:   defaultTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// FetchWithContext retrieves the document at doc. The fragment is never
// sent. A refresh bypasses every cache between the frame and the origin.
func (f *Fetcher) FetchWithContext(ctx context.Context, doc *url.URL, mode journal.Mode) (*FetchResult, error) {
	if doc == nil || doc.Host == "" {
		return nil, fmt.Errorf("%w: cannot fetch %v", journal.ErrInvalidArgument, doc)
	}
	target := documentKey(doc)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")
	if mode == journal.ModeRefresh {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{URL: target, Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	truncated := len(body) > maxDocumentSize
	if truncated {
		body = body[:maxDocumentSize]
	}

	return &FetchResult{
		URL:         target,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Truncated:   truncated,
		Duration:    time.Since(start),
	}, nil
}

// NormalizeURL turns what the user typed into a URL: schemes are kept,
// bare domains get https and anything else becomes a search.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return raw
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.Contains(raw, ".") && !strings.ContainsAny(raw, " \t"):
		return "https://" + raw
	}
	return "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(raw)
}

// IsHTML reports whether contentType names an HTML document.
func IsHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
