package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"docschat/internal/text"
)

// Page is one crawled document, discarded after chunking.
type Page struct {
	URL         string
	Title       string
	TextContent string
	HTMLContent string
}

// Static assets and API routes that a documentation crawl must never follow.
var excludedPatterns = []string{
	"/api/", ".json", ".xml", ".css", ".js", ".ico", ".png", ".jpg", ".svg", ".woff",
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

type Crawler struct {
	client    *http.Client
	delay     time.Duration
	userAgent string
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithDelay sets the politeness delay between fetches. Zero disables it,
// which tests rely on.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) { c.delay = d }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Crawler) { c.client.Timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(c *Crawler) { c.userAgent = ua }
}

func New(opts ...Option) *Crawler {
	c := &Crawler{
		client:    &http.Client{Timeout: 30 * time.Second},
		delay:     500 * time.Millisecond,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl walks the site breadth-first from the seed, visiting each URL at
// most once. Only relative links are followed; absolute URLs, anchors,
// mailto/tel links and static-asset paths are skipped. Fetch failures are
// logged and the page is skipped without aborting the crawl.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) ([]Page, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed url %q: %w", seedURL, err)
	}
	baseHost := seed.Host

	visited := make(map[string]bool)
	queue := []string{seed.String()}
	var pages []Page

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true
		slog.Info("crawling page", "url", current)

		doc, err := c.fetch(ctx, current)
		if err != nil {
			slog.Warn("failed to fetch page, skipping", "url", current, "error", err)
			continue
		}

		pages = append(pages, extractPage(doc, current))

		for _, link := range discoverLinks(doc, current, baseHost, visited) {
			queue = append(queue, link)
		}

		if c.delay > 0 && len(queue) > 0 {
			select {
			case <-ctx.Done():
				return pages, ctx.Err()
			case <-time.After(c.delay):
			}
		}
	}

	return pages, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return html.Parse(strings.NewReader(string(body)))
}

// extractPage prefers the first <article> subtree (the Docusaurus content
// container); without one it falls back to the whole document with
// script/style removed.
func extractPage(doc *html.Node, pageURL string) Page {
	title := pageTitle(doc)

	content := doc
	if article := findFirst(doc, atom.Article); article != nil {
		content = article
	} else {
		stripNodes(doc, atom.Script, atom.Style)
	}

	var sb strings.Builder
	// Render errors are unreachable for a tree produced by html.Parse.
	_ = html.Render(&sb, content)

	return Page{
		URL:         pageURL,
		Title:       title,
		TextContent: text.ExtractText(content),
		HTMLContent: sb.String(),
	}
}

// discoverLinks returns the not-yet-visited URLs reachable from this page.
// Relative hrefs are resolved against the current page URL, never the seed.
// Absolute URLs are skipped entirely, including same-domain ones; that
// matches the shipped crawl behavior and is pinned by tests.
func discoverLinks(doc *html.Node, currentURL, baseHost string, visited map[string]bool) []string {
	cur, err := url.Parse(currentURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := attr(n, "href"); ok {
				if resolved, ok := resolveLink(cur, baseHost, href); ok && !visited[resolved] && !seen[resolved] {
					seen[resolved] = true
					links = append(links, resolved)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func resolveLink(current *url.URL, baseHost, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := current.ResolveReference(ref)
	resolved.Fragment = ""

	if resolved.Host != baseHost {
		return "", false
	}

	lower := strings.ToLower(resolved.String())
	for _, pattern := range excludedPatterns {
		if strings.Contains(lower, pattern) {
			return "", false
		}
	}
	return resolved.String(), true
}

func pageTitle(doc *html.Node) string {
	if node := findFirst(doc, atom.Title); node != nil {
		if t := text.ExtractText(node); t != "" {
			return t
		}
	}
	return "No Title"
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func stripNodes(n *html.Node, atoms ...atom.Atom) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		remove := false
		for _, a := range atoms {
			if c.Type == html.ElementNode && c.DataAtom == a {
				remove = true
				break
			}
		}
		if remove {
			n.RemoveChild(c)
			continue
		}
		stripNodes(c, atoms...)
	}
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
