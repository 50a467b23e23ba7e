package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteHandler(pages map[string]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	})
}

func TestCrawl_TerminatesOnCycles(t *testing.T) {
	pages := map[string]string{
		"/":     `<html><body><a href="/a">A</a></body></html>`,
		"/a":    `<html><body><a href="/b">B</a><a href="/">Home</a></body></html>`,
		"/b":    `<html><body><a href="/a">Back</a></body></html>`,
	}
	srv := httptest.NewServer(siteHandler(pages))
	defer srv.Close()

	c := New(WithDelay(0))
	got, err := c.Crawl(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	urls := make([]string, len(got))
	for i, p := range got {
		urls[i] = p.URL
	}
	assert.Equal(t, []string{srv.URL + "/", srv.URL + "/a", srv.URL + "/b"}, urls)
}

func TestCrawl_SkipsExcludedPatterns(t *testing.T) {
	pages := map[string]string{
		"/": `<html><body>
			<a href="/docs">Docs</a>
			<a href="/api/users">API</a>
			<a href="/schema.json">Schema</a>
			<a href="/logo.png">Logo</a>
			<a href="/theme.css">Theme</a>
		</body></html>`,
		"/docs": `<html><body>Docs page</body></html>`,
	}
	srv := httptest.NewServer(siteHandler(pages))
	defer srv.Close()

	c := New(WithDelay(0))
	got, err := c.Crawl(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Equal(t, srv.URL+"/docs", got[1].URL)
}

func TestCrawl_IgnoresAbsoluteAndNonHTTPLinks(t *testing.T) {
	pages := map[string]string{
		"/": `<html><body>
			<a href="https://other.example.com/page">External</a>
			<a href="mailto:team@example.com">Mail</a>
			<a href="tel:+123">Call</a>
			<a href="#section">Anchor</a>
			<a href="/inside">Inside</a>
		</body></html>`,
		"/inside": `<html><body>Inside</body></html>`,
	}
	srv := httptest.NewServer(siteHandler(pages))
	defer srv.Close()

	c := New(WithDelay(0))
	got, err := c.Crawl(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.Len(t, got, 2)
}

func TestCrawl_ResolvesRelativeLinksAgainstCurrentPage(t *testing.T) {
	pages := map[string]string{
		"/guide/":      `<html><body><a href="install">Install</a></body></html>`,
		"/guide/install": `<html><body>Steps</body></html>`,
	}
	srv := httptest.NewServer(siteHandler(pages))
	defer srv.Close()

	c := New(WithDelay(0))
	got, err := c.Crawl(context.Background(), srv.URL+"/guide/")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, srv.URL+"/guide/install", got[1].URL)
}

func TestCrawl_StripsFragmentsBeforeDedup(t *testing.T) {
	visits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		visits++
		w.Write([]byte(`<html><body>Content</body></html>`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/page#intro">One</a>
			<a href="/page#usage">Two</a>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(WithDelay(0))
	got, err := c.Crawl(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Equal(t, 1, visits)
}

func TestCrawl_SkipsFailedFetches(t *testing.T) {
	pages := map[string]string{
		"/":   `<html><body><a href="/missing">Gone</a><a href="/ok">OK</a></body></html>`,
		"/ok": `<html><body>Fine</body></html>`,
	}
	srv := httptest.NewServer(siteHandler(pages))
	defer srv.Close()

	c := New(WithDelay(0))
	got, err := c.Crawl(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.Len(t, got, 2)
}

func TestCrawl_PrefersArticleContent(t *testing.T) {
	pages := map[string]string{
		"/": `<html><head><title>Doc Title</title></head><body>
			<nav>Site navigation</nav>
			<article><h1>Real content</h1><p>Body text.</p></article>
			<footer>Footer junk</footer>
		</body></html>`,
	}
	srv := httptest.NewServer(siteHandler(pages))
	defer srv.Close()

	c := New(WithDelay(0))
	got, err := c.Crawl(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "Doc Title", got[0].Title)
	assert.Contains(t, got[0].TextContent, "Real content")
	assert.NotContains(t, got[0].TextContent, "Site navigation")
	assert.NotContains(t, got[0].TextContent, "Footer junk")
	assert.Contains(t, got[0].HTMLContent, "<article>")
}

func TestCrawl_DefaultsTitleWhenMissing(t *testing.T) {
	pages := map[string]string{
		"/": `<html><body><p>No title here</p></body></html>`,
	}
	srv := httptest.NewServer(siteHandler(pages))
	defer srv.Close()

	c := New(WithDelay(0))
	got, err := c.Crawl(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "No Title", got[0].Title)
}

func TestCrawl_InvalidSeed(t *testing.T) {
	c := New(WithDelay(0))
	_, err := c.Crawl(context.Background(), "://bad")
	assert.Error(t, err)
}
