package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WaffleThief123/myrient-downloader/pkg/models"
)

func listingPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><a href=\"../\">../</a>")
	for _, h := range hrefs {
		fmt.Fprintf(&b, "<a href=%q>%s</a>", h, h)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// Three-level tree: root -> two subdirs -> three files each, with the
// subdirs cross-linking each other. Discover must return exactly six
// entries and visit every directory once.
func TestDiscoverTree(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("dirA/", "dirB/"))
	})
	mux.HandleFunc("/dirA/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("a1.bin", "a2.bin", "a3.bin", "../dirB/"))
	})
	mux.HandleFunc("/dirB/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("b1.bin", "b2.bin", "b3.bin", "../dirA/"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Client(), srv.URL+"/")
	entries, errs := c.Discover(context.Background())
	require.Empty(t, errs)

	var paths []string
	for _, e := range entries {
		assert.False(t, e.IsDir)
		paths = append(paths, e.RelativePath)
	}
	assert.ElementsMatch(t, []string{
		"dirA/a1.bin", "dirA/a2.bin", "dirA/a3.bin",
		"dirB/b1.bin", "dirB/b2.bin", "dirB/b3.bin",
	}, paths)
}

func TestDiscoverDecodesRelativePaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("Some%20Game%20(USA).zip"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Client(), srv.URL+"/")
	entries, errs := c.Discover(context.Background())
	require.Empty(t, errs)
	require.Len(t, entries, 1)

	assert.Equal(t, srv.URL+"/Some%20Game%20(USA).zip", entries[0].URL)
	assert.Equal(t, "Some Game (USA).zip", entries[0].RelativePath)
}

// A failing subtree is reported but does not abort its siblings.
func TestDiscoverPartialFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("good/", "bad/"))
	})
	mux.HandleFunc("/good/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("file.bin"))
	})
	mux.HandleFunc("/bad/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Client(), srv.URL+"/")
	entries, errs := c.Discover(context.Background())

	require.Len(t, entries, 1)
	assert.Equal(t, "good/file.bin", entries[0].RelativePath)

	require.Len(t, errs, 1)
	var crawlErr *CrawlError
	require.ErrorAs(t, errs[0], &crawlErr)
	assert.Equal(t, srv.URL+"/bad/", crawlErr.URL)
}

// Links pointing outside the base URL are ignored entirely.
func TestDiscoverStaysUnderBase(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("inside.bin", "/outside/", "http://elsewhere.invalid/x.bin"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.Client(), srv.URL+"/files/")
	entries, errs := c.Discover(context.Background())
	require.Empty(t, errs)

	var got []models.FileEntry
	got = append(got, entries...)
	require.Len(t, got, 1)
	assert.Equal(t, "inside.bin", got[0].RelativePath)
}

func TestDiscoverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached after cancellation")
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL+"/")
	entries, errs := c.Discover(ctx)
	assert.Empty(t, entries)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}
