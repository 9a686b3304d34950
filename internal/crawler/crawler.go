// Package crawler resolves a remote directory-listing tree into the flat
// set of leaf files it contains. Traversal uses an explicit FIFO frontier
// with a visited set, so cross-linked or self-referential listings are
// walked at most once and arbitrarily deep trees cannot exhaust the stack.
package crawler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/WaffleThief123/myrient-downloader/pkg/models"
)

// CrawlError reports a failed listing fetch or parse for one subtree. The
// rest of the tree is unaffected.
type CrawlError struct {
	URL string
	Err error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl %s: %v", e.URL, e.Err)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// Crawler discovers leaf files under a single base listing URL.
type Crawler struct {
	client *http.Client
	base   string
}

// New returns a Crawler rooted at base. base must end with a slash; the
// crawl never leaves it.
func New(client *http.Client, base string) *Crawler {
	return &Crawler{client: client, base: base}
}

// Discover walks the listing tree and returns every leaf file found, plus
// one error per subtree whose listing could not be fetched or parsed. A
// partial tree with errors is a valid result; the caller decides whether to
// proceed. Cancelling ctx stops the walk at the next directory boundary.
func (c *Crawler) Discover(ctx context.Context) ([]models.FileEntry, []error) {
	var (
		entries  []models.FileEntry
		errs     []error
		frontier = []string{c.base}
		visited  = make(map[string]bool)
	)

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		dir := frontier[0]
		frontier = frontier[1:]
		if visited[dir] {
			continue
		}
		visited[dir] = true

		log.Printf("[SCAN] %s", dir)
		links, err := c.fetchListing(ctx, dir)
		if err != nil {
			errs = append(errs, &CrawlError{URL: dir, Err: err})
			continue
		}

		for _, l := range links {
			abs, err := resolve(dir, l.Href)
			if err != nil {
				continue
			}
			// Stay inside the tree being mirrored.
			if !strings.HasPrefix(abs, c.base) {
				continue
			}

			if l.IsDir {
				if !visited[abs] {
					frontier = append(frontier, abs)
				}
				continue
			}

			entries = append(entries, models.FileEntry{
				URL:          abs,
				RelativePath: c.relativePath(abs),
			})
		}
	}

	return entries, errs
}

func (c *Crawler) fetchListing(ctx context.Context, dir string) ([]Link, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dir, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return parseListing(resp.Body)
}

// relativePath derives the decoded path below the base URL, used for local
// placement under the mirror root.
func (c *Crawler) relativePath(abs string) string {
	rel := strings.TrimPrefix(abs, c.base)
	if decoded, err := url.PathUnescape(rel); err == nil {
		rel = decoded
	}
	return strings.Trim(rel, "/")
}

func resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(h).String(), nil
}
