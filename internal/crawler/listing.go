package crawler

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is one anchor extracted from a directory-listing page. An href with
// a trailing slash is a subdirectory.
type Link struct {
	Href  string
	IsDir bool
}

// parseListing extracts the usable anchors from a listing page, dropping
// parent-directory links, index pages and sort-order query links.
func parseListing(r io.Reader) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var links []Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if skipHref(href) {
			return
		}
		links = append(links, Link{
			Href:  href,
			IsDir: strings.HasSuffix(href, "/"),
		})
	})
	return links, nil
}

func skipHref(href string) bool {
	switch href {
	case "", "../", "./", "/", "index.html", "index.htm":
		return true
	}
	return strings.Contains(href, "?")
}
