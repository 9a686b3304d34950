package models

// FileEntry represents one object discovered in a remote directory listing.
type FileEntry struct {
	// URL is the absolute source address, unique within a crawl.
	URL string
	// RelativePath is the decoded path below the mirror root, used for
	// local placement.
	RelativePath string
	// IsDir marks recursion points; directories are never queued for
	// transfer.
	IsDir bool
}
