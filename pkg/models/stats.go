package models

// Stats summarizes the ledger contents.
type Stats struct {
	CompletedFiles int64
	CompletedSize  int64
}

// Summary aggregates the outcomes of one mirror run.
type Summary struct {
	Discovered    int
	SkippedLedger int
	SkippedDisk   int
	Transferred   int
	Failed        int
	Bytes         int64
	CrawlErrors   int
}
