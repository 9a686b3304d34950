package models

import "time"

// StatusCompleted is the only status ever persisted to the ledger; failed
// transfers are not recorded so the next run retries them.
const StatusCompleted = "completed"

// Record is the persisted fact that a transfer completed.
type Record struct {
	URL          string
	RelativePath string
	LocalPath    string
	CompletedAt  time.Time
	Size         int64
	Status       string
}
