package mirror

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/WaffleThief123/myrient-downloader/pkg/models"
)

// process runs the per-task state machine for one dequeued entry:
//
//	ledger check -> disk check -> fetch -> materialize -> record
//
// The returned outcome is terminal for this run. A non-nil second return is
// a fatal run-level error (ledger conflict or an unusable ledger store);
// task-scoped failures land in the outcome instead.
func (m *Mirrorer) process(ctx context.Context, entry models.FileEntry) (models.TransferOutcome, error) {
	out := models.TransferOutcome{Entry: entry}

	recorded, err := m.ledger.Contains(entry.URL)
	if err != nil {
		out.Kind = models.OutcomeFailed
		out.Err = err
		return out, err
	}
	if recorded {
		out.Kind = models.OutcomeSkippedLedger
		return out, nil
	}

	local := filepath.Join(m.cfg.DownloadDir, filepath.FromSlash(entry.RelativePath))
	if _, err := os.Stat(local); err == nil {
		// A lingering archive means a previous run was interrupted
		// between download and extraction; finish the job now.
		if DetectFormat(local) == FormatZip {
			if err := ExtractAndReplace(local); err != nil {
				log.Printf("[WARN] %s: %v", entry.RelativePath, err)
			}
		}
		out.Kind = models.OutcomeSkippedDisk
		return out, nil
	}

	size, err := m.fetch(ctx, entry.URL, local)
	if err != nil {
		out.Kind = models.OutcomeFailed
		out.Err = &TransferError{URL: entry.URL, Err: err}
		return out, nil
	}

	if DetectFormat(local) == FormatZip {
		if err := ExtractAndReplace(local); err != nil {
			// The archive stays on disk and no record is written,
			// so the next run resumes from here.
			out.Kind = models.OutcomeFailed
			out.Err = err
			return out, nil
		}
	}

	abs, err := filepath.Abs(local)
	if err != nil {
		abs = local
	}
	rec := models.Record{
		URL:          entry.URL,
		RelativePath: entry.RelativePath,
		LocalPath:    abs,
		CompletedAt:  time.Now().UTC(),
		Size:         size,
		Status:       models.StatusCompleted,
	}
	if err := m.ledger.Record(rec); err != nil {
		// A conflict means the ledger and the disk layout disagree;
		// any other ledger failure leaves the store unusable. Both
		// abort the run rather than papering over lost state.
		out.Kind = models.OutcomeFailed
		out.Err = err
		return out, err
	}

	out.Kind = models.OutcomeOK
	out.Size = size
	return out, nil
}

// fetch downloads url and materializes it at local. The per-request timeout
// configured on the client applies; a timeout fails this task only.
func (m *Mirrorer) fetch(ctx context.Context, url, local string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return Materialize(resp.Body, local)
}
