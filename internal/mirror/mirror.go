// Package mirror orchestrates one run: crawl the remote tree, queue the
// leaf files to a bounded worker pool, and materialize each transfer under
// the mirror root with the ledger deciding what gets skipped.
package mirror

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/WaffleThief123/myrient-downloader/internal/config"
	"github.com/WaffleThief123/myrient-downloader/internal/crawler"
	"github.com/WaffleThief123/myrient-downloader/internal/db"
	"github.com/WaffleThief123/myrient-downloader/pkg/models"
	"github.com/WaffleThief123/myrient-downloader/pkg/regions"
	"github.com/WaffleThief123/myrient-downloader/pkg/utils"
)

// Mirrorer wires the crawler, the ledger and the fetch worker pool.
type Mirrorer struct {
	cfg    config.Config
	ledger *db.DB
	client *http.Client
}

// New returns a Mirrorer for one configured run. The client is shared
// between the crawler and the workers so they draw from one connection
// pool.
func New(cfg config.Config, ledger *db.DB, client *http.Client) *Mirrorer {
	return &Mirrorer{cfg: cfg, ledger: ledger, client: client}
}

// Count crawls the tree without transferring anything and returns the
// number of leaf files that would be queued, after region filtering.
func (m *Mirrorer) Count(ctx context.Context) (int, []error) {
	entries, errs := m.discover(ctx)
	return len(entries), errs
}

// Run performs the full mirror: discover, fetch, materialize, record. It
// returns a summary of every task outcome and a non-nil error when any task
// failed, crawl errors exceeded the configured tolerance, or a fatal
// ledger inconsistency aborted the run.
func (m *Mirrorer) Run(ctx context.Context) (models.Summary, error) {
	start := time.Now()
	var summary models.Summary

	entries, crawlErrs := m.discover(ctx)
	summary.Discovered = len(entries)
	summary.CrawlErrors = len(crawlErrs)
	for _, err := range crawlErrs {
		log.Printf("[WARN] %v", err)
	}

	log.Printf("[INFO] found %d files, starting %d workers", len(entries), m.cfg.Workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan models.FileEntry)
	results := make(chan models.TransferOutcome)
	// Holds the first fatal error; everything after the first is noise.
	fatal := make(chan error, 1)

	var wg sync.WaitGroup
	for i := 0; i < m.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case entry, ok := <-jobs:
					if !ok {
						return
					}
					out, fatalErr := m.process(runCtx, entry)
					if fatalErr != nil {
						select {
						case fatal <- fatalErr:
						default:
						}
						cancel()
					}
					select {
					case results <- out:
					case <-runCtx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, entry := range entries {
			if entry.IsDir {
				continue
			}
			select {
			case jobs <- entry:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	bar := pb.StartNew(len(entries))
	for out := range results {
		bar.Increment()
		switch out.Kind {
		case models.OutcomeSkippedLedger, models.OutcomeSkippedDisk:
			log.Printf("[SKIP] %s (%s)", out.Entry.RelativePath, out.Kind)
		case models.OutcomeOK:
			log.Printf("[OK]   %s (%s)", out.Entry.RelativePath, utils.FormatSize(out.Size))
		case models.OutcomeFailed:
			log.Printf("[FAIL] %s: %v", out.Entry.RelativePath, out.Err)
		}

		switch out.Kind {
		case models.OutcomeSkippedLedger:
			summary.SkippedLedger++
		case models.OutcomeSkippedDisk:
			summary.SkippedDisk++
		case models.OutcomeOK:
			summary.Transferred++
			summary.Bytes += out.Size
		case models.OutcomeFailed:
			summary.Failed++
		}
	}
	bar.Finish()

	printSummary(summary, time.Since(start))

	select {
	case err := <-fatal:
		return summary, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d of %d transfers failed", summary.Failed, summary.Discovered)
	}
	if summary.CrawlErrors > m.cfg.CrawlTolerance {
		return summary, fmt.Errorf("%d directory listings could not be crawled", summary.CrawlErrors)
	}
	return summary, nil
}

func (m *Mirrorer) discover(ctx context.Context) ([]models.FileEntry, []error) {
	c := crawler.New(m.client, m.cfg.BaseURL)
	entries, errs := c.Discover(ctx)
	if len(m.cfg.Regions) > 0 {
		total := len(entries)
		entries = regions.Filter(entries, m.cfg.Regions)
		log.Printf("[INFO] region filter %v: %d/%d files matched", m.cfg.Regions, len(entries), total)
	}
	return entries, errs
}

func printSummary(s models.Summary, elapsed time.Duration) {
	fmt.Printf("\nMirror finished in %s:\n", utils.FormatDuration(elapsed))
	fmt.Printf("- Discovered:     %d files\n", s.Discovered)
	fmt.Printf("- Transferred:    %d files (%s)\n", s.Transferred, utils.FormatSize(s.Bytes))
	fmt.Printf("- Skipped (db):   %d files\n", s.SkippedLedger)
	fmt.Printf("- Skipped (disk): %d files\n", s.SkippedDisk)
	fmt.Printf("- Failed:         %d files\n", s.Failed)
	if s.CrawlErrors > 0 {
		fmt.Printf("- Crawl errors:   %d subtrees\n", s.CrawlErrors)
	}
}
