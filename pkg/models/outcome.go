package models

// OutcomeKind classifies how a task terminated. Every task ends in exactly
// one of these states; none transitions back.
type OutcomeKind int

const (
	// OutcomeSkippedLedger means the ledger already holds a completed
	// record for the URL; no I/O was performed.
	OutcomeSkippedLedger OutcomeKind = iota
	// OutcomeSkippedDisk means the file was already present at the local
	// path. No ledger record is written for this case, so it is
	// re-derived every run.
	OutcomeSkippedDisk
	// OutcomeOK means the file was transferred, materialized and
	// recorded.
	OutcomeOK
	// OutcomeFailed means the transfer or materialization failed; the
	// entry is reported and retried on the next invocation.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkippedLedger:
		return "skipped-ledger"
	case OutcomeSkippedDisk:
		return "skipped-disk"
	case OutcomeOK:
		return "ok"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// TransferOutcome is the per-task result collected by the orchestrator.
// It is never persisted.
type TransferOutcome struct {
	Entry FileEntry
	Kind  OutcomeKind
	Size  int64
	Err   error
}
