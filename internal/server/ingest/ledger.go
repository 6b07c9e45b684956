package ingest

import "sync"

// LedgerEntry records one media identifier that reached object storage during
// the current batch, and whether it still needs a compensating delete.
type LedgerEntry struct {
	MediaID  string
	RecordID string

	// NeedsRollback is true from the moment the blob is stored until the
	// matching database record is committed.
	NeedsRollback bool
}

// Ledger is the batch's rollback ledger. The orchestrator appends entries as
// items commit; the coordinator consumes the ledger exactly once when a
// cancellation or failure triggers rollback. Because items are processed
// sequentially, entry order is deterministic.
type Ledger struct {
	mu       sync.Mutex
	entries  []LedgerEntry
	consumed bool
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Provisional appends an entry for a freshly stored blob that has no record
// yet. Such an entry needs rollback until promoted.
func (l *Ledger) Provisional(mediaID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LedgerEntry{MediaID: mediaID, NeedsRollback: true})
}

// Promote marks the entry for mediaID safe: a committed record now references
// the blob, so it must not be rolled back unless the whole batch is later
// torn down by explicit admin action.
func (l *Ledger) Promote(mediaID, recordID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].MediaID == mediaID {
			l.entries[i].RecordID = recordID
			l.entries[i].NeedsRollback = false
			return
		}
	}
}

// Pending returns how many entries still need rollback.
func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.NeedsRollback {
			n++
		}
	}
	return n
}

// Drain returns the entries still needing rollback and clears the ledger.
// A ledger can be drained only once; later calls return nil.
func (l *Ledger) Drain() []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.consumed {
		return nil
	}
	l.consumed = true
	var pending []LedgerEntry
	for _, e := range l.entries {
		if e.NeedsRollback {
			pending = append(pending, e)
		}
	}
	l.entries = nil
	return pending
}
