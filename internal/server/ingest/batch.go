package ingest

import (
	"sync"

	"github.com/google/uuid"
)

// BatchState is the overall lifecycle state of one upload action.
type BatchState string

const (
	BatchIdle       BatchState = "idle"
	BatchRunning    BatchState = "running"
	BatchCancelling BatchState = "cancelling"
	BatchCompleted  BatchState = "completed"
	BatchCancelled  BatchState = "cancelled"
	BatchFailed     BatchState = "failed"
)

// Metadata is shared by every item of a batch and carried onto each created
// record.
type Metadata struct {
	Entity      string
	Album       string
	Year        int
	EventDate   string
	Description string
	CreatedBy   string
}

// BatchResult is the terminal outcome reported to the caller.
type BatchResult struct {
	Succeeded int
	Failed    int
	Cancelled bool
}

// Batch is one user-initiated "upload N files" action. It is owned by the
// orchestrator for its lifetime; observers only read snapshots.
type Batch struct {
	ID         string
	Meta       Metadata
	Items      []*Item
	TotalBytes int64

	token    *CancelToken
	progress *Aggregator
	ledger   *Ledger

	mu      sync.Mutex
	state   BatchState
	result  BatchResult
	failure string

	// OnProgress receives one update per underlying byte-progress event,
	// OnItemDone one discrete event per item reaching a terminal state.
	// Both are optional and invoked from the orchestrator goroutine.
	OnProgress func(pct int)
	OnItemDone func(index int, state ItemState)
}

// NewBatch assembles a batch from queued items and shared metadata.
func NewBatch(items []*Item, meta Metadata) *Batch {
	var total int64
	for _, it := range items {
		total += it.Size
	}
	return &Batch{
		ID:         uuid.NewString(),
		Meta:       meta,
		Items:      items,
		TotalBytes: total,
		token:      NewCancelToken(),
		progress:   NewAggregator(total),
		ledger:     NewLedger(),
		state:      BatchIdle,
	}
}

// State returns the current overall state.
func (b *Batch) State() BatchState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Batch) setState(s BatchState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// start atomically claims an idle batch for processing. It reports false
// when the batch already ran, finished, or was cancelled before starting.
func (b *Batch) start() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BatchIdle {
		return false
	}
	b.state = BatchRunning
	return true
}

// beginCancel atomically moves an idle or running batch to cancelling and
// reports whether the cancel took hold. Terminal and already-cancelling
// batches are left untouched.
func (b *Batch) beginCancel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BatchIdle, BatchRunning:
		b.state = BatchCancelling
		return true
	}
	return false
}

// Result returns the terminal result. Meaningful once State is terminal.
func (b *Batch) Result() BatchResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result
}

func (b *Batch) setResult(r BatchResult) {
	b.mu.Lock()
	b.result = r
	b.mu.Unlock()
}

// Percent returns the aggregate byte-weighted progress, 0–100.
func (b *Batch) Percent() int {
	return b.progress.Percent()
}

// ItemStatus is a read-only view of one item for external observers.
type ItemStatus struct {
	Name      string    `json:"name"`
	State     ItemState `json:"state"`
	BytesSent int64     `json:"bytes_sent"`
	Size      int64     `json:"size"`
	MediaURL  string    `json:"media_url,omitempty"`
	RecordID  string    `json:"record_id,omitempty"`
	Failure   string    `json:"failure,omitempty"`
}

// Status is a consistent snapshot of the whole batch for external observers.
type Status struct {
	ID        string       `json:"id"`
	State     BatchState   `json:"state"`
	Percent   int          `json:"percent"`
	Items     []ItemStatus `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Cancelled bool         `json:"cancelled"`
	Failure   string       `json:"failure,omitempty"`
}

// Snapshot copies the batch's observable state. Counts of succeeded and
// failed items are reported, never internals like stack traces.
func (b *Batch) Snapshot() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := Status{
		ID:        b.ID,
		State:     b.state,
		Percent:   b.progress.Percent(),
		Succeeded: b.result.Succeeded,
		Failed:    b.result.Failed,
		Cancelled: b.result.Cancelled,
		Failure:   b.failure,
	}
	for _, it := range b.Items {
		st.Items = append(st.Items, ItemStatus{
			Name:      it.Name,
			State:     it.State,
			BytesSent: it.BytesSent,
			Size:      it.Size,
			MediaURL:  it.MediaURL,
			RecordID:  it.RecordID,
			Failure:   it.Failure,
		})
	}
	return st
}

// mutateItem runs fn under the batch lock so snapshots stay consistent with
// item mutations performed by the orchestrator.
func (b *Batch) mutateItem(fn func()) {
	b.mu.Lock()
	fn()
	b.mu.Unlock()
}

func (b *Batch) setFailure(msg string) {
	b.mu.Lock()
	b.failure = msg
	b.mu.Unlock()
}

// release drops per-item payloads after the batch reaches a terminal,
// reconciled state.
func (b *Batch) release() {
	b.mu.Lock()
	for _, it := range b.Items {
		it.release()
	}
	b.mu.Unlock()
}
