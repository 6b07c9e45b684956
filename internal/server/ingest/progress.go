package ingest

import (
	"math"
	"sync"
)

// Aggregator combines per-item byte counters into one overall percentage for
// a batch. Aggregation is byte-weighted, not item-weighted, so one large file
// does not make the percentage jump disproportionately against several small
// ones.
//
// The orchestrator is the only writer; HTTP pollers read Percent
// concurrently, hence the mutex.
type Aggregator struct {
	mu      sync.Mutex
	total   int64
	perItem map[int]int64
}

// NewAggregator initializes the aggregator with the precomputed byte total
// across the whole batch.
func NewAggregator(totalBytes int64) *Aggregator {
	return &Aggregator{total: totalBytes, perItem: make(map[int]int64)}
}

// Report records the cumulative bytes transferred for one item and returns
// the current overall percentage. Items not reported yet contribute zero.
func (a *Aggregator) Report(itemIndex int, bytesTransferred int64) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if bytesTransferred > a.perItem[itemIndex] {
		a.perItem[itemIndex] = bytesTransferred
	}
	return a.percentLocked()
}

// MarkDone pins an item's counter to its final byte size.
func (a *Aggregator) MarkDone(itemIndex int, finalBytes int64) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.perItem[itemIndex] = finalBytes
	return a.percentLocked()
}

// Percent returns the current overall percentage, 0–100.
func (a *Aggregator) Percent() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.percentLocked()
}

func (a *Aggregator) percentLocked() int {
	// A zero-byte batch has nothing to transfer; report done immediately
	// instead of dividing by zero.
	if a.total <= 0 {
		return 100
	}
	var completed int64
	for _, b := range a.perItem {
		completed += b
	}
	if completed > a.total {
		completed = a.total
	}
	return int(math.Round(100 * float64(completed) / float64(a.total)))
}
