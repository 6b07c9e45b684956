package ingest

import "fmt"

// ItemState is the per-file lifecycle state within a batch.
type ItemState string

const (
	ItemQueued    ItemState = "queued"
	ItemUploading ItemState = "uploading"
	ItemUploaded  ItemState = "uploaded"
	ItemCommitted ItemState = "committed"
	ItemFailed    ItemState = "failed"
	ItemAborted   ItemState = "aborted"
)

// itemTransitions enumerates the legal state machine edges. Both remote calls
// are mandatory and ordered: there is no queued → committed shortcut.
// An uploaded item can still abort: the transfer may finish a moment before
// the cancel signal is observed, in which case its blob is rolled back.
var itemTransitions = map[ItemState][]ItemState{
	ItemQueued:    {ItemUploading},
	ItemUploading: {ItemUploaded, ItemAborted, ItemFailed},
	ItemUploaded:  {ItemCommitted, ItemFailed, ItemAborted},
}

// Item is one file within an upload batch.
type Item struct {
	Name        string
	ContentType string
	Size        int64

	// Payload is released once the item reaches a terminal state.
	Payload []byte

	State ItemState

	// MediaID is set once the upload succeeds, MediaURL alongside it.
	MediaID  string
	MediaURL string

	// RecordID is set once the database record is created. An item is
	// committed only when both MediaID and RecordID exist.
	RecordID string

	BytesSent int64
	Failure   string
}

// NewItem builds a queued item for the given payload.
func NewItem(name, contentType string, payload []byte) *Item {
	return &Item{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(payload)),
		Payload:     payload,
		State:       ItemQueued,
	}
}

// transition moves the item to the next state, enforcing the legal edges.
func (it *Item) transition(to ItemState) error {
	if to == ItemCommitted && (it.MediaID == "" || it.RecordID == "") {
		return fmt.Errorf("item %q: committed requires media and record identifiers", it.Name)
	}
	for _, allowed := range itemTransitions[it.State] {
		if allowed == to {
			it.State = to
			return nil
		}
	}
	return fmt.Errorf("item %q: illegal transition %s -> %s", it.Name, it.State, to)
}

// Terminal reports whether the item has reached a terminal state.
func (it *Item) Terminal() bool {
	switch it.State {
	case ItemCommitted, ItemFailed, ItemAborted:
		return true
	}
	return false
}

// release drops the payload once it is no longer needed.
func (it *Item) release() {
	it.Payload = nil
}
