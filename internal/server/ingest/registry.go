package ingest

import "sync"

// Registry tracks batches by ID so HTTP pollers can find them for status and
// cancel routing. Batches sharing the registry share no other state; each has
// its own token, aggregator and ledger.
type Registry struct {
	mu      sync.Mutex
	batches map[string]*Batch
}

func NewRegistry() *Registry {
	return &Registry{batches: make(map[string]*Batch)}
}

func (r *Registry) Add(b *Batch) {
	r.mu.Lock()
	r.batches[b.ID] = b
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (*Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	return b, ok
}

// Remove forgets a batch. Only terminal batches should be removed; the caller
// decides when the result has been consumed.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.batches, id)
	r.mu.Unlock()
}
