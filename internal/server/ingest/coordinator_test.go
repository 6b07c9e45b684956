package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolmedia/internal/logging"
	"schoolmedia/internal/server/gateway"
	"schoolmedia/internal/server/models"
)

// flakyGateway fails deletes a configured number of times per blob before
// succeeding.
type flakyGateway struct {
	gateway.MediaGateway

	mu       sync.Mutex
	failures map[string]int
	calls    map[string]int
	deleted  []string
}

func (g *flakyGateway) Delete(ctx context.Context, mediaID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	g.calls[mediaID]++
	if g.calls[mediaID] <= g.failures[mediaID] {
		return errors.New("service unavailable")
	}
	g.deleted = append(g.deleted, mediaID)
	return nil
}

func TestCoordinator_DeleteMediaRetries(t *testing.T) {
	gw := &flakyGateway{failures: map[string]int{"blob-1": 2}}
	c := NewCoordinator(gw, logging.NewNopLogger(), 3, time.Millisecond)

	err := c.DeleteMedia(context.Background(), "blob-1")
	require.NoError(t, err)
	assert.Equal(t, 3, gw.calls["blob-1"])
}

func TestCoordinator_DeleteMediaGivesUp(t *testing.T) {
	gw := &flakyGateway{failures: map[string]int{"blob-1": 10}}
	c := NewCoordinator(gw, logging.NewNopLogger(), 2, time.Millisecond)

	err := c.DeleteMedia(context.Background(), "blob-1")
	require.Error(t, err)
	// Initial attempt plus two retries.
	assert.Equal(t, 3, gw.calls["blob-1"])
}

func TestCoordinator_RollbackBestEffort(t *testing.T) {
	gw := &flakyGateway{failures: map[string]int{"blob-1": 10}}
	c := NewCoordinator(gw, logging.NewNopLogger(), 1, time.Millisecond)

	b := NewBatch(nil, Metadata{Entity: models.EntityGallery})
	b.ledger.Provisional("blob-1")
	b.ledger.Provisional("blob-2")

	errs := c.Rollback(context.Background(), b)

	// The stuck blob is reported, the healthy one is still deleted.
	require.Len(t, errs, 1)
	var rberr *RollbackDeleteError
	require.ErrorAs(t, errs[0], &rberr)
	assert.Equal(t, "blob-1", rberr.MediaID)
	assert.Equal(t, []string{"blob-2"}, gw.deleted)
}

func TestCoordinator_RollbackDrainsOnce(t *testing.T) {
	gw := &flakyGateway{}
	c := NewCoordinator(gw, logging.NewNopLogger(), 1, time.Millisecond)

	b := NewBatch(nil, Metadata{Entity: models.EntityGallery})
	b.ledger.Provisional("blob-1")

	require.Empty(t, c.Rollback(context.Background(), b))
	assert.Equal(t, []string{"blob-1"}, gw.deleted)

	// A second drain finds a consumed ledger and deletes nothing more.
	require.Empty(t, c.Rollback(context.Background(), b))
	assert.Equal(t, []string{"blob-1"}, gw.deleted)
}

func TestCoordinator_CancelOnlyAffectsLiveBatches(t *testing.T) {
	gw := &flakyGateway{}
	c := NewCoordinator(gw, logging.NewNopLogger(), 1, time.Millisecond)

	b := NewBatch(nil, Metadata{Entity: models.EntityGallery})
	b.setState(BatchCompleted)

	c.Cancel(b)
	assert.Equal(t, BatchCompleted, b.State())
	assert.False(t, b.token.Fired())
}

func TestCoordinator_CancelFlipsStateSynchronously(t *testing.T) {
	gw := &flakyGateway{}
	c := NewCoordinator(gw, logging.NewNopLogger(), 1, time.Millisecond)

	b := NewBatch(nil, Metadata{Entity: models.EntityGallery})
	b.setState(BatchRunning)

	c.Cancel(b)
	assert.Equal(t, BatchCancelling, b.State())
	assert.True(t, b.token.Fired())

	// Cancelling twice is harmless.
	c.Cancel(b)
	assert.Equal(t, BatchCancelling, b.State())
}
