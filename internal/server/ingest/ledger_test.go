package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_ProvisionalNeedsRollback(t *testing.T) {
	l := NewLedger()
	l.Provisional("blob-1")
	l.Provisional("blob-2")
	assert.Equal(t, 2, l.Pending())
}

func TestLedger_PromoteClearsRollback(t *testing.T) {
	l := NewLedger()
	l.Provisional("blob-1")
	l.Promote("blob-1", "rec-1")
	assert.Equal(t, 0, l.Pending())

	assert.Empty(t, l.Drain())
}

func TestLedger_DrainReturnsOnlyUnpromoted(t *testing.T) {
	l := NewLedger()
	l.Provisional("blob-1")
	l.Promote("blob-1", "rec-1")
	l.Provisional("blob-2")

	entries := l.Drain()
	require.Len(t, entries, 1)
	assert.Equal(t, "blob-2", entries[0].MediaID)
	assert.True(t, entries[0].NeedsRollback)
}

func TestLedger_DrainConsumedOnce(t *testing.T) {
	l := NewLedger()
	l.Provisional("blob-1")

	require.Len(t, l.Drain(), 1)

	// The second drain sees nothing, even after new entries appear.
	l.Provisional("blob-2")
	assert.Nil(t, l.Drain())
}
