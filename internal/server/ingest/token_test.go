package ingest

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelToken_FireAbortsArmed(t *testing.T) {
	tok := NewCancelToken()

	var aborts int32
	tok.Arm(func() { atomic.AddInt32(&aborts, 1) })

	tok.Fire()
	assert.True(t, tok.Fired())
	assert.Equal(t, int32(1), atomic.LoadInt32(&aborts))

	// Firing again must not re-invoke the abort.
	tok.Fire()
	assert.Equal(t, int32(1), atomic.LoadInt32(&aborts))
}

func TestCancelToken_ArmAfterFireAbortsImmediately(t *testing.T) {
	tok := NewCancelToken()
	tok.Fire()

	var aborts int32
	tok.Arm(func() { atomic.AddInt32(&aborts, 1) })
	assert.Equal(t, int32(1), atomic.LoadInt32(&aborts))
}

func TestCancelToken_DisarmedTransferNotAborted(t *testing.T) {
	tok := NewCancelToken()

	var aborts int32
	tok.Arm(func() { atomic.AddInt32(&aborts, 1) })
	tok.Disarm()

	tok.Fire()
	assert.True(t, tok.Fired())
	assert.Equal(t, int32(0), atomic.LoadInt32(&aborts))
}
