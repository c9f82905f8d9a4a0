package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateAcquireWithinCapacity(t *testing.T) {
	g := NewGate(2)

	require.NoError(t, g.Acquire(context.Background()))
	require.NoError(t, g.Acquire(context.Background()))

	st := g.Status()
	assert.Equal(t, 2, st.Running)
	assert.Equal(t, 0, st.Queued)
	assert.Equal(t, 2, st.Max)

	g.Release()
	g.Release()
	assert.Equal(t, 0, g.Status().Running)
}

func TestGateFIFOOrder(t *testing.T) {
	g := NewGate(1)
	require.NoError(t, g.Acquire(context.Background()))

	const waiters = 4
	order := make(chan int, waiters)
	started := make(chan struct{})

	for i := 0; i < waiters; i++ {
		i := i
		go func() {
			if i == 0 {
				close(started)
			} else {
				// Stagger so arrival order is deterministic.
				time.Sleep(time.Duration(i) * 20 * time.Millisecond)
			}
			if err := g.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			order <- i
			g.Release()
		}()
	}

	<-started
	time.Sleep((waiters + 1) * 20 * time.Millisecond)
	require.Equal(t, waiters, g.Status().Queued)

	g.Release()

	for want := 0; want < waiters; want++ {
		select {
		case got := <-order:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("waiter %d never admitted", want)
		}
	}
	assert.Equal(t, 0, g.Status().Running)
}

func TestGateAcquireCanceledWhileQueued(t *testing.T) {
	g := NewGate(1)
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- g.Acquire(ctx) }()

	// Wait until the goroutine is queued.
	deadline := time.Now().Add(time.Second)
	for g.Status().Queued == 0 {
		if time.Now().After(deadline) {
			t.Fatal("waiter never queued")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, 0, g.Status().Queued)

	// The held slot is unaffected by the canceled waiter.
	st := g.Status()
	assert.Equal(t, 1, st.Running)
	g.Release()
	assert.Equal(t, 0, g.Status().Running)
}

func TestGateMinimumCapacity(t *testing.T) {
	g := NewGate(0)
	assert.Equal(t, 1, g.Status().Max)

	g = NewGate(-5)
	assert.Equal(t, 1, g.Status().Max)
}

func TestGateSlotTransfersToWaiter(t *testing.T) {
	g := NewGate(1)
	require.NoError(t, g.Acquire(context.Background()))

	acquired := make(chan struct{})
	go func() {
		if err := g.Acquire(context.Background()); err == nil {
			close(acquired)
		}
	}()

	deadline := time.Now().Add(time.Second)
	for g.Status().Queued == 0 {
		if time.Now().After(deadline) {
			t.Fatal("waiter never queued")
		}
		time.Sleep(time.Millisecond)
	}

	g.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("slot not handed to waiter")
	}

	// running stays 1 across the handoff.
	assert.Equal(t, 1, g.Status().Running)
	g.Release()
}
