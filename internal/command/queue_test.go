package command

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoundsCapacityToPowerOfTwo(t *testing.T) {
	q := New(5)
	assert.Equal(t, 8, q.Capacity())
}

func TestEnqueueDrainAppliesInFIFOOrder(t *testing.T) {
	q := New(4)
	var order []int
	for i := 0; i < 4; i++ {
		i := i
		require.True(t, q.Enqueue(func() bool {
			order = append(order, i)
			return true
		}))
	}
	q.Drain()
	assert.Equal(t, []int{0, 1, 2, 3}, order)
	assert.Zero(t, q.Pending())
}

func TestEnqueueRejectsWhenFullWithoutSpin(t *testing.T) {
	q := New(2) // rounds to 2
	require.True(t, q.Enqueue(func() bool { return true }))
	require.True(t, q.Enqueue(func() bool { return true }))
	assert.False(t, q.Enqueue(func() bool { return true }))
}

func TestDrainSilentlyDiscardsFailedCommand(t *testing.T) {
	q := New(4)
	ran := false
	require.True(t, q.Enqueue(func() bool { return false }))
	require.True(t, q.Enqueue(func() bool { ran = true; return true }))
	assert.NotPanics(t, func() { q.Drain() })
	assert.True(t, ran)
}

func TestDrainOnEmptyQueueIsNoOp(t *testing.T) {
	q := New(4)
	assert.NotPanics(t, func() { q.Drain() })
	assert.Zero(t, q.Pending())
}

func TestPendingReflectsUndrainedCount(t *testing.T) {
	q := New(4)
	require.True(t, q.Enqueue(func() bool { return true }))
	require.True(t, q.Enqueue(func() bool { return true }))
	assert.Equal(t, 2, q.Pending())
	q.Drain()
	assert.Zero(t, q.Pending())
}

func TestWithSpinBlocksUntilRoomIsMade(t *testing.T) {
	q := New(1, WithSpin(true))
	require.True(t, q.Enqueue(func() bool { return true }))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.Enqueue(func() bool { return true })
		close(done)
	}()

	q.Drain() // makes room; the spinning Enqueue above should now succeed
	wg.Wait()
	select {
	case <-done:
	default:
		t.Fatal("spinning Enqueue did not complete after Drain made room")
	}
}

func TestSequentialEnqueueDrainCyclesDoNotCorruptIndices(t *testing.T) {
	q := New(4)
	var total int
	for cycle := 0; cycle < 100; cycle++ {
		for i := 0; i < 3; i++ {
			require.True(t, q.Enqueue(func() bool { total++; return true }))
		}
		q.Drain()
	}
	assert.Equal(t, 300, total)
}
