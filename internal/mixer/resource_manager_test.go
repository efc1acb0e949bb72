package mixer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceTrackerTrackAndRelease(t *testing.T) {
	rt := NewResourceTracker()
	defer rt.Close()

	released := false
	rt.Track("decoder-1", "codec.Decoder", func() { released = true })

	stats := rt.Stats()
	assert.EqualValues(t, 1, stats["active_count"])

	require.NoError(t, rt.Release("decoder-1"))
	assert.True(t, released)

	stats = rt.Stats()
	assert.EqualValues(t, 0, stats["active_count"])
}

func TestResourceTrackerReleaseUnknownIDErrors(t *testing.T) {
	rt := NewResourceTracker()
	defer rt.Close()

	err := rt.Release("missing")
	assert.Error(t, err)
}

func TestResourceTrackerReleaseTwiceErrors(t *testing.T) {
	rt := NewResourceTracker()
	defer rt.Close()

	rt.Track("decoder-1", "codec.Decoder", nil)
	require.NoError(t, rt.Release("decoder-1"))
	assert.Error(t, rt.Release("decoder-1"))
}

func TestManagedResourceCloseRunsOnceAndReleasesTracker(t *testing.T) {
	rt := NewResourceTracker()
	defer rt.Close()

	closed := 0
	mr := NewManagedResource("stream-1", "payload", func() error { closed++; return nil }, rt)

	require.NoError(t, mr.Close())
	require.NoError(t, mr.Close())
	assert.Equal(t, 1, closed)

	select {
	case <-mr.Context().Done():
	default:
		t.Fatal("expected context cancelled after Close")
	}
}

func TestResourcePoolEnforcesMaxActive(t *testing.T) {
	pool := NewResourcePool(func() (int, error) { return 1, nil }, nil, nil, 1, nil)

	v, err := pool.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = pool.Get()
	assert.Error(t, err)

	require.NoError(t, pool.Put(v))
	_, err = pool.Get()
	assert.NoError(t, err)
}

func TestResourcePoolResetFailureClosesInsteadOfPooling(t *testing.T) {
	closed := false
	pool := NewResourcePool(
		func() (int, error) { return 7, nil },
		func(int) error { return errors.New("reset failed") },
		func(int) error { closed = true; return nil },
		0, nil,
	)

	v, err := pool.Get()
	require.NoError(t, err)

	err = pool.Put(v)
	assert.Error(t, err)
	assert.True(t, closed)
}
