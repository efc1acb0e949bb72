package layer

import (
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amplimix/amplimix/internal/command"
)

func testPool(size int) *Pool {
	return NewPool(size, 64, 1, 48000, ChainConfig{SoundSpeed: 343, DopplerFactor: 1})
}

func TestPoolPlayAllocatesFirstFreeSlot(t *testing.T) {
	p := testPool(2)
	h, err := p.Play(PlayRequest{Source: &stubSource{channels: 1, sampleRate: 48000, data: []float32{1}}})
	require.NoError(t, err)
	assert.Equal(t, 0, h.Index)
	assert.Equal(t, Play, p.Layer(0).State())
}

func TestPoolPlayReturnsNoFreeLayerWhenSaturated(t *testing.T) {
	p := testPool(1)
	src := &stubSource{channels: 1, sampleRate: 48000}
	_, err := p.Play(PlayRequest{Source: src})
	require.NoError(t, err)

	_, err = p.Play(PlayRequest{Source: src})
	require.Error(t, err)
}

func TestPoolPlayRejectsNilSource(t *testing.T) {
	p := testPool(1)
	_, err := p.Play(PlayRequest{})
	assert.Error(t, err)
}

func TestPoolStopEnqueuesTransitionAndIgnoresStaleHandle(t *testing.T) {
	p := testPool(1)
	h, err := p.Play(PlayRequest{Source: &stubSource{channels: 1, sampleRate: 48000}})
	require.NoError(t, err)

	q := command.New(4)
	require.True(t, p.Stop(q, h, 10*time.Millisecond))
	q.Drain()
	assert.Equal(t, Stop, p.Layer(0).State())
	assert.Equal(t, 480, p.Layer(0).FadeFrames())

	p.Layer(0).finishStop()
	p.Reap()

	stale := h
	require.True(t, p.Stop(q, stale, 10*time.Millisecond))
	q.Drain() // silently no-ops: the slot has been reclaimed since
	assert.Equal(t, Min, p.Layer(0).State())
}

func TestPoolPauseThenResumeEnqueuesTransitions(t *testing.T) {
	p := testPool(1)
	h, err := p.Play(PlayRequest{Source: &stubSource{channels: 1, sampleRate: 48000}, Loop: true})
	require.NoError(t, err)

	q := command.New(4)
	require.True(t, p.Pause(q, h, 5*time.Millisecond))
	q.Drain()
	assert.Equal(t, Pausing, p.Layer(0).State())

	p.FinishPause(h)
	assert.Equal(t, Paused, p.Layer(0).State())

	require.True(t, p.Resume(q, h, 5*time.Millisecond))
	q.Drain()
	assert.Equal(t, Resuming, p.Layer(0).State())

	p.FinishResume(h)
	assert.Equal(t, Loop, p.Layer(0).State())
}

func TestPoolReapReclaimsHaltedLayersOnly(t *testing.T) {
	p := testPool(2)
	h0, _ := p.Play(PlayRequest{Source: &stubSource{channels: 1, sampleRate: 48000}})
	_, _ = p.Play(PlayRequest{Source: &stubSource{channels: 1, sampleRate: 48000}})

	p.Layer(h0.Index).halt()
	p.Reap()

	assert.Equal(t, Min, p.Layer(0).State())
	assert.Equal(t, Play, p.Layer(1).State())
}

func TestPoolActiveVisitsOnlyPlayingLayers(t *testing.T) {
	p := testPool(3)
	_, _ = p.Play(PlayRequest{Source: &stubSource{channels: 1, sampleRate: 48000}})
	_, _ = p.Play(PlayRequest{Source: &stubSource{channels: 1, sampleRate: 48000}, Loop: true})

	var visited int
	p.Active(func(*Layer) { visited++ })
	assert.Equal(t, 2, visited)
}

func TestPoolSetTransformUpdatesLocationAtomically(t *testing.T) {
	p := testPool(1)
	h, _ := p.Play(PlayRequest{Source: &stubSource{channels: 1, sampleRate: 48000}})

	q := command.New(4)
	require.True(t, p.SetTransform(q, h, r3.Vector{X: 1, Y: 2, Z: 3}))
	q.Drain()

	loc := p.Layer(0).Location()
	assert.Equal(t, 1.0, loc.X)
	assert.Equal(t, 2.0, loc.Y)
	assert.Equal(t, 3.0, loc.Z)
}
