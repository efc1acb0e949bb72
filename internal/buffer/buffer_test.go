package buffer

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewZeroInitialized(t *testing.T) {
	t.Parallel()

	b := New(256, 2)
	require.Equal(t, 256, b.Frames())
	require.Equal(t, 2, b.Channels())
	for c := 0; c < b.Channels(); c++ {
		for _, v := range b.Channel(c) {
			assert.Zero(t, v)
		}
	}
}

func TestChannelAlignment(t *testing.T) {
	t.Parallel()

	b := New(17, 3)
	for c := 0; c < b.Channels(); c++ {
		ch := b.Channel(c)
		require.NotEmpty(t, ch)
		addr := uintptr(unsafe.Pointer(&ch[0]))
		assert.Zero(t, addr%uintptr(Alignment), "channel %d not aligned to %d bytes", c, Alignment)
	}
}

func TestCopyFromRejectsShapeMismatch(t *testing.T) {
	t.Parallel()

	dst := New(16, 2)
	src := New(16, 1)
	err := dst.CopyFrom(src, 0, 0, 16)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCopyFromRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	dst := New(16, 2)
	src := New(16, 2)
	err := dst.CopyFrom(src, 0, 0, 17)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestAddThenSubRecoversOriginal(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		frames := rapid.IntRange(1, 128).Draw(rt, "frames")
		channels := rapid.IntRange(1, 4).Draw(rt, "channels")

		a := New(frames, channels)
		b := New(frames, channels)
		for c := 0; c < channels; c++ {
			for i := 0; i < frames; i++ {
				a.Channel(c)[i] = float32(rapid.Float64Range(-1, 1).Draw(rt, "a"))
				b.Channel(c)[i] = float32(rapid.Float64Range(-1, 1).Draw(rt, "b"))
			}
		}

		want := make([][]float32, channels)
		for c := 0; c < channels; c++ {
			want[c] = append([]float32(nil), a.Channel(c)...)
		}

		a.Add(b)
		a.Sub(b)

		for c := 0; c < channels; c++ {
			for i := 0; i < frames; i++ {
				assert.InDelta(rt, want[c][i], a.Channel(c)[i], 1e-5)
			}
		}
	})
}

func TestAddPanicsOnShapeMismatch(t *testing.T) {
	t.Parallel()

	a := New(8, 2)
	b := New(8, 1)
	assert.Panics(t, func() { a.Add(b) })
}

func TestScale(t *testing.T) {
	t.Parallel()

	b := New(4, 1)
	ch := b.Channel(0)
	for i := range ch {
		ch[i] = 1
	}
	b.Scale(0.5)
	for _, v := range ch {
		assert.InDelta(t, 0.5, v, 1e-6)
	}
}

func TestSliceCopiesWindow(t *testing.T) {
	t.Parallel()

	b := New(10, 1)
	ch := b.Channel(0)
	for i := range ch {
		ch[i] = float32(i)
	}

	s, err := b.Slice(3, 4)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 5, 6}, s.Channel(0))

	_, err = b.Slice(8, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
