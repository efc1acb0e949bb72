package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExpectedOutputFramesWithinOneFrameOfRatio(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		src := rapid.IntRange(8000, 96000).Draw(rt, "src")
		dst := rapid.IntRange(8000, 96000).Draw(rt, "dst")
		n := rapid.IntRange(1, 20000).Draw(rt, "n")

		c, err := NewConverter(src, dst, 2, 2)
		require.NoError(rt, err)

		expected := c.ExpectedOutputFrames(n)
		ratio := float64(dst) / float64(src)
		assert.LessOrEqual(rt, math.Abs(float64(expected)-float64(n)*ratio), float64(n)*ratio*0.01+1)
	})
}

func TestConverterRejectsUnsupportedChannelCombination(t *testing.T) {
	t.Parallel()

	_, err := NewConverter(48000, 48000, 4, 1)
	assert.ErrorIs(t, err, ErrUnsupportedChannelPolicy)
}

func TestConverterIdentityRatePreservesFrameCount(t *testing.T) {
	t.Parallel()

	c, err := NewConverter(48000, 48000, 1, 1)
	require.NoError(t, err)

	in := sineWave(440, 48000, 512)
	out := make([]float32, 512)
	_, produced := c.Process([][]float32{in}, [][]float32{out})

	assert.InDelta(t, 512, produced, 2)
}

func TestConverterMonoToStereoScalesBySqrtHalf(t *testing.T) {
	t.Parallel()

	c, err := NewConverter(48000, 48000, 1, 2)
	require.NoError(t, err)

	const n = 200
	in := make([]float32, n)
	for i := range in {
		in[i] = 1
	}
	left := make([]float32, n)
	right := make([]float32, n)
	_, produced := c.Process([][]float32{in}, [][]float32{left, right})

	require.GreaterOrEqual(t, produced, 64)
	for i := 64; i < produced; i++ {
		assert.InDelta(t, 0.70710678, left[i], 0.1)
		assert.InDelta(t, 0.70710678, right[i], 0.1)
	}
}
