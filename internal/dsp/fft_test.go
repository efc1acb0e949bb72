package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFFTRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		size := 1 << rapid.IntRange(2, 8).Draw(rt, "log2n")
		f := NewFFT(size)

		input := make([]float32, size)
		for i := range input {
			input[i] = float32(rapid.Float64Range(-1, 1).Draw(rt, "sample"))
		}

		re := make([]float64, f.Bins())
		im := make([]float64, f.Bins())
		f.Forward(input, re, im)

		output := make([]float32, size)
		f.Inverse(re, im, output)

		for i := range input {
			assert.InDelta(rt, input[i], output[i], 1e-4)
		}
	})
}

func TestFFTRejectsNonPowerOfTwo(t *testing.T) {
	t.Parallel()
	require.Panics(t, func() { NewFFT(17) })
}

func TestFFTDCBin(t *testing.T) {
	t.Parallel()

	f := NewFFT(8)
	input := []float32{1, 1, 1, 1, 1, 1, 1, 1}
	re := make([]float64, f.Bins())
	im := make([]float64, f.Bins())
	f.Forward(input, re, im)

	assert.InDelta(t, 8.0, re[0], 1e-6)
	for i := 1; i < len(re); i++ {
		assert.InDelta(t, 0.0, re[i], 1e-6)
		assert.InDelta(t, 0.0, im[i], 1e-6)
	}
}
