package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvolverIdentityImpulseResponse(t *testing.T) {
	t.Parallel()

	const segment = 64
	ir := make([]float32, segment*2)
	ir[0] = 1 // unit impulse: convolution is identity

	c := NewConvolver(ir, segment)

	in := sineWave(440, 48000, segment)
	out := make([]float32, segment)
	c.Process(out, in)

	for i := range in {
		assert.InDelta(t, in[i], out[i], 1e-4)
	}
}

func TestConvolverDelayedImpulsePreservesEnergy(t *testing.T) {
	t.Parallel()

	const segment = 32
	ir := make([]float32, segment*2)
	ir[5] = 1 // pure 5-sample delay

	c := NewConvolver(ir, segment)

	in := sineWave(220, 48000, segment)
	out1 := make([]float32, segment)
	c.Process(out1, in)

	silence := make([]float32, segment)
	out2 := make([]float32, segment)
	c.Process(out2, silence)

	// the first segment-5 delayed samples land in out1, the last 5 spill into out2's head
	for i := 0; i < segment-5; i++ {
		assert.InDelta(t, in[i], out1[i+5], 1e-4)
	}
	for i := 0; i < 5; i++ {
		assert.InDelta(t, in[segment-5+i], out2[i], 1e-4)
	}
}

func TestTwoStageConvolverProducesFiniteOutput(t *testing.T) {
	t.Parallel()

	ir := sineWave(100, 48000, 1024)
	tsc := NewTwoStageConvolver(ir, 256, 64, 256)

	in := sineWave(440, 48000, tsc.BlockSize())
	out := make([]float32, tsc.BlockSize())
	tsc.Process(out, in)

	for _, v := range out {
		assert.False(t, v != v, "output must not contain NaN") // NaN != NaN
	}
}
