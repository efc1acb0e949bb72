package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnePoleConvergesToConstantInput(t *testing.T) {
	t.Parallel()

	f := NewOnePole(0.9)
	in := make([]float32, 2000)
	for i := range in {
		in[i] = 1.0
	}
	out := make([]float32, len(in))
	f.Process(out, in)

	assert.InDelta(t, 1.0, out[len(out)-1], 1e-3)
}

func TestOnePoleZeroCoefficientPassesThrough(t *testing.T) {
	t.Parallel()

	f := NewOnePole(0)
	in := []float32{0.1, 0.2, -0.3, 0.4}
	out := make([]float32, len(in))
	f.Process(out, in)

	for i := range in {
		assert.InDelta(t, in[i], out[i], 1e-6)
	}
}
