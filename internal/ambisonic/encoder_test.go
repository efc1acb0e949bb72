package ambisonic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncoderDefaultsToOmnidirectional(t *testing.T) {
	e := NewEncoder(1, true, 0.1)
	out := NewBFormat(1, true, 8)
	mono := make([]float32, 8)
	for i := range mono {
		mono[i] = 1
	}
	e.Process(out, mono)
	for i := 0; i < 8; i++ {
		assert.InDelta(t, 1, out.Channel(0)[i], 1e-6)
		assert.InDelta(t, 0, out.Channel(1)[i], 1e-6)
	}
}

func TestEncoderCrossfadesAfterDirectionChange(t *testing.T) {
	e := NewEncoder(1, true, 0.5)
	e.SetDirection(math.Pi/2, 0, 1, nil)

	out := NewBFormat(1, true, 10)
	mono := make([]float32, 10)
	for i := range mono {
		mono[i] = 1
	}
	e.Process(out, mono)

	// First sample should still be near the previous (omnidirectional)
	// coefficient on channel 1 (Y), last sample should have reached the
	// new target.
	ch1 := out.Channel(1)
	assert.InDelta(t, 0, ch1[0], 1e-6)
	assert.InDelta(t, 1, ch1[len(ch1)-1], 1e-6)
}

func TestEncoderProcessAccumulateAdds(t *testing.T) {
	e := NewEncoder(0, true, 0.1)
	out := NewBFormat(0, true, 4)
	for i := range out.Channel(0) {
		out.Channel(0)[i] = 2
	}
	mono := []float32{1, 1, 1, 1}
	e.ProcessAccumulate(out, mono)
	for _, v := range out.Channel(0) {
		assert.InDelta(t, 3, v, 1e-6)
	}
}

func TestAcnDegreeBoundaries(t *testing.T) {
	assert.Equal(t, 0, acnDegree(0))
	assert.Equal(t, 1, acnDegree(1))
	assert.Equal(t, 1, acnDegree(3))
	assert.Equal(t, 2, acnDegree(4))
	assert.Equal(t, 2, acnDegree(8))
	assert.Equal(t, 3, acnDegree(9))
}
