package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelayLineStartsSilent(t *testing.T) {
	d := NewDelayLine(16)
	out := make([]float32, 4)
	d.Process(out)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestDelayLineDelaysInsertedBlock(t *testing.T) {
	d := NewDelayLine(8)
	block := []float32{1, 2, 3, 4}
	d.Insert(block)

	out := make([]float32, 4)
	d.Process(out) // still reading the original zero-filled history
	for _, v := range out {
		assert.Zero(t, v)
	}

	d.Insert(block) // pushes the original zeros out entirely
	d.Process(out)
	assert.Equal(t, block, out)
}

func TestDelayLineReadAtZeroMatchesMostRecentInsert(t *testing.T) {
	d := NewDelayLine(8)
	d.Insert([]float32{1, 2, 3, 4})
	d.Insert([]float32{5, 6, 7, 8})

	out := make([]float32, 4)
	d.ReadAt(out, 0)
	assert.Equal(t, []float32{5, 6, 7, 8}, out)
}

func TestDelayLineReadAtLargerDelayReachesOlderBlock(t *testing.T) {
	d := NewDelayLine(8)
	d.Insert([]float32{1, 2, 3, 4})
	d.Insert([]float32{5, 6, 7, 8})

	out := make([]float32, 4)
	d.ReadAt(out, 4) // skip past the newest block, into the one before it
	assert.Equal(t, []float32{1, 2, 3, 4}, out)
}

func TestDelayLineReset(t *testing.T) {
	d := NewDelayLine(8)
	d.Insert([]float32{1, 2, 3, 4})
	d.Insert([]float32{1, 2, 3, 4})
	d.Reset()

	out := make([]float32, 4)
	d.Process(out)
	for _, v := range out {
		assert.Zero(t, v)
	}
}
