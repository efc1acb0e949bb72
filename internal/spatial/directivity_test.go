package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectivityOmnidirectionalAtZeroAlpha(t *testing.T) {
	for _, azim := range []float64{0, math.Pi / 2, math.Pi} {
		assert.InDelta(t, 1, Directivity(0, 2, azim, 0), 1e-9)
	}
}

func TestDirectivityFullCardioidFrontIsUnity(t *testing.T) {
	assert.InDelta(t, 1, Directivity(1, 1, 0, 0), 1e-9)
}

func TestDirectivityFullCardioidBehindIsZero(t *testing.T) {
	assert.InDelta(t, 0, Directivity(1, 1, math.Pi, 0), 1e-9)
}

func TestDirectivityHigherOrderSharpens(t *testing.T) {
	side := math.Pi / 4
	low := Directivity(0.5, 1, side, 0)
	high := Directivity(0.5, 4, side, 0)
	assert.Less(t, high, low)
}
