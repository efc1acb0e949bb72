package ambisonic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestEncodeSN3DOrder0IsOmnidirectional(t *testing.T) {
	for _, a := range []float64{0, math.Pi / 2, math.Pi, -math.Pi / 3} {
		coeffs := encodeSN3D(0, true, a, 0.4)
		assert.Len(t, coeffs, 1)
		assert.InDelta(t, 1.0, coeffs[0], 1e-12)
	}
}

func TestChannelCountMatchesOrder(t *testing.T) {
	assert.Equal(t, 1, ChannelCount(0, true))
	assert.Equal(t, 4, ChannelCount(1, true))
	assert.Equal(t, 9, ChannelCount(2, true))
	assert.Equal(t, 16, ChannelCount(3, true))
	assert.Equal(t, 3, ChannelCount(1, false))
	assert.Equal(t, 5, ChannelCount(2, false))
}

func TestEncodeSN3DLengthMatchesChannelCount(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		order := rapid.IntRange(0, 3).Draw(rt, "order")
		is3D := rapid.Bool().Draw(rt, "is3D")
		azimuth := rapid.Float64Range(-math.Pi, math.Pi).Draw(rt, "azimuth")
		elevation := rapid.Float64Range(-math.Pi/2, math.Pi/2).Draw(rt, "elevation")

		coeffs := encodeSN3D(order, is3D, azimuth, elevation)
		assert.Len(t, coeffs, ChannelCount(order, is3D))
	})
}

func TestEncodeSN3DFrontDirectionHasNoLateralComponent(t *testing.T) {
	// A source straight ahead (azimuth 0, elevation 0) in 3D ACN ordering
	// should carry zero energy on ACN1 (Y, the left/right axis).
	coeffs := encodeSN3D3D(1, 0, 0)
	assert.InDelta(t, 0, coeffs[1], 1e-9)
	assert.InDelta(t, 1, coeffs[3], 1e-9) // ACN3 (X) is fully forward
}

func TestDecoderScaleKnownValues(t *testing.T) {
	assert.Equal(t, 1.0, decoderScale(0))
	assert.Equal(t, 3.0, decoderScale(1))
	assert.Equal(t, 3.0, decoderScale(3))
	assert.Equal(t, 5.0, decoderScale(4))
}
