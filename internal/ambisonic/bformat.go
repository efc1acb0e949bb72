// Package ambisonic implements the ACN/SN3D (AmbiX) ambisonic pipeline:
// B-format storage, a moving-source encoder, a speaker-layout decoder,
// and an HRIR-sphere-driven binauralizer (spec §4.5).
package ambisonic

import "github.com/amplimix/amplimix/internal/buffer"

// ChannelCount returns the ambisonic channel count for order k, either
// 3D ((k+1)^2 channels) or horizontal-only 2D (2k+1 channels).
func ChannelCount(order int, is3D bool) int {
	if is3D {
		return (order + 1) * (order + 1)
	}
	return 2*order + 1
}

// BFormat is a planar ambisonic buffer: buffer.Buffer carrying the
// channel count an encoder/decoder pair agreed on, plus the order/3D
// flag needed to interpret ACN channel indices.
type BFormat struct {
	*buffer.Buffer
	Order int
	Is3D  bool
}

// NewBFormat allocates a zeroed B-format buffer for the given order,
// dimensionality, and frame count.
func NewBFormat(order int, is3D bool, frames int) *BFormat {
	return &BFormat{
		Buffer: buffer.New(frames, ChannelCount(order, is3D)),
		Order:  order,
		Is3D:   is3D,
	}
}
