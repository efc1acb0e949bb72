package ambisonic

import (
	"math"

	"github.com/amplimix/amplimix/internal/ambisonic/hrir"
	"github.com/amplimix/amplimix/internal/dsp"
)

// Binauralizer renders a BFormat stream to stereo by accumulating each
// decoder speaker's HRIR into a per-ambisonic-channel left/right
// impulse-response pair at configure time, then running one two-stage
// convolver per channel per ear at runtime and summing into stereo.
type Binauralizer struct {
	channels      int
	left, right   []*dsp.TwoStageConvolver
	blockSize     int
	normalization float32

	leftScratch, rightScratch []float32
}

// NewBinauralizer configures a Binauralizer for the given ambisonic
// order/mode against decoder's speaker set, sampling sphere's HRIRs at
// each speaker's nearest vertex. headLength/headSegment/tailSegment
// configure each per-channel two-stage convolver (spec §4.5, §4.3).
func NewBinauralizer(order int, is3D bool, decoder *Decoder, sphere *hrir.Sphere, headLength, headSegment, tailSegment int) *Binauralizer {
	channels := ChannelCount(order, is3D)
	leftIR := make([][]float32, channels)
	rightIR := make([][]float32, channels)
	for c := 0; c < channels; c++ {
		leftIR[c] = make([]float32, sphere.IRLength)
		rightIR[c] = make([]float32, sphere.IRLength)
	}

	for _, sp := range decoder.Speakers() {
		if sp.Silent {
			continue
		}
		dir := sphericalToCartesian(sp.Azimuth, sp.Elevation)
		v := sphere.Vertices[sphere.Nearest(dir)]
		for c := 0; c < channels; c++ {
			weight := float32(sp.coeffs[c])
			for i := range v.LeftIR {
				leftIR[c][i] += v.LeftIR[i] * weight
				rightIR[c][i] += v.RightIR[i] * weight
			}
		}
	}

	b := &Binauralizer{
		channels:      channels,
		left:          make([]*dsp.TwoStageConvolver, channels),
		right:         make([]*dsp.TwoStageConvolver, channels),
		blockSize:     tailSegment,
		normalization: 1,
	}
	for c := 0; c < channels; c++ {
		b.left[c] = dsp.NewTwoStageConvolver(leftIR[c], headLength, headSegment, tailSegment)
		b.right[c] = dsp.NewTwoStageConvolver(rightIR[c], headLength, headSegment, tailSegment)
	}
	b.leftScratch = make([]float32, tailSegment)
	b.rightScratch = make([]float32, tailSegment)

	b.normalization = referenceNormalization(order, is3D, leftIR, rightIR)
	return b
}

// referenceNormalization bounds peak gain by computing, via linearity,
// the combined binaural impulse response for a reference source at 90
// degrees azimuth and scaling so its peak magnitude is at most 1.
func referenceNormalization(order int, is3D bool, leftIR, rightIR [][]float32) float32 {
	coeffs := encodeSN3D(order, is3D, math.Pi/2, 0)
	if len(leftIR) == 0 || len(leftIR[0]) == 0 {
		return 1
	}
	peak := float32(0)
	irLen := len(leftIR[0])
	for i := 0; i < irLen; i++ {
		var l, r float32
		for c := range coeffs {
			w := float32(coeffs[c])
			l += leftIR[c][i] * w
			r += rightIR[c][i] * w
		}
		if a := absf32(l); a > peak {
			peak = a
		}
		if a := absf32(r); a > peak {
			peak = a
		}
	}
	if peak <= 1 {
		return 1
	}
	return 1 / peak
}

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sphericalToCartesian(azimuth, elevation float64) [3]float64 {
	ce := math.Cos(elevation)
	return [3]float64{
		math.Sin(azimuth) * ce,
		math.Cos(azimuth) * ce,
		math.Sin(elevation),
	}
}

// BlockSize returns the sample count Process expects per call.
func (b *Binauralizer) BlockSize() int { return b.blockSize }

// Process convolves in (a BlockSize()-length BFormat buffer) against
// every channel's HRIR pair and sums the result into outLeft/outRight.
func (b *Binauralizer) Process(outLeft, outRight []float32, in *BFormat) {
	for i := range outLeft {
		outLeft[i] = 0
		outRight[i] = 0
	}
	for c := 0; c < b.channels; c++ {
		ch := in.Channel(c)
		b.left[c].Process(b.leftScratch, ch)
		b.right[c].Process(b.rightScratch, ch)
		for i := range outLeft {
			outLeft[i] += b.leftScratch[i] * b.normalization
			outRight[i] += b.rightScratch[i] * b.normalization
		}
	}
}
