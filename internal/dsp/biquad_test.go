package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sineWave(freq, sampleRate float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}
	return out
}

func rms(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestBiquadLowpassAttenuatesHighFrequency(t *testing.T) {
	t.Parallel()

	const sampleRate = 48000.0
	low := sineWave(200, sampleRate, 4096)
	high := sineWave(15000, sampleRate, 4096)

	lowOut := make([]float32, len(low))
	highOut := make([]float32, len(high))

	f1 := NewBiquad(BiquadLowpass, 1000, sampleRate, 0.707)
	f1.Process(lowOut, low)

	f2 := NewBiquad(BiquadLowpass, 1000, sampleRate, 0.707)
	f2.Process(highOut, high)

	// steady state (skip the filter's settling transient)
	settle := 512
	lowRMS := rms(lowOut[settle:])
	highRMS := rms(highOut[settle:])

	assert.Greater(t, lowRMS, highRMS*2, "a 1kHz lowpass should pass 200Hz much more than 15kHz")
}

func TestBiquadResetClearsState(t *testing.T) {
	t.Parallel()

	f := NewBiquad(BiquadLowpass, 1000, 48000, 0.707)
	in := sineWave(440, 48000, 256)
	out := make([]float32, len(in))
	f.Process(out, in)
	assert.NotZero(t, f.z1)

	f.Reset()
	assert.Zero(t, f.z1)
	assert.Zero(t, f.z2)
}
