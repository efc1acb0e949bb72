package dsp

import "sync/atomic"

// Gain smooths transitions between target gain values across a block so
// a control-thread write never produces an audible click. The audio
// thread calls Process once per block; the control thread calls
// SetTarget from any goroutine.
type Gain struct {
	current float32
	target  atomic.Uint32 // math.Float32bits(target)
}

// NewGain constructs a Gain starting at, and targeting, initial.
func NewGain(initial float32) *Gain {
	g := &Gain{current: initial}
	g.target.Store(float32bits(initial))
	return g
}

// SetTarget updates the gain the next Process call will ramp toward.
// Safe to call from the control thread concurrently with Process.
func (g *Gain) SetTarget(target float32) {
	g.target.Store(float32bits(target))
}

// Process ramps g.current linearly toward the current target across
// len(out), writing out[i] = in[i] * gain(i). in and out may alias.
func (g *Gain) Process(out, in []float32) {
	target := float32frombits(g.target.Load())
	n := len(out)
	if n == 0 {
		return
	}
	step := (target - g.current) / float32(n)
	gain := g.current
	for i := 0; i < n; i++ {
		gain += step
		out[i] = in[i] * gain
	}
	g.current = gain
}

// ProcessAccumulate ramps gain the same way as Process but adds the
// scaled signal into out rather than overwriting it, matching the
// multiply-accumulate mode used when mixing a layer directly into a bus
// accumulator buffer.
func (g *Gain) ProcessAccumulate(out, in []float32) {
	target := float32frombits(g.target.Load())
	n := len(out)
	if n == 0 {
		return
	}
	step := (target - g.current) / float32(n)
	gain := g.current
	for i := 0; i < n; i++ {
		gain += step
		out[i] += in[i] * gain
	}
	g.current = gain
}

// Current returns the gain value reached by the most recent Process call.
func (g *Gain) Current() float32 { return g.current }

// RampInto fills dst with one block's linear gain trajectory toward the
// current target and advances g.current to dst's last value, without
// touching any signal. It lets a single Gain drive several channels of a
// multichannel buffer through the identical ramp in one advance, rather
// than calling Process per channel and replaying (and re-advancing) the
// ramp once per channel.
func (g *Gain) RampInto(dst []float32) {
	n := len(dst)
	if n == 0 {
		return
	}
	target := float32frombits(g.target.Load())
	step := (target - g.current) / float32(n)
	gain := g.current
	for i := 0; i < n; i++ {
		gain += step
		dst[i] = gain
	}
	g.current = gain
}
