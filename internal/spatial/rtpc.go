package spatial

import (
	"math"
	"sync/atomic"
)

// Rtpc is a real-time parameter control value: a control-thread-set
// target smoothed toward by an exponential attack or release fader,
// evaluated once per block (spec §3, §5's "control-rate updates at block
// boundaries are sufficient").
type Rtpc struct {
	min, max  float64
	target    atomic.Uint64 // math.Float64bits
	current   float64
	attackTau atomic.Uint64 // math.Float64bits; time constant, seconds, 0 = instant
	releaseTau atomic.Uint64 // math.Float64bits
}

// NewRtpc constructs an Rtpc clamped to [min, max], starting at min, with
// the given attack (rising) and release (falling) time constants.
func NewRtpc(min, max, attackSeconds, releaseSeconds float64) *Rtpc {
	r := &Rtpc{min: min, max: max, current: min}
	r.target.Store(math.Float64bits(min))
	r.attackTau.Store(math.Float64bits(attackSeconds))
	r.releaseTau.Store(math.Float64bits(releaseSeconds))
	return r
}

// SetFadeTimes retargets the attack/release time constants themselves,
// letting a single Rtpc serve a per-call fade duration (spec §6.5's
// Bus.FadeToGain(value, duration)) rather than a duration fixed once at
// construction. Safe to call from a different goroutine than Update.
func (r *Rtpc) SetFadeTimes(attackSeconds, releaseSeconds float64) {
	r.attackTau.Store(math.Float64bits(attackSeconds))
	r.releaseTau.Store(math.Float64bits(releaseSeconds))
}

// SetTarget updates the value Update fades toward, clamped to [min, max].
// Safe to call from a different goroutine than Update.
func (r *Rtpc) SetTarget(value float64) {
	if value < r.min {
		value = r.min
	}
	if value > r.max {
		value = r.max
	}
	r.target.Store(math.Float64bits(value))
}

// Update advances the current value toward the target over dt seconds,
// using the attack time constant while rising and the release time
// constant while falling, and returns the new current value.
func (r *Rtpc) Update(dt float64) float64 {
	target := math.Float64frombits(r.target.Load())
	tau := math.Float64frombits(r.releaseTau.Load())
	if target > r.current {
		tau = math.Float64frombits(r.attackTau.Load())
	}
	if tau <= 0 {
		r.current = target
		return r.current
	}
	coeff := math.Exp(-dt / tau)
	r.current = target + (r.current-target)*coeff
	return r.current
}

// Value returns the current value without advancing it.
func (r *Rtpc) Value() float64 { return r.current }

// SetImmediate sets both the target and the current value to value,
// clamped to [min, max], with no fade. Useful at construction time to
// start somewhere other than min instead of fading in from it.
func (r *Rtpc) SetImmediate(value float64) {
	if value < r.min {
		value = r.min
	}
	if value > r.max {
		value = r.max
	}
	r.target.Store(math.Float64bits(value))
	r.current = value
}
