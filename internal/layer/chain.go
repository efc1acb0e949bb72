package layer

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/amplimix/amplimix/internal/buffer"
	"github.com/amplimix/amplimix/internal/dsp"
	"github.com/amplimix/amplimix/internal/spatial"
)

// Effect creates per-layer instances of an environment's wet effect
// (reverb, filter, whatever the asset defines). The core treats it as
// opaque; it never mutates the asset, only calls CreateInstance (spec
// §4.14).
type Effect interface {
	CreateInstance() EffectInstance
}

// EffectInstance is one layer's live instance of an Effect, owned by the
// layer and destroyed when the layer ends (spec §4.9 rule 3).
type EffectInstance interface {
	SetWet(amount float64)
	Process(out, in *buffer.Buffer)
}

// EnvironmentFactor is one environment the entity currently belongs to,
// along with the blend factor to drive that environment's effect at.
// Chain.Process expects these pre-sorted by Factor, descending, per spec
// §4.9 rule 3.
type EnvironmentFactor struct {
	EnvironmentID uint64
	Effect        Effect
	Factor        float64
}

// Chain is the per-layer processor chain (spec §4.9): obstruction and
// occlusion filtering, environment effect summation, directivity/
// attenuation gain, and doppler pitch. One Chain belongs to exactly one
// Layer for its lifetime; Reset prepares it for reuse by a new layer.
type Chain struct {
	// One filter per channel: each channel is an independent sample
	// stream and must not share a OnePole's internal state with another.
	obstructionFilters []*dsp.OnePole
	occlusionFilters   []*dsp.OnePole
	obstructionGain    *dsp.Gain
	occlusionGain      *dsp.Gain
	attenuationGain    *dsp.Gain

	obstructionLPFCurve  *spatial.Curve
	obstructionGainCurve *spatial.Curve
	occlusionLPFCurve    *spatial.Curve
	occlusionGainCurve   *spatial.Curve

	soundSpeed    float64
	dopplerFactor float64

	effects     map[uint64]EffectInstance
	effectOrder []uint64 // insertion order, for deterministic cleanup

	wet      *buffer.Buffer // scratch for one environment's effect output
	obsScale []float32
	occScale []float32
}

// ChainConfig carries the engine-wide curves and constants a Chain needs;
// these are shared, read-only assets borrowed for the Chain's lifetime,
// not owned by it (spec §4, ownership summary).
type ChainConfig struct {
	ObstructionLPFCurve  *spatial.Curve
	ObstructionGainCurve *spatial.Curve
	OcclusionLPFCurve    *spatial.Curve
	OcclusionGainCurve   *spatial.Curve
	SoundSpeed           float64
	DopplerFactor        float64
}

// NewChain constructs a Chain sized for the given block/channel shape.
func NewChain(cfg ChainConfig, frames, channels int) *Chain {
	obstructionFilters := make([]*dsp.OnePole, channels)
	occlusionFilters := make([]*dsp.OnePole, channels)
	for i := range obstructionFilters {
		obstructionFilters[i] = dsp.NewOnePole(0)
		occlusionFilters[i] = dsp.NewOnePole(0)
	}
	return &Chain{
		obstructionFilters:   obstructionFilters,
		occlusionFilters:     occlusionFilters,
		obstructionGain:      dsp.NewGain(1),
		occlusionGain:        dsp.NewGain(1),
		attenuationGain:      dsp.NewGain(1),
		obstructionLPFCurve:  cfg.ObstructionLPFCurve,
		obstructionGainCurve: cfg.ObstructionGainCurve,
		occlusionLPFCurve:    cfg.OcclusionLPFCurve,
		occlusionGainCurve:   cfg.OcclusionGainCurve,
		soundSpeed:           cfg.SoundSpeed,
		dopplerFactor:        cfg.DopplerFactor,
		effects:              make(map[uint64]EffectInstance),
		wet:                  buffer.New(frames, channels),
		obsScale:             make([]float32, frames),
		occScale:             make([]float32, frames),
	}
}

// Process runs the chain in place on buf: obstruction, occlusion,
// environment effects, then directivity/attenuation gain (spec §4.9
// steps 1-4). Doppler (step 5) is computed separately by DopplerRatio
// since it affects the *next* block's resample ratio, not this block's
// samples.
func (c *Chain) Process(buf *buffer.Buffer, obstruction, occlusion, listenerDirectivity, sourceDirectivity float64, environments []EnvironmentFactor) {
	var obstructionCoeff, occlusionCoeff float32
	if c.obstructionLPFCurve != nil {
		obstructionCoeff = float32(c.obstructionLPFCurve.Evaluate(obstruction))
	}
	if c.obstructionGainCurve != nil {
		c.obstructionGain.SetTarget(float32(c.obstructionGainCurve.Evaluate(obstruction)))
	}
	occlusionAmount := occlusion * listenerDirectivity * sourceDirectivity
	if c.occlusionLPFCurve != nil {
		occlusionCoeff = float32(c.occlusionLPFCurve.Evaluate(occlusionAmount))
	}
	if c.occlusionGainCurve != nil {
		c.occlusionGain.SetTarget(float32(c.occlusionGainCurve.Evaluate(occlusionAmount)))
	}

	c.obstructionGain.RampInto(c.obsScale)
	c.occlusionGain.RampInto(c.occScale)
	for ch := 0; ch < buf.Channels(); ch++ {
		channel := buf.Channel(ch)
		c.obstructionFilters[ch].SetCoefficient(obstructionCoeff)
		c.obstructionFilters[ch].Process(channel, channel)
		for i, s := range channel {
			channel[i] = s * c.obsScale[i]
		}
		c.occlusionFilters[ch].SetCoefficient(occlusionCoeff)
		c.occlusionFilters[ch].Process(channel, channel)
		for i, s := range channel {
			channel[i] = s * c.occScale[i]
		}
	}

	c.runEnvironments(buf, environments)

	c.attenuationGain.RampInto(c.obsScale) // reuse scratch; distinct block phase from obstruction above
	for ch := 0; ch < buf.Channels(); ch++ {
		channel := buf.Channel(ch)
		for i, s := range channel {
			channel[i] = s * c.obsScale[i]
		}
	}
}

// runEnvironments instantiates (on first use) and runs each environment's
// effect, summing wet output back into buf (spec §4.9 rule 3).
func (c *Chain) runEnvironments(buf *buffer.Buffer, environments []EnvironmentFactor) {
	seen := make(map[uint64]bool, len(environments))
	for _, env := range environments {
		seen[env.EnvironmentID] = true
		inst, ok := c.effects[env.EnvironmentID]
		if !ok {
			inst = env.Effect.CreateInstance()
			c.effects[env.EnvironmentID] = inst
			c.effectOrder = append(c.effectOrder, env.EnvironmentID)
		}
		inst.SetWet(env.Factor)
		inst.Process(c.wet, buf)
		buf.Add(c.wet)
	}
	c.evictStaleEffects(seen)
}

// evictStaleEffects destroys effect instances for environments the entity
// no longer belongs to, keeping c.effects from growing unbounded as an
// entity moves between environment volumes over a session.
func (c *Chain) evictStaleEffects(seen map[uint64]bool) {
	kept := c.effectOrder[:0]
	for _, id := range c.effectOrder {
		if seen[id] {
			kept = append(kept, id)
			continue
		}
		delete(c.effects, id)
	}
	c.effectOrder = kept
}

// SetAttenuationGain sets the constant-per-block directivity/attenuation
// gain the chain smooths toward (spec §4.9 step 4).
func (c *Chain) SetAttenuationGain(gain float64) {
	c.attenuationGain.SetTarget(float32(gain))
}

// DopplerRatio computes the doppler-shifted sample-rate ratio for the
// next block from source and listener velocities projected onto the
// source-to-listener axis, clamped so neither velocity can exceed
// sound_speed/doppler_factor (spec §4.9 step 5).
func (c *Chain) DopplerRatio(sourcePos, sourceVel, listenerPos, listenerVel r3.Vector) float64 {
	axis := listenerPos.Sub(sourcePos)
	if axis.Norm() < 1e-9 {
		return 1
	}
	axis = axis.Normalize()

	limit := c.soundSpeed / c.dopplerFactor
	if limit <= 0 {
		return 1
	}

	sourceSpeed := clampAbs(sourceVel.Dot(axis), limit)
	listenerSpeed := clampAbs(listenerVel.Dot(axis), limit)

	numerator := c.soundSpeed - listenerSpeed
	denominator := c.soundSpeed - sourceSpeed
	if denominator == 0 {
		return 1
	}
	ratio := numerator / denominator
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio <= 0 {
		return 1
	}
	return ratio
}

func clampAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// Reset clears filter and gain state and releases all cached effect
// instances, preparing the Chain for reuse by a newly allocated layer
// (spec §4.10: "its per-effect caches are cleaned up" at halt→min).
func (c *Chain) Reset() {
	for _, f := range c.obstructionFilters {
		f.Reset()
	}
	for _, f := range c.occlusionFilters {
		f.Reset()
	}
	c.obstructionGain = dsp.NewGain(1)
	c.occlusionGain = dsp.NewGain(1)
	c.attenuationGain = dsp.NewGain(1)
	c.effects = make(map[uint64]EffectInstance)
	c.effectOrder = nil
}
