package assets

import (
	"github.com/amplimix/amplimix/internal/buffer"
	"github.com/amplimix/amplimix/internal/dsp"
	"github.com/amplimix/amplimix/internal/layer"
)

// Effect is the asset-facing environment effect definition: a shared,
// read-only filter recipe that CreateInstance turns into a per-layer
// live filterInstance (spec §4.9 rule 3, grounded on original_source's
// EnvironmentProcessorInstance, which instantiates one filter per
// (environment, layer) pair and drives its wet amount from the entity's
// environment factor).
type Effect struct {
	ID   EffectID
	Name string

	Kind       dsp.BiquadKind
	Cutoff     float64
	Resonance  float64
	SampleRate float64
}

// CreateInstance builds a fresh, independent filterInstance for one
// layer's lifetime, satisfying layer.Effect.
func (e *Effect) CreateInstance() layer.EffectInstance {
	return &filterInstance{effect: e}
}

// filterInstance is one layer's live instance of an Effect: one Biquad
// per channel (built lazily, since the channel count isn't known until
// the first Process call) plus the wet-amount scalar Chain.Process sets
// from the entity's environment factor before calling Process.
type filterInstance struct {
	effect  *Effect
	filters []*dsp.Biquad
	wet     float64
}

func (f *filterInstance) SetWet(amount float64) { f.wet = amount }

func (f *filterInstance) Process(out, in *buffer.Buffer) {
	if f.filters == nil {
		f.filters = make([]*dsp.Biquad, in.Channels())
		for c := range f.filters {
			f.filters[c] = dsp.NewBiquad(f.effect.Kind, f.effect.Cutoff, f.effect.SampleRate, f.effect.Resonance)
		}
	}
	wet := float32(f.wet)
	for c := 0; c < in.Channels() && c < out.Channels(); c++ {
		f.filters[c].Process(out.Channel(c), in.Channel(c))
		dst := out.Channel(c)
		for i := range dst {
			dst[i] *= wet
		}
	}
}
