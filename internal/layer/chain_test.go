package layer

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amplimix/amplimix/internal/buffer"
	"github.com/amplimix/amplimix/internal/spatial"
)

type fakeEffectInstance struct {
	wet float64
}

func (f *fakeEffectInstance) SetWet(amount float64) { f.wet = amount }
func (f *fakeEffectInstance) Process(out, in *buffer.Buffer) {
	for c := 0; c < out.Channels(); c++ {
		dst, src := out.Channel(c), in.Channel(c)
		for i := range dst {
			dst[i] = src[i] * float32(f.wet)
		}
	}
}

type fakeEffect struct {
	instances int
}

func (f *fakeEffect) CreateInstance() EffectInstance {
	f.instances++
	return &fakeEffectInstance{}
}

func flatCurve(value float64) *spatial.Curve {
	return spatial.NewCurve(
		[]spatial.CurvePoint{{X: 0, Y: value}, {X: 1, Y: value}},
		[]spatial.FaderShape{spatial.FaderLinear},
	)
}

func testChain(frames, channels int) *Chain {
	return NewChain(ChainConfig{
		ObstructionLPFCurve:  flatCurve(0),
		ObstructionGainCurve: flatCurve(1),
		OcclusionLPFCurve:    flatCurve(0),
		OcclusionGainCurve:   flatCurve(1),
		SoundSpeed:           343,
		DopplerFactor:        1,
	}, frames, channels)
}

func TestChainProcessProducesFiniteOutput(t *testing.T) {
	c := testChain(64, 1)
	buf := buffer.New(64, 1)
	ch := buf.Channel(0)
	for i := range ch {
		ch[i] = float32(math.Sin(float64(i) * 0.2))
	}
	c.Process(buf, 0.3, 0.2, 0.8, 0.9, nil)
	for _, v := range buf.Channel(0) {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestChainEnvironmentEffectCreatesInstanceOnce(t *testing.T) {
	c := testChain(32, 1)
	buf := buffer.New(32, 1)
	buf.Channel(0)[0] = 1
	eff := &fakeEffect{}

	c.Process(buf, 0, 0, 1, 1, []EnvironmentFactor{{EnvironmentID: 7, Effect: eff, Factor: 0.5}})
	c.Process(buf, 0, 0, 1, 1, []EnvironmentFactor{{EnvironmentID: 7, Effect: eff, Factor: 0.5}})

	assert.Equal(t, 1, eff.instances)
}

func TestChainEvictsEffectForDepartedEnvironment(t *testing.T) {
	c := testChain(32, 1)
	buf := buffer.New(32, 1)
	eff := &fakeEffect{}

	c.Process(buf, 0, 0, 1, 1, []EnvironmentFactor{{EnvironmentID: 1, Effect: eff, Factor: 0.5}})
	require.Len(t, c.effectOrder, 1)

	c.Process(buf, 0, 0, 1, 1, nil)
	assert.Empty(t, c.effectOrder)
}

func TestDopplerRatioIsUnityWhenStationary(t *testing.T) {
	c := testChain(32, 1)
	ratio := c.DopplerRatio(
		r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{},
		r3.Vector{X: 0, Y: 10, Z: 0}, r3.Vector{},
	)
	assert.InDelta(t, 1, ratio, 1e-9)
}

func TestDopplerRatioRisesWhenSourceApproaches(t *testing.T) {
	c := testChain(32, 1)
	// Source moving directly toward a stationary listener raises pitch.
	ratio := c.DopplerRatio(
		r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 0, Y: 10, Z: 0},
		r3.Vector{X: 0, Y: 10, Z: 0}, r3.Vector{},
	)
	assert.Greater(t, ratio, 1.0)
}

func TestDopplerRatioClampsExtremeVelocity(t *testing.T) {
	c := testChain(32, 1)
	ratio := c.DopplerRatio(
		r3.Vector{}, r3.Vector{X: 0, Y: 100000, Z: 0},
		r3.Vector{X: 0, Y: 10, Z: 0}, r3.Vector{},
	)
	assert.False(t, math.IsInf(ratio, 0))
	assert.False(t, math.IsNaN(ratio))
}

func TestChainResetClearsEffectsAndGain(t *testing.T) {
	c := testChain(32, 1)
	buf := buffer.New(32, 1)
	eff := &fakeEffect{}
	c.Process(buf, 0, 0, 1, 1, []EnvironmentFactor{{EnvironmentID: 1, Effect: eff, Factor: 0.5}})
	require.NotEmpty(t, c.effectOrder)

	c.Reset()
	assert.Empty(t, c.effectOrder)
	assert.Equal(t, float32(1), c.attenuationGain.Current())
}
