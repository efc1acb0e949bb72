package mixer

import (
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amplimix/amplimix/internal/bus"
	"github.com/amplimix/amplimix/internal/layer"
)

// constSource streams a fixed amplitude forever on the given channel
// count, never ending — deterministic and loop-free for Mix tests that
// just want a steady tone to check gain/routing behavior against.
type constSource struct {
	channels, sampleRate int
	amplitude            float32
}

func (s *constSource) Channels() int   { return s.channels }
func (s *constSource) SampleRate() int { return s.sampleRate }
func (s *constSource) Seek(int) error  { return nil }
func (s *constSource) Stream(dst [][]float32) (produced int, ended bool) {
	for c := range dst {
		for i := range dst[c] {
			dst[c][i] = s.amplitude
		}
	}
	return len(dst[0]), false
}

func testConfig() Config {
	return Config{
		SampleRate:            48000,
		BlockSize:             64,
		OutputChannels:        2,
		LayerCount:            4,
		AmbisonicOrder:        1,
		Ambisonic3D:           true,
		SpeakerLayout:         "stereo",
		MaxReflectionDistance: 50,
		ChainConfig:           layer.ChainConfig{SoundSpeed: 343, DopplerFactor: 1},
	}
}

func testRoot() *bus.Bus {
	return bus.NewBus(1, 1, 0)
}

func sumAbs(buf [][]float32) float32 {
	var total float32
	for _, ch := range buf {
		for _, s := range ch {
			if s < 0 {
				total -= s
			} else {
				total += s
			}
		}
	}
	return total
}

func TestMixProducesSilenceWithNoLayersPlaying(t *testing.T) {
	m := NewAmplimix(testConfig(), testRoot())
	out := [][]float32{make([]float32, 64), make([]float32, 64)}
	n := m.Mix(out, 64)
	assert.Equal(t, 64, n)
	assert.Equal(t, float32(0), sumAbs(out))
}

func TestMixMixesDirectLayerIntoOutput(t *testing.T) {
	m := NewAmplimix(testConfig(), testRoot())
	_, err := m.Pool().Play(layer.PlayRequest{
		Source: &constSource{channels: 1, sampleRate: 48000, amplitude: 0.5},
		BusID:  1,
		Gain:   1,
	})
	require.NoError(t, err)

	out := [][]float32{make([]float32, 64), make([]float32, 64)}
	n := m.Mix(out, 64)
	assert.Equal(t, 64, n)
	assert.Greater(t, sumAbs(out), float32(0))
}

func TestMixZeroUserBusGainSilencesLayer(t *testing.T) {
	m := NewAmplimix(testConfig(), testRoot())
	root := m.Buses().Root
	root.SetUserGainTarget(0)

	_, err := m.Pool().Play(layer.PlayRequest{
		Source: &constSource{channels: 1, sampleRate: 48000, amplitude: 0.5},
		BusID:  1,
		Gain:   1,
	})
	require.NoError(t, err)

	out := [][]float32{make([]float32, 64), make([]float32, 64)}
	m.Mix(out, 64)
	assert.Equal(t, float32(0), sumAbs(out))
}

func TestMixEncodesSpatializedLayerThroughDecodePath(t *testing.T) {
	m := NewAmplimix(testConfig(), testRoot())
	_, err := m.Pool().Play(layer.PlayRequest{
		Source:      &constSource{channels: 1, sampleRate: 48000, amplitude: 0.5},
		BusID:       1,
		Spatialized: true,
		Location:    r3.Vector{X: 1, Y: 2, Z: 0},
		Gain:        1,
	})
	require.NoError(t, err)

	out := [][]float32{make([]float32, 64), make([]float32, 64)}
	m.Mix(out, 64)
	assert.Greater(t, sumAbs(out), float32(0))
}

func TestMixStopFadesLayerOutThenReclaimsSlot(t *testing.T) {
	m := NewAmplimix(testConfig(), testRoot())
	handle, err := m.Pool().Play(layer.PlayRequest{
		Source: &constSource{channels: 1, sampleRate: 48000, amplitude: 0.5},
		BusID:  1,
		Gain:   1,
	})
	require.NoError(t, err)

	require.True(t, m.Pool().Stop(m.Commands(), handle, 10*time.Millisecond))

	out := [][]float32{make([]float32, 64), make([]float32, 64)}
	for i := 0; i < 200; i++ {
		m.Mix(out, 64)
		if m.Pool().Layer(handle.Index).State() == layer.Min {
			return
		}
	}
	t.Fatal("layer never returned to Min after Stop")
}

// TestMixStopFadeIsStillRampingWithinTheRequestedDurationWindow verifies
// spec §8 scenario 4: a 480-frame (10ms at 48kHz) fade must still be
// audibly ramping at the first post-stop block and silent only once
// 480+ frames have actually elapsed, not just whenever the current Mix
// call's block happens to end.
func TestMixStopFadeIsStillRampingWithinTheRequestedDurationWindow(t *testing.T) {
	cfg := testConfig()
	cfg.BlockSize = 1024
	m := NewAmplimix(cfg, testRoot())
	handle, err := m.Pool().Play(layer.PlayRequest{
		Source: &constSource{channels: 1, sampleRate: 48000, amplitude: 1},
		BusID:  1,
		Gain:   1,
	})
	require.NoError(t, err)

	warm := [][]float32{make([]float32, 1024), make([]float32, 1024)}
	m.Mix(warm, 1024)

	require.True(t, m.Pool().Stop(m.Commands(), handle, 10*time.Millisecond))

	out := [][]float32{make([]float32, 1024), make([]float32, 1024)}
	m.Mix(out, 1024)

	assert.Greater(t, out[0][0], float32(0), "still ramping down, not yet silent")
	for i := 480; i < 1024; i++ {
		assert.Equal(t, float32(0), out[0][i], "silent once fade_duration has elapsed")
	}
}

func TestMixCenterPanAppliesEqualPowerLaw(t *testing.T) {
	cfg := testConfig()
	cfg.BlockSize = 1024
	m := NewAmplimix(cfg, testRoot())
	_, err := m.Pool().Play(layer.PlayRequest{
		Source: &constSource{channels: 1, sampleRate: 48000, amplitude: 1},
		BusID:  1,
		Gain:   1,
		Pan:    0,
	})
	require.NoError(t, err)

	out := [][]float32{make([]float32, 1024), make([]float32, 1024)}
	m.Mix(out, 1024)

	const invSqrt2 = 0.70710678
	assert.InDelta(t, invSqrt2, out[0][500], 1e-4)
	assert.InDelta(t, invSqrt2, out[1][500], 1e-4)
	assert.InDelta(t, out[0][500], out[1][500], 1e-6, "center pan keeps left and right equal")
}

func TestMixFullLeftPanSilencesRightChannel(t *testing.T) {
	cfg := testConfig()
	cfg.BlockSize = 1024
	m := NewAmplimix(cfg, testRoot())
	_, err := m.Pool().Play(layer.PlayRequest{
		Source: &constSource{channels: 1, sampleRate: 48000, amplitude: 1},
		BusID:  1,
		Gain:   1,
		Pan:    -1,
	})
	require.NoError(t, err)

	out := [][]float32{make([]float32, 1024), make([]float32, 1024)}
	m.Mix(out, 1024)
	assert.InDelta(t, 0, out[1][500], 1e-4)
	assert.Greater(t, out[0][500], float32(0.9))
}

func TestMixStereoSourceResamplesAndUpmixesCorrectly(t *testing.T) {
	m := NewAmplimix(testConfig(), testRoot())
	_, err := m.Pool().Play(layer.PlayRequest{
		Source: &constSource{channels: 2, sampleRate: 44100, amplitude: 0.3},
		BusID:  1,
		Gain:   1,
	})
	require.NoError(t, err)

	out := [][]float32{make([]float32, 64), make([]float32, 64)}
	n := m.Mix(out, 64)
	assert.Equal(t, 64, n)
	assert.Greater(t, sumAbs(out), float32(0))
}

func TestSetListenerTransformIsAppliedBeforeNextMix(t *testing.T) {
	m := NewAmplimix(testConfig(), testRoot())
	ok := m.SetListenerTransform(r3.Vector{X: 5}, m.listenerOrientation)
	require.True(t, ok)
	assert.Equal(t, 1, m.Commands().Pending())

	out := [][]float32{make([]float32, 64), make([]float32, 64)}
	m.Mix(out, 64)
	assert.Equal(t, 0, m.Commands().Pending())
	assert.Equal(t, 5.0, m.listenerPos.X)
}
