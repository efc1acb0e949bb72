// Package mixer implements Amplimix, the per-block pipeline orchestrator
// (spec §4.13) that ties the layer pool, command queue, bus tree,
// reflections processor, and ambisonic encode/decode/binauralize chain
// into the single Mix call the device driver invokes every block.
package mixer

import (
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"github.com/amplimix/amplimix/internal/ambisonic"
	"github.com/amplimix/amplimix/internal/ambisonic/hrir"
	"github.com/amplimix/amplimix/internal/buffer"
	"github.com/amplimix/amplimix/internal/bus"
	"github.com/amplimix/amplimix/internal/command"
	"github.com/amplimix/amplimix/internal/dsp"
	"github.com/amplimix/amplimix/internal/layer"
	"github.com/amplimix/amplimix/internal/reflections"
	"github.com/amplimix/amplimix/internal/spatial"
)

// maxResampleRatio bounds how far SetPlaySpeed/SetPitch/Doppler may push
// a layer's effective source rate away from its native rate, so each
// layer's pull scratch buffer can be sized once at construction instead
// of growing on the audio thread.
const maxResampleRatio = 4.0

// layerWorkingChannels is the fixed channel width every layer.Chain in
// the pool is built for (spec §4.9: a Chain is sized once, at pool
// construction, for every slot alike). Every layer resamples into
// stereo regardless of its source or spatialization mode; a spatialized
// layer's mono encoder input is then a cheap L+R average rather than a
// second converter pass.
const layerWorkingChannels = 2

// encoderCrossfadeFraction is the fraction of a block the per-layer
// ambisonic encoder spends crossfading after a direction change (spec
// §4.13 step 2d: "source encoder with crossfade on moved sources").
const encoderCrossfadeFraction = 0.25

// Hook is a before-/after-mix callback (spec §4.13: "run on the audio
// thread just before step 1 and just after step 5"). master holds
// frames valid samples per channel; hooks must not resize it.
type Hook func(master *buffer.Buffer, frames int)

// Config configures one Amplimix instance. All fields are read once at
// NewAmplimix and never mutated afterward.
type Config struct {
	SampleRate     int
	BlockSize      int
	OutputChannels int // 1, 2, 4, 6 or 8 (spec §6.1 DeviceDescription)

	LayerCount     int
	AmbisonicOrder int
	Ambisonic3D    bool

	// SpeakerLayout names the ambisonic.Decoder layout used when
	// HRIRSphere is nil (direct speaker decode instead of binaural).
	SpeakerLayout                       string
	HRIRSphere                          *hrir.Sphere
	HeadLength, HeadSegment, TailSegment int

	MaxReflectionDistance float64
	MasterGainSeconds     float64

	ChainConfig layer.ChainConfig
	Attenuation *spatial.Attenuation

	Metrics *Metrics
	Health  *HealthMonitor
}

// layerRuntime holds the per-layer-slot scratch state the orchestrator
// rebuilds whenever that slot's occupant (layer.ID.Gen) or source format
// changes: a resample converter, an ambisonic encoder (spatialized
// layers only), a stop fade, and pull/convert buffers sized once against
// maxResampleRatio. Mix still allocates for an already-running layer on
// every block: mixLayer builds its pullDst/convDst slice tables per call,
// dsp.Converter.Process builds a widened input buffer per channel, and
// SetSampleRate rebuilds the converter's history buffers.
type layerRuntime struct {
	gen                  uint64
	srcChannels, srcRate int

	converter       *dsp.Converter
	lastVirtualRate int
	encoder         *ambisonic.Encoder

	// Stop/Pausing/Resuming fade envelope: a linear ramp from fadeFrom to
	// fadeTo over fadeTotal frames, fadeElapsed of which have already
	// played, persisting across Mix calls so a fade_duration longer than
	// one block still completes at the right wall-clock time (spec
	// §6.5's per-call fade_duration; see DESIGN.md for why dsp.Gain's
	// block-relative RampInto can't express this). lastFadeSeq detects a
	// fresh Stop/Pause/Resume request versus one already being tracked.
	fadeTotal, fadeElapsed  int
	fadeFrom, fadeTo        float32
	fadeLevel               float32
	lastFadeSeq             int

	// hasPrevLocation/prevLocation back the per-layer velocity
	// derivation: velocity is (Location - prevLocation) / dt, computed
	// fresh each block rather than trusted from an external caller (spec
	// §3, §6's SetEntityLocation has no velocity parameter).
	hasPrevLocation bool
	prevLocation    r3.Vector

	pull        [][]float32 // [srcChannels][blockSize*maxResampleRatio]
	converted   *buffer.Buffer // always layerWorkingChannels wide
	monoScratch []float32      // spatialized layers' L+R average, feeds the encoder
	fadeScratch []float32
}

// Amplimix is the realtime pipeline orchestrator. One instance owns one
// device's worth of mixing state; the device driver calls Mix once per
// callback.
type Amplimix struct {
	cfg Config

	pool     *layer.Pool
	commands *command.Queue
	buses    *bus.Tree
	busByID  map[uint64]*bus.Bus
	reflect  *reflections.Processor

	decoder      *ambisonic.Decoder
	binauralizer *ambisonic.Binauralizer
	speakerOut   [][]float32 // scratch for non-binaural speaker decode

	listenerMu          sync.Mutex
	listenerPos         r3.Vector
	listenerOrientation spatial.Orientation

	// hasPrevListenerPos/prevListenerPos back the per-block listener
	// velocity derivation (spec §3: velocity is "derived from position
	// delta per frame", not an independently settable parameter).
	hasPrevListenerPos bool
	prevListenerPos    r3.Vector

	ambiAccum   *ambisonic.BFormat
	reflAccum   *ambisonic.BFormat
	directAccum *buffer.Buffer
	master      *buffer.Buffer

	masterGain *dsp.Gain
	gainScratch []float32

	runtimes []*layerRuntime

	beforeMix, afterMix Hook

	// audioMu is the spec §5 "one coarse audio mutex, taken by the audio
	// thread for the duration of Mix, which the control thread may take
	// to perform a batch of updates outside the realtime path".
	audioMu sync.Mutex

	metrics *Metrics
	health  *HealthMonitor
}

// NewAmplimix constructs an orchestrator from cfg and root, the bus
// tree's root bus. It preallocates the shared scratch buffers and layer
// slots up front; per-layer runtime state is built on the first Mix
// after Play (see layerRuntime).
func NewAmplimix(cfg Config, root *bus.Bus) *Amplimix {
	tree := bus.NewTree(root)
	busByID := make(map[uint64]*bus.Bus, len(tree.All()))
	for _, b := range tree.All() {
		busByID[b.ID] = b
	}

	m := &Amplimix{
		cfg:                 cfg,
		pool:                layer.NewPool(cfg.LayerCount, cfg.BlockSize, layerWorkingChannels, cfg.SampleRate, cfg.ChainConfig),
		commands:            command.New(cfg.LayerCount * 4),
		buses:               tree,
		busByID:             busByID,
		reflect:             reflections.NewProcessor(cfg.SampleRate, cfg.BlockSize, cfg.MaxReflectionDistance),
		decoder:             ambisonic.NewDecoder(cfg.AmbisonicOrder, cfg.Ambisonic3D, cfg.SpeakerLayout),
		listenerOrientation: spatial.NewOrientation(r3.Vector{Y: 1}, r3.Vector{Z: 1}),
		ambiAccum:           ambisonic.NewBFormat(cfg.AmbisonicOrder, cfg.Ambisonic3D, cfg.BlockSize),
		reflAccum:           ambisonic.NewBFormat(1, true, cfg.BlockSize),
		directAccum:         buffer.New(cfg.BlockSize, layerWorkingChannels),
		master:              buffer.New(cfg.BlockSize, cfg.OutputChannels),
		masterGain:          dsp.NewGain(1),
		gainScratch:         make([]float32, cfg.BlockSize),
		runtimes:            make([]*layerRuntime, cfg.LayerCount),
		metrics:             cfg.Metrics,
		health:              cfg.Health,
	}

	if cfg.HRIRSphere != nil {
		m.binauralizer = ambisonic.NewBinauralizer(cfg.AmbisonicOrder, cfg.Ambisonic3D, m.decoder, cfg.HRIRSphere, cfg.HeadLength, cfg.HeadSegment, cfg.TailSegment)
	} else {
		m.speakerOut = make([][]float32, m.decoder.SpeakerCount())
		for i := range m.speakerOut {
			m.speakerOut[i] = make([]float32, cfg.BlockSize)
		}
	}

	for i := range m.runtimes {
		m.runtimes[i] = &layerRuntime{}
	}

	return m
}

// SetHooks installs the before/after-mix callbacks (spec §4.13).
func (m *Amplimix) SetHooks(before, after Hook) {
	m.audioMu.Lock()
	defer m.audioMu.Unlock()
	m.beforeMix, m.afterMix = before, after
}

// Pool exposes the layer pool for Play/Stop/SetTransform calls.
func (m *Amplimix) Pool() *layer.Pool { return m.pool }

// Commands exposes the SPSC command queue backing layer mutation and
// listener transform updates (spec §5).
func (m *Amplimix) Commands() *command.Queue { return m.commands }

// Buses exposes the bus tree for bus-level gain/duck configuration.
func (m *Amplimix) Buses() *bus.Tree { return m.buses }

// SetMasterGain sets the target master gain, ramped toward over
// subsequent blocks the same way a layer's per-stage gains are (bare
// atomic target, spec §5).
func (m *Amplimix) SetMasterGain(target float32) { m.masterGain.SetTarget(target) }

// SetListenerTransform enqueues a listener location/orientation update,
// observed at the start of the next Mix call (spec §5: listener
// location, like layer location, is a multi-word update routed through
// the command queue). Velocity is not a parameter: Mix derives it each
// block from consecutive listener locations (spec §3, §6.5's control
// surface exposes only SetListenerLocation).
func (m *Amplimix) SetListenerTransform(location r3.Vector, orientation spatial.Orientation) bool {
	return m.commands.Enqueue(func() bool {
		m.listenerMu.Lock()
		m.listenerPos, m.listenerOrientation = location, orientation
		m.listenerMu.Unlock()
		return true
	})
}

// Lock takes the coarse audio mutex for a batch of control-thread
// updates outside the realtime path (spec §5: "during engine pause,
// during loading"). Normal realtime control operations must not call
// this.
func (m *Amplimix) Lock()   { m.audioMu.Lock() }
func (m *Amplimix) Unlock() { m.audioMu.Unlock() }

// Mix renders frame_count frames into output (planar, one slice per
// OutputChannels channel) and returns the number actually produced
// (spec §4.13). It is the only method the audio thread calls.
func (m *Amplimix) Mix(output [][]float32, frameCount int) (framesProduced int) {
	start := time.Now()

	frames := frameCount
	if frames > m.cfg.BlockSize {
		frames = m.cfg.BlockSize
	}
	if len(output) == 0 || frames <= 0 {
		return 0
	}

	m.audioMu.Lock()
	defer m.audioMu.Unlock()

	if m.beforeMix != nil {
		m.beforeMix(m.master, frames)
	}

	// Step 1: drain the command queue (listener transform, layer
	// transform, stop requests all land here).
	m.commands.Drain()
	m.pool.Reap()

	m.listenerMu.Lock()
	listenerPos, listenerOrientation := m.listenerPos, m.listenerOrientation
	m.listenerMu.Unlock()

	dt := float64(frames) / float64(m.cfg.SampleRate)
	var listenerVel r3.Vector
	if m.hasPrevListenerPos && dt > 0 {
		listenerVel = listenerPos.Sub(m.prevListenerPos).Mul(1 / dt)
	}
	m.prevListenerPos = listenerPos
	m.hasPrevListenerPos = true

	for _, b := range m.buses.All() {
		b.SetPlaying(false)
	}
	m.pool.Active(func(l *layer.Layer) {
		if b, ok := m.busByID[l.BusID()]; ok {
			b.SetPlaying(true)
		}
	})
	m.buses.Update(float64(frames) / float64(m.cfg.SampleRate))

	m.ambiAccum.Clear()
	m.directAccum.Clear()

	activeLayers := 0
	m.pool.Mixable(func(l *layer.Layer) {
		activeLayers++
		rt := m.runtimes[l.Handle().Index]
		m.ensureRuntime(rt, l, frames)
		m.mixLayer(l, rt, frames, listenerPos, listenerVel, listenerOrientation)
	})

	// Step 3: early reflections, fed by the ambisonic accumulator's own
	// omnidirectional (W) channel as the mono pre-reflection signal — a
	// reuse of the already-summed dry mix rather than a second mixdown
	// pass (see DESIGN.md).
	m.reflect.Process(m.reflAccum, m.ambiAccum.Channel(0))
	for c := 0; c < m.reflAccum.Channels() && c < m.ambiAccum.Channels(); c++ {
		dst := m.ambiAccum.Channel(c)
		src := m.reflAccum.Channel(c)
		for i := 0; i < frames; i++ {
			dst[i] += src[i]
		}
	}

	// Step 4: binauralize or ambisonic-decode into the master buffer,
	// then fold in whatever was mixed directly (unspatialized layers).
	m.master.Clear()
	if m.binauralizer != nil && m.cfg.OutputChannels >= 2 {
		m.binauralizer.Process(m.master.Channel(0)[:frames], m.master.Channel(1)[:frames], m.sliceAmbi(frames))
	} else {
		m.decoder.Decode(m.sliceSpeakers(frames), m.sliceAmbi(frames))
		for c := 0; c < m.master.Channels() && c < len(m.speakerOut); c++ {
			copy(m.master.Channel(c)[:frames], m.speakerOut[c][:frames])
		}
	}
	for c := 0; c < m.master.Channels() && c < m.directAccum.Channels(); c++ {
		dst := m.master.Channel(c)
		src := m.directAccum.Channel(c)
		for i := 0; i < frames; i++ {
			dst[i] += src[i]
		}
	}

	// Step 5: master gain, then copy into the caller's output.
	m.masterGain.RampInto(m.gainScratch[:frames])
	for c := 0; c < m.master.Channels() && c < len(output); c++ {
		dst := output[c]
		src := m.master.Channel(c)
		for i := 0; i < frames; i++ {
			dst[i] = src[i] * m.gainScratch[i]
		}
	}

	if m.afterMix != nil {
		m.afterMix(m.master, frames)
	}

	underrun := frames < frameCount
	if m.metrics != nil {
		m.metrics.RecordBlock(time.Since(start), activeLayers, underrun)
	}

	return frames
}

// sliceAmbi returns a view of the ambisonic accumulator truncated to
// frames, for binauralizer/decoder calls on a short final block.
func (m *Amplimix) sliceAmbi(frames int) *ambisonic.BFormat {
	if frames == m.ambiAccum.Frames() {
		return m.ambiAccum
	}
	view := &ambisonic.BFormat{Buffer: buffer.New(frames, m.ambiAccum.Channels()), Order: m.ambiAccum.Order, Is3D: m.ambiAccum.Is3D}
	for c := 0; c < view.Channels(); c++ {
		copy(view.Channel(c), m.ambiAccum.Channel(c)[:frames])
	}
	return view
}

func (m *Amplimix) sliceSpeakers(frames int) [][]float32 {
	if frames == m.cfg.BlockSize {
		return m.speakerOut
	}
	out := make([][]float32, len(m.speakerOut))
	for i := range out {
		out[i] = m.speakerOut[i][:frames]
	}
	return out
}

// ensureRuntime (re)builds rt's converter/encoder/scratch state when the
// layer slot's generation or source format has changed since the last
// Mix call. This is where a newly-Played layer's per-slot buffers are
// allocated on the audio thread, on the single block following its
// allocation — see DESIGN.md for why that's accepted rather than
// eliminated.
func (m *Amplimix) ensureRuntime(rt *layerRuntime, l *layer.Layer, frames int) {
	handle := l.Handle()
	srcChannels := l.SourceChannels()
	srcRate := l.SourceSampleRate()

	if rt.gen == handle.Gen && rt.srcChannels == srcChannels && rt.srcRate == srcRate && rt.converter != nil {
		return
	}

	rt.gen = handle.Gen
	rt.srcChannels, rt.srcRate = srcChannels, srcRate
	rt.lastVirtualRate = 0

	conv, err := dsp.NewConverter(srcRate, m.cfg.SampleRate, srcChannels, layerWorkingChannels)
	if err != nil {
		// Unsupported channel combination: spec §4.14 treats this as a
		// layer-setup failure, not a mid-block one. Leave converter nil;
		// mixLayer skips a layer whose converter failed to build rather
		// than letting one bad asset wedge the whole block.
		rt.converter = nil
		return
	}
	rt.converter = conv

	maxPull := int(float64(m.cfg.BlockSize)*maxResampleRatio) + 1
	rt.pull = make([][]float32, srcChannels)
	for c := range rt.pull {
		rt.pull[c] = make([]float32, maxPull)
	}
	rt.converted = buffer.New(m.cfg.BlockSize, layerWorkingChannels)
	rt.monoScratch = make([]float32, m.cfg.BlockSize)
	rt.fadeScratch = make([]float32, m.cfg.BlockSize)
	rt.fadeTotal, rt.fadeElapsed = 0, 0
	rt.fadeFrom, rt.fadeTo, rt.fadeLevel = 1, 1, 1
	rt.lastFadeSeq = l.FadeSeq()
	rt.hasPrevLocation = false

	if l.Spatialized() {
		rt.encoder = ambisonic.NewEncoder(m.cfg.AmbisonicOrder, m.cfg.Ambisonic3D, encoderCrossfadeFraction)
	} else {
		rt.encoder = nil
	}
}

// mixLayer runs spec §4.13 step 2 for a single layer: resample, DSP
// chain, bus/layer gain, then encode into the ambisonic accumulator (if
// spatialized) or mix directly into the direct accumulator.
func (m *Amplimix) mixLayer(l *layer.Layer, rt *layerRuntime, frames int, listenerPos, listenerVel r3.Vector, listenerOrientation spatial.Orientation) {
	if rt.converter == nil {
		return
	}

	location := l.Location()
	dt := float64(frames) / float64(m.cfg.SampleRate)
	var velocity r3.Vector
	if rt.hasPrevLocation && dt > 0 {
		velocity = location.Sub(rt.prevLocation).Mul(1 / dt)
	}
	rt.prevLocation = location
	rt.hasPrevLocation = true
	l.UpdateVelocity(velocity)

	dopplerRatio := 1.0
	if l.Spatialized() {
		dopplerRatio = l.Chain().DopplerRatio(location, velocity, listenerPos, listenerVel)
	}
	ratio := float64(l.PlaySpeed()) * float64(l.Pitch()) * dopplerRatio
	if ratio < 1/maxResampleRatio {
		ratio = 1 / maxResampleRatio
	} else if ratio > maxResampleRatio {
		ratio = maxResampleRatio
	}
	virtualRate := int(math.Round(float64(rt.srcRate) * ratio))
	if virtualRate < 1 {
		virtualRate = 1
	}
	if virtualRate != rt.lastVirtualRate {
		rt.converter.SetSampleRate(virtualRate, m.cfg.SampleRate)
		rt.lastVirtualRate = virtualRate
	}

	needed := rt.converter.RequiredInputFrames(frames)
	if maxPull := len(rt.pull[0]); needed > maxPull {
		needed = maxPull
	}
	pullDst := make([][]float32, len(rt.pull))
	for c := range pullDst {
		pullDst[c] = rt.pull[c][:needed]
	}
	l.Pull(pullDst)

	convDst := make([][]float32, layerWorkingChannels)
	for c := range convDst {
		convDst[c] = rt.converted.Channel(c)[:frames]
	}
	rt.converter.Process(pullDst, convDst)

	obstruction := l.Obstruction()
	occlusion := l.Occlusion()
	if l.Spatialized() && m.cfg.Attenuation != nil {
		relative := l.Location().Sub(listenerPos)
		l.Chain().SetAttenuationGain(m.cfg.Attenuation.Gain(relative))
	} else {
		l.Chain().SetAttenuationGain(1)
	}
	l.Chain().Process(rt.converted, float64(obstruction), float64(occlusion), 1, 1, nil)

	busGain := 1.0
	if b, ok := m.busByID[l.BusID()]; ok {
		busGain = b.FinalGain()
	}
	scalar := float32(busGain) * l.Gain()

	m.advanceFade(rt, l, frames)

	// Equal-power pan: theta sweeps the quarter-turn from full left
	// (pan -1) to full right (pan 1), so center (pan 0) leaves both
	// channels at cos(pi/4) = sin(pi/4) = 1/sqrt(2) rather than unity
	// (spec §8 scenario 2).
	theta := float64(l.Pan()+1) * math.Pi / 4
	leftGain := float32(math.Cos(theta))
	rightGain := float32(math.Sin(theta))

	if rt.converted.Channels() > 0 {
		ch := rt.converted.Channel(0)
		for i := 0; i < frames; i++ {
			ch[i] *= scalar * leftGain * rt.fadeScratch[i]
		}
	}
	if rt.converted.Channels() > 1 {
		ch := rt.converted.Channel(1)
		for i := 0; i < frames; i++ {
			ch[i] *= scalar * rightGain * rt.fadeScratch[i]
		}
	}
	for c := 2; c < rt.converted.Channels(); c++ {
		ch := rt.converted.Channel(c)
		for i := 0; i < frames; i++ {
			ch[i] *= scalar * rt.fadeScratch[i]
		}
	}

	left, right := rt.converted.Channel(0), rt.converted.Channel(1)
	for i := 0; i < frames; i++ {
		rt.monoScratch[i] = (left[i] + right[i]) * 0.5
	}

	if m.health != nil {
		m.health.Track(l.Handle())
		m.health.UpdateLevel(l.Handle(), levelDB(rt.monoScratch[:frames]))
	}

	if l.Spatialized() {
		azimuth, elevation := listenerOrientation.AzimuthElevation(l.Location().Sub(listenerPos))
		rt.encoder.SetDirection(azimuth, elevation, 1, nil)
		rt.encoder.ProcessAccumulate(m.ambiAccum, rt.monoScratch[:frames])
		return
	}

	for c := 0; c < m.directAccum.Channels(); c++ {
		dst := m.directAccum.Channel(c)
		src := rt.converted.Channel(c)
		for i := 0; i < frames; i++ {
			dst[i] += src[i]
		}
	}
}

// advanceFade fills rt.fadeScratch[:frames] with this block's fade
// envelope for Stop/Pausing/Resuming, advancing frame-by-frame rather
// than ramping over the whole block, so a fade_duration spanning many
// Mix calls stays silent or at full gain only once it has actually
// elapsed (spec §6.5's per-call fade_duration, §8 scenario 4). Play/
// Loop/Halt/Paused layers get a flat envelope at the last fade level
// reached (1 once any fade-in has completed).
func (m *Amplimix) advanceFade(rt *layerRuntime, l *layer.Layer, frames int) {
	state := l.State()

	var fadingTo float32
	fading := false
	switch state {
	case layer.Stop, layer.Pausing:
		fadingTo, fading = 0, true
	case layer.Resuming:
		fadingTo, fading = 1, true
	}

	if fading && l.FadeSeq() != rt.lastFadeSeq {
		rt.lastFadeSeq = l.FadeSeq()
		rt.fadeFrom = rt.fadeLevel
		rt.fadeTo = fadingTo
		rt.fadeTotal = l.FadeFrames()
		rt.fadeElapsed = 0
	}

	if !fading {
		for i := 0; i < frames; i++ {
			rt.fadeScratch[i] = rt.fadeLevel
		}
		return
	}

	for i := 0; i < frames; i++ {
		var level float32
		if rt.fadeTotal <= 0 {
			level = rt.fadeTo
		} else if rt.fadeElapsed >= rt.fadeTotal {
			level = rt.fadeTo
		} else {
			frac := float32(rt.fadeElapsed) / float32(rt.fadeTotal)
			level = rt.fadeFrom + (rt.fadeTo-rt.fadeFrom)*frac
			rt.fadeElapsed++
		}
		rt.fadeScratch[i] = level
		rt.fadeLevel = level
	}

	if rt.fadeElapsed >= rt.fadeTotal {
		switch state {
		case layer.Stop:
			m.pool.FinishStop(l.Handle())
		case layer.Pausing:
			m.pool.FinishPause(l.Handle())
		case layer.Resuming:
			m.pool.FinishResume(l.Handle())
		}
	}
}

// levelDB computes a block's RMS level in dBFS, floored at -120dB to
// keep the health monitor's silence comparisons finite.
func levelDB(samples []float32) float64 {
	if len(samples) == 0 {
		return -120
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms < 1e-6 {
		return -120
	}
	db := 20 * math.Log10(rms)
	if db < -120 {
		return -120
	}
	return db
}
