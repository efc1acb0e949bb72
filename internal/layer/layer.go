package layer

import (
	"math"
	"sync/atomic"

	"github.com/golang/geo/r3"
)

// Source is the minimal contract a playable sound asset must satisfy for
// a Layer to pull frames from it (spec §4.13 step 2b): either a loaded
// buffer slice or a streaming decoder, both exposing the same cursor-
// advancing interface so the layer doesn't need to know which.
type Source interface {
	Channels() int
	SampleRate() int
	// Stream pulls up to len(dst[0]) frames from the source's current
	// cursor into dst (planar, one slice per channel) and advances the
	// cursor by the number produced. ended reports whether the source's
	// end was reached during this call; produced may be less than
	// len(dst[0]) when it was.
	Stream(dst [][]float32) (produced int, ended bool)
	// Seek resets the source's read cursor to frame, used for loop
	// wraparound and for replaying a one-shot from the start.
	Seek(frame int) error
}

// atomicFloat32 is an atomic.Uint32 storing a float32's bit pattern, the
// pattern dsp.Gain uses for its own lock-free target field. Layer reuses
// it for every control-thread-writable scalar field spec §5 allows as a
// bare atomic (gain, pitch, obstruction, occlusion, play speed).
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (a *atomicFloat32) store(v float32) { a.bits.Store(math.Float32bits(v)) }
func (a *atomicFloat32) load() float32   { return math.Float32frombits(a.bits.Load()) }

// Layer is one slot in the Pool: a playback cursor through a Source plus
// the atomically-updated control parameters spec §5 allows the control
// thread to write without going through the command queue. Only the
// audio thread advances cursor and state (except the min→play allocation
// transition, performed synchronously by Pool.Play — see DESIGN.md).
type Layer struct {
	index int

	id    atomic.Uint64 // bumped on every min→play/loop allocation
	state atomic.Int32  // State, read via State()

	gain        atomicFloat32
	pitch       atomicFloat32
	pan         atomicFloat32
	obstruction atomicFloat32
	occlusion   atomicFloat32
	playSpeed   atomicFloat32

	spatialized bool
	busID       uint64

	// location is multi-word and so is only ever mutated through the
	// command queue (spec §5: "for multi-word updates ... route through
	// the command queue to obtain atomic visibility"), making it safe
	// for the audio thread to read without locking. velocity is derived
	// by the orchestrator each block from consecutive Location values
	// (spec §3: velocity is "derived from position delta per frame",
	// not an independently settable parameter) and written back via
	// UpdateVelocity, which only the orchestrator's own audio-thread
	// code calls.
	location r3.Vector
	velocity r3.Vector

	// resumeState remembers which of Play/Loop a Pausing layer should
	// return to once Resuming completes.
	resumeState State
	// fadeFrames is the length, in frames, of the fade-out/fade-in the
	// orchestrator should run for the current Stop/Pausing/Resuming
	// transition (spec §6.5's per-call fade_duration). fadeSeq bumps on
	// every requestStop/requestPause/requestResume call so the
	// orchestrator's per-slot runtime state can tell a fresh transition
	// apart from one it has already started fading.
	fadeFrames int
	fadeSeq    int

	source Source
	chain  *Chain
	cursor int

	listener EventListener
}

// ID identifies a specific allocation of a layer slot. A Handle goes
// stale the instant the slot is reclaimed and reallocated; Pool
// operations compare the Handle's ID against the live layer's current id
// and silently no-op on mismatch (spec §4.11: "a queued command may fail
// ... failure is silent").
type ID struct {
	Index int
	Gen   uint64
}

func newLayer(index int, chain *Chain) *Layer {
	l := &Layer{index: index, chain: chain}
	l.gain.store(1)
	l.pitch.store(1)
	l.playSpeed.store(1)
	return l
}

// State returns the layer's current state. Safe from either thread.
func (l *Layer) State() State { return State(l.state.Load()) }

// Handle returns the current allocation's stable identity.
func (l *Layer) Handle() ID { return ID{Index: l.index, Gen: l.id.Load()} }

// Valid reports whether handle still refers to this layer's current
// allocation, i.e. has not been reclaimed since the handle was issued.
func (l *Layer) Valid(handle ID) bool {
	return handle.Index == l.index && handle.Gen == l.id.Load()
}

// Gain, Pitch, Pan, Obstruction, Occlusion and PlaySpeed are read by the
// audio thread once per block; SetGain et al. are safe to call from the
// control thread at any time (spec §5).
func (l *Layer) Gain() float32        { return l.gain.load() }
func (l *Layer) SetGain(v float32)    { l.gain.store(v) }
func (l *Layer) Pitch() float32       { return l.pitch.load() }
func (l *Layer) SetPitch(v float32)   { l.pitch.store(v) }
// Pan is the layer's stereo balance in [-1, 1]: -1 full left, 0 center,
// 1 full right (spec §3, §6.5's SetPan, §8 scenario 2's "pan 0.0").
func (l *Layer) Pan() float32         { return l.pan.load() }
func (l *Layer) SetPan(v float32)     { l.pan.store(v) }
func (l *Layer) Obstruction() float32 { return l.obstruction.load() }
func (l *Layer) SetObstruction(v float32) {
	l.obstruction.store(v)
}
func (l *Layer) Occlusion() float32     { return l.occlusion.load() }
func (l *Layer) SetOcclusion(v float32) { l.occlusion.store(v) }
func (l *Layer) PlaySpeed() float32     { return l.playSpeed.load() }
func (l *Layer) SetPlaySpeed(v float32) { l.playSpeed.store(v) }

// Location and Velocity are audio-thread-only reads; Location is written
// exclusively inside commands drained at the start of Mix (setLocation),
// Velocity exclusively by the orchestrator's own per-block derivation
// (UpdateVelocity).
func (l *Layer) Location() r3.Vector { return l.location }
func (l *Layer) Velocity() r3.Vector { return l.velocity }

func (l *Layer) setLocation(location r3.Vector) {
	l.location = location
}

// UpdateVelocity is called once per block by the orchestrator with the
// velocity it derived from this layer's consecutive Location values
// (spec §3: velocity is "derived from position delta per frame").
func (l *Layer) UpdateVelocity(v r3.Vector) {
	l.velocity = v
}

// FadeFrames and FadeSeq expose the current Stop/Pausing/Resuming
// transition's requested fade length and sequence number so the
// orchestrator's per-slot runtime state can size and track its fade
// envelope (spec §6.5's per-call fade_duration).
func (l *Layer) FadeFrames() int { return l.fadeFrames }
func (l *Layer) FadeSeq() int    { return l.fadeSeq }

// Spatialized reports whether this layer encodes into the shared
// ambisonic accumulator or mixes directly into its bus (spec §4.13 step
// 2d).
func (l *Layer) Spatialized() bool { return l.spatialized }

// SourceChannels and SourceSampleRate describe the playing Source's
// native format, letting the orchestrator size its per-layer resample
// converter (spec §4.13 step 2a) without reaching into the unexported
// source field. Both return 0 for a layer with no source (Min state).
func (l *Layer) SourceChannels() int {
	if l.source == nil {
		return 0
	}
	return l.source.Channels()
}

func (l *Layer) SourceSampleRate() int {
	if l.source == nil {
		return 0
	}
	return l.source.SampleRate()
}

// BusID reports the bus this layer is routed through.
func (l *Layer) BusID() uint64 { return l.busID }

// Chain returns the layer's per-layer processor chain (spec §4.9).
func (l *Layer) Chain() *Chain { return l.chain }

// Pull fills dst (planar, one slice per channel) from the layer's
// source, honoring loop wraparound and transitioning to Halt at
// end-of-source for a non-looping layer (spec §4.10, §4.13 step 2b).
// produced is always len(dst[0]); the tail beyond the source's data is
// zero-filled.
func (l *Layer) Pull(dst [][]float32) (produced int) {
	if len(dst) == 0 {
		return 0
	}
	want := len(dst[0])
	filled := 0
	for filled < want {
		remaining := make([][]float32, len(dst))
		for c := range dst {
			remaining[c] = dst[c][filled:want]
		}
		n, ended := l.source.Stream(remaining)
		filled += n
		l.cursor += n
		if !ended {
			continue
		}
		if l.State() == Loop {
			if err := l.source.Seek(0); err != nil {
				break
			}
			l.cursor = 0
			if l.listener != nil {
				l.listener.OnLoop(l.Handle())
			}
			if n == 0 {
				// A zero-length source looping forever would spin;
				// bail rather than hang the audio thread.
				break
			}
			continue
		}
		l.halt()
		break
	}
	for c := range dst {
		for i := filled; i < want; i++ {
			dst[c][i] = 0
		}
	}
	return want
}

func (l *Layer) halt() {
	l.state.Store(int32(Halt))
	if l.listener != nil {
		l.listener.OnHalt(l.Handle())
	}
}

// requestStop marks the layer Stop with a fade-out fade_duration frames
// long (spec §6.5); the orchestrator completes the transition to Halt
// once that fade finishes.
func (l *Layer) requestStop(frames int) {
	if l.State() == Min {
		return
	}
	l.fadeFrames = frames
	l.fadeSeq++
	l.state.Store(int32(Stop))
}

// finishStop is called by the orchestrator once a Stop layer's fade-out
// has completed, moving it to Halt for the next reap pass.
func (l *Layer) finishStop() {
	if l.State() != Stop {
		return
	}
	l.halt()
}

// requestPause marks the layer Pausing with a fade-out fade_duration
// frames long (spec §6.5's Pause). It remembers the current Play/Loop
// state in resumeState so Resume knows where to return to. A layer not
// currently Play or Loop is not pausable and the request is a no-op.
func (l *Layer) requestPause(frames int) {
	switch l.State() {
	case Play, Loop:
		l.resumeState = l.State()
	default:
		return
	}
	l.fadeFrames = frames
	l.fadeSeq++
	l.state.Store(int32(Pausing))
}

// finishPause is called by the orchestrator once a Pausing layer's
// fade-out has completed, freezing it at Paused: not Pulled, not mixed,
// cursor untouched, until Resume fades it back in.
func (l *Layer) finishPause() {
	if l.State() != Pausing {
		return
	}
	l.state.Store(int32(Paused))
	if l.listener != nil {
		l.listener.OnPause(l.Handle())
	}
}

// requestResume marks a Paused layer Resuming with a fade-in
// fade_duration frames long (spec §6.5's Resume), picking up from the
// cursor position Pause left it at. A layer not currently Paused is not
// resumable and the request is a no-op.
func (l *Layer) requestResume(frames int) {
	if l.State() != Paused {
		return
	}
	l.fadeFrames = frames
	l.fadeSeq++
	l.state.Store(int32(Resuming))
}

// finishResume is called by the orchestrator once a Resuming layer's
// fade-in has completed, returning it to the Play/Loop state it was in
// before Pause.
func (l *Layer) finishResume() {
	if l.State() != Resuming {
		return
	}
	l.state.Store(int32(l.resumeState))
}

// reclaim resets the layer back to Min, clears its source/listener
// references and chain caches, and bumps its generation so any
// previously-issued Handle becomes stale (spec §4.10: "its per-effect
// caches are cleaned up" at halt→min).
func (l *Layer) reclaim() {
	l.chain.Reset()
	l.source = nil
	l.listener = nil
	l.cursor = 0
	l.spatialized = false
	l.busID = 0
	l.location = r3.Vector{}
	l.velocity = r3.Vector{}
	l.resumeState = Min
	l.fadeFrames = 0
	l.fadeSeq++
	l.id.Add(1)
	l.state.Store(int32(Min))
}
