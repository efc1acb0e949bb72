package layer

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/amplimix/amplimix/internal/command"
	"github.com/amplimix/amplimix/internal/errors"
)

// PlayRequest describes a new allocation (spec §4.10: "Play is the only
// operation that allocates a layer"). Velocity is not requestable:
// it is derived by the orchestrator from consecutive Location updates
// (spec §3), starting at zero for a freshly allocated layer.
type PlayRequest struct {
	Source      Source
	BusID       uint64
	Spatialized bool
	Loop        bool
	Location    r3.Vector
	Gain        float32
	Pitch       float32
	Pan         float32
	Listener    EventListener
}

// Pool is the fixed-size array of Layers the orchestrator mixes every
// block (spec §4.10). Layers are never created or destroyed after
// construction; Play/reclaim only toggle a slot's state and bump its
// generation.
type Pool struct {
	layers           []*Layer
	config           ChainConfig
	frames, channels int
	sampleRate       int
}

// NewPool preallocates size Layers, each with its own Chain sized for
// the given block shape (spec §5: the audio thread never allocates, so
// every Layer and its Chain scratch buffers are built up front).
// sampleRate converts a caller's requested fade_duration into frames for
// Stop/Pause/Resume (spec §6.5).
func NewPool(size, frames, channels, sampleRate int, config ChainConfig) *Pool {
	layers := make([]*Layer, size)
	for i := range layers {
		layers[i] = newLayer(i, NewChain(config, frames, channels))
	}
	return &Pool{layers: layers, config: config, frames: frames, channels: channels, sampleRate: sampleRate}
}

// fadeFrames converts a requested fade duration into a frame count for
// the layer state machine, floored at 1 for any positive duration so a
// fade is never silently skipped by integer truncation.
func (p *Pool) fadeFrames(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	frames := int(d.Seconds() * float64(p.sampleRate))
	if frames < 1 {
		frames = 1
	}
	return frames
}

// Size returns the pool's fixed layer count.
func (p *Pool) Size() int { return len(p.layers) }

// Layer returns the slot at index, for iteration by the orchestrator.
func (p *Pool) Layer(index int) *Layer { return p.layers[index] }

// Play scans for the first Min slot and allocates it synchronously on
// the calling (control) thread via a single lock-free CAS on that
// slot's state (see DESIGN.md for why this departs from routing the
// allocation itself through the command queue: the scan-and-CAS touches
// only the state word, never playback cursors or buffers, so it is safe
// without the audio thread's involvement). It returns a
// CategoryResourceExhausted error if every slot is occupied, or a
// CategoryValidation error if req.Source is nil.
func (p *Pool) Play(req PlayRequest) (ID, error) {
	if req.Source == nil {
		return ID{}, errors.Newf("play request has no source").
			Component("layer").
			Category(errors.CategoryValidation).
			Build()
	}
	target := Play
	if req.Loop {
		target = Loop
	}
	for _, l := range p.layers {
		if !l.state.CompareAndSwap(int32(Min), int32(target)) {
			continue
		}
		l.source = req.Source
		l.busID = req.BusID
		l.spatialized = req.Spatialized
		l.location = req.Location
		l.velocity = r3.Vector{}
		l.listener = req.Listener
		gain := req.Gain
		if gain == 0 {
			gain = 1
		}
		pitch := req.Pitch
		if pitch == 0 {
			pitch = 1
		}
		l.gain.store(gain)
		l.pitch.store(pitch)
		l.pan.store(req.Pan)
		l.playSpeed.store(1)
		if l.listener != nil {
			l.listener.OnPlay(l.Handle())
		}
		return l.Handle(), nil
	}
	return ID{}, errors.Newf("no free layer available").
		Component("layer").
		Category(errors.CategoryResourceExhausted).
		Build()
}

// Stop enqueues a command that requests handle's layer stop as soon as
// possible, fading out over fadeDuration before reaching Halt, and
// honoring stale handles silently (spec §4.11, §6.5's
// Stop(LayerToken, fade_duration)).
func (p *Pool) Stop(q *command.Queue, handle ID, fadeDuration time.Duration) bool {
	frames := p.fadeFrames(fadeDuration)
	return q.Enqueue(func() bool {
		l := p.layers[handle.Index]
		if !l.Valid(handle) {
			return false
		}
		l.requestStop(frames)
		return true
	})
}

// Pause enqueues a command that requests handle's layer pause, fading
// out over fadeDuration and then freezing at its current cursor until
// Resume (spec §6.5's Pause(LayerToken, fade)).
func (p *Pool) Pause(q *command.Queue, handle ID, fadeDuration time.Duration) bool {
	frames := p.fadeFrames(fadeDuration)
	return q.Enqueue(func() bool {
		l := p.layers[handle.Index]
		if !l.Valid(handle) {
			return false
		}
		l.requestPause(frames)
		return true
	})
}

// Resume enqueues a command that requests a Paused handle's layer
// resume, fading in over fadeDuration from the cursor Pause left it at
// (spec §6.5's Resume(LayerToken, fade)).
func (p *Pool) Resume(q *command.Queue, handle ID, fadeDuration time.Duration) bool {
	frames := p.fadeFrames(fadeDuration)
	return q.Enqueue(func() bool {
		l := p.layers[handle.Index]
		if !l.Valid(handle) {
			return false
		}
		l.requestResume(frames)
		return true
	})
}

// SetTransform enqueues a command updating handle's layer location, the
// multi-word update spec §5 requires go through the command queue
// rather than an independent atomic. Velocity is not a parameter: the
// orchestrator derives it each block from consecutive Location values
// (spec §3).
func (p *Pool) SetTransform(q *command.Queue, handle ID, location r3.Vector) bool {
	return q.Enqueue(func() bool {
		l := p.layers[handle.Index]
		if !l.Valid(handle) {
			return false
		}
		l.setLocation(location)
		return true
	})
}

// FinishStop lets the orchestrator mark a Stop layer Halt once its
// fade-out has completed.
func (p *Pool) FinishStop(handle ID) {
	l := p.layers[handle.Index]
	if l.Valid(handle) {
		l.finishStop()
	}
}

// FinishPause lets the orchestrator mark a Pausing layer Paused once its
// fade-out has completed.
func (p *Pool) FinishPause(handle ID) {
	l := p.layers[handle.Index]
	if l.Valid(handle) {
		l.finishPause()
	}
}

// FinishResume lets the orchestrator return a Resuming layer to its
// pre-pause Play/Loop state once its fade-in has completed.
func (p *Pool) FinishResume(handle ID) {
	l := p.layers[handle.Index]
	if l.Valid(handle) {
		l.finishResume()
	}
}

// Reap reclaims every Halt layer back to Min, cleaning up its per-effect
// caches. Call once per block, after the command queue drain and before
// reading any layer for mixing (spec §4.10: "eligible for reuse at the
// next block boundary").
func (p *Pool) Reap() {
	for _, l := range p.layers {
		if l.State() == Halt {
			l.reclaim()
		}
	}
}

// Active calls fn for every layer currently in Play or Loop, in index
// order, for the orchestrator's per-block mix pass.
func (p *Pool) Active(fn func(*Layer)) {
	for _, l := range p.layers {
		switch l.State() {
		case Play, Loop:
			fn(l)
		}
	}
}

// Mixable calls fn for every layer the orchestrator must still pull
// audio from this block: Play, Loop, Stop, Pausing and Resuming (each
// keeps producing audio while the orchestrator fades it, then calls the
// matching Finish* method). Paused is deliberately excluded: a frozen
// layer is never pulled, which is what keeps its cursor frozen.
func (p *Pool) Mixable(fn func(*Layer)) {
	for _, l := range p.layers {
		switch l.State() {
		case Play, Loop, Stop, Pausing, Resuming:
			fn(l)
		}
	}
}
