// Package bus implements the hierarchical gain tree (spec §4.12): static
// asset gain, a control-thread-driven user-gain fader, automatic ducking
// triggered by sibling bus activity, and the per-block root-to-leaf walk
// that multiplies them all into each bus's final_gain.
package bus

import (
	"math"
	"sync/atomic"

	"github.com/amplimix/amplimix/internal/spatial"
)

// DuckDescriptor lives on a triggering bus and fades a target bus's
// duck_gain toward TargetGain whenever the triggering bus has any
// attached layer playing, and back toward 1 once it doesn't (spec §4.12
// step 2), grounded on AmplitudeAudio's DuckBusInternalState fade-in/
// fade-out pair.
type DuckDescriptor struct {
	Target          *Bus
	TargetGain      float64
	FadeInDuration  float64 // seconds; 0 is instantaneous
	FadeOutDuration float64
	FadeInShape     spatial.FaderShape
	FadeOutShape    spatial.FaderShape

	percentage float64 // 0 (unducked) .. 1 (fully ducked), audio-thread-only
}

func (d *DuckDescriptor) update(dt float64, triggerPlaying bool) float64 {
	if triggerPlaying {
		if d.FadeInDuration > 0 {
			d.percentage = math.Min(1, d.percentage+dt/d.FadeInDuration)
		} else {
			d.percentage = 1
		}
	} else {
		if d.FadeOutDuration > 0 {
			d.percentage = math.Max(0, d.percentage-dt/d.FadeOutDuration)
		} else {
			d.percentage = 0
		}
	}
	curve := spatial.NewCurve(
		[]spatial.CurvePoint{{X: 0, Y: 1}, {X: 1, Y: d.TargetGain}},
		[]spatial.FaderShape{d.FadeInShape},
	)
	if !triggerPlaying {
		curve = spatial.NewCurve(
			[]spatial.CurvePoint{{X: 0, Y: 1}, {X: 1, Y: d.TargetGain}},
			[]spatial.FaderShape{d.FadeOutShape},
		)
	}
	return curve.Evaluate(d.percentage)
}

// Bus is one node of the gain tree. StaticGain is the asset's baked-in
// level; UserGain is a control-thread-settable target faded toward at
// block rate; DuckGain is computed every block from DuckDescriptors
// attached to this bus's siblings; FinalGain is the product of all of
// them with the parent's FinalGain, recomputed by Tree.Update.
type Bus struct {
	ID         uint64
	StaticGain float64

	userGain *spatial.Rtpc
	duckGain float64
	playing  bool
	muted    atomic.Bool

	duckDescriptors []*DuckDescriptor
	parent          *Bus
	children        []*Bus

	finalGain float64
}

// NewBus constructs a Bus with the given static gain and a user-gain
// fader ramping over userGainSeconds in either direction.
func NewBus(id uint64, staticGain float64, userGainSeconds float64) *Bus {
	userGain := spatial.NewRtpc(0, math.Inf(1), userGainSeconds, userGainSeconds)
	userGain.SetImmediate(1)
	return &Bus{
		ID:         id,
		StaticGain: staticGain,
		userGain:   userGain,
		duckGain:   1,
		finalGain:  staticGain,
	}
}

// AddChild attaches child under b in the tree.
func (b *Bus) AddChild(child *Bus) {
	child.parent = b
	b.children = append(b.children, child)
}

// AddDuckDescriptor registers a duck relationship triggered by b's own
// playing state, targeting another bus.
func (b *Bus) AddDuckDescriptor(d *DuckDescriptor) {
	b.duckDescriptors = append(b.duckDescriptors, d)
}

// SetPlaying tells the bus whether it has any attached layer playing
// this block; the orchestrator sets this once per block before calling
// Tree.Update (spec §4.12 step 2: "any sibling-attached layer is
// playing").
func (b *Bus) SetPlaying(playing bool) { b.playing = playing }

// SetUserGainTarget sets the gain the user-gain fader ramps toward,
// using whatever attack/release time constants the bus was built or
// last FadeToGain'd with. Safe to call from the control thread at any
// time (spec §5, like any other per-layer scalar atomic).
func (b *Bus) SetUserGainTarget(target float64) { b.userGain.SetTarget(target) }

// FadeToGain retargets the user-gain fader to value, fading over
// duration seconds in both directions (spec §6.5's
// Bus.FadeToGain(value, duration)), unlike SetUserGainTarget which
// reuses whatever fade time the bus already has.
func (b *Bus) FadeToGain(value, duration float64) {
	b.userGain.SetFadeTimes(duration, duration)
	b.userGain.SetTarget(value)
}

// SetMute sets or clears the bus's mute flag (spec §3's Bus data model,
// §6.5's Bus.SetMute(bool)): a muted bus's FinalGain is forced to zero
// regardless of its static/user/duck gains, without disturbing any of
// them so unmuting restores exactly the pre-mute level.
func (b *Bus) SetMute(muted bool) { b.muted.Store(muted) }

// Muted reports the bus's current mute flag.
func (b *Bus) Muted() bool { return b.muted.Load() }

// FinalGain returns the gain computed by the most recent Tree.Update:
// static × user × duck × parent_final × mute.
func (b *Bus) FinalGain() float64 { return b.finalGain }

// Tree is the full bus hierarchy rooted at Root, with a flat index of
// every bus for the per-block sweep (spec §4.12).
type Tree struct {
	Root *Bus
	all  []*Bus
}

// NewTree walks root's children to build the flat traversal order once;
// rebuild (call NewTree again) if the tree's shape changes, which the
// asset model treats as load-time, not per-block, configuration.
func NewTree(root *Bus) *Tree {
	t := &Tree{Root: root}
	t.all = flatten(root)
	return t
}

// All returns every bus in the tree, flat, in construction order — the
// orchestrator uses it to build an AmBusID lookup map and to reset each
// bus's playing flag once per block before re-deriving it from the
// active layer set.
func (t *Tree) All() []*Bus { return t.all }

func flatten(b *Bus) []*Bus {
	out := []*Bus{b}
	for _, c := range b.children {
		out = append(out, flatten(c)...)
	}
	return out
}

// Update runs one block's worth of the bus tree algorithm (spec §4.12,
// steps 1-4), in order: reset duck gains, update duck descriptors, ramp
// user-gain faders, then walk root-to-leaf computing FinalGain.
func (t *Tree) Update(dt float64) {
	for _, b := range t.all {
		b.duckGain = 1
	}
	for _, b := range t.all {
		for _, d := range b.duckDescriptors {
			d.Target.duckGain *= d.update(dt, b.playing)
		}
	}
	for _, b := range t.all {
		b.userGain.Update(dt)
	}
	t.walk(t.Root, 1)
}

func (t *Tree) walk(b *Bus, parentFinal float64) {
	mute := 1.0
	if b.muted.Load() {
		mute = 0
	}
	b.finalGain = b.StaticGain * b.userGain.Value() * b.duckGain * mute * parentFinal
	for _, c := range b.children {
		t.walk(c, b.finalGain)
	}
}
