package layer

// EventListener receives layer lifecycle notifications. OnPlay runs
// synchronously on the goroutine that calls Pool.Play. OnLoop, OnHalt and
// OnPause run on the audio thread during Mix, at a block boundary —
// never from inside the per-sample hot path — so implementations must
// not block or allocate heavily, but need not be realtime-safe in the
// strict sense.
type EventListener interface {
	// OnPlay fires once, from Pool.Play, when a slot is allocated for
	// the layer.
	OnPlay(handle ID)
	// OnLoop fires each time a looping layer's source wraps to frame 0.
	OnLoop(handle ID)
	// OnHalt fires once, the block a layer reaches Halt (either the
	// source ended naturally or a requested Stop finished fading out).
	OnHalt(handle ID)
	// OnPause fires once, the block a layer's Pause fade-out finishes
	// and it freezes at Paused.
	OnPause(handle ID)
}

// NopListener implements EventListener with no-op methods, usable as a
// default so callers aren't required to nil-check before calling out.
type NopListener struct{}

func (NopListener) OnPlay(ID)  {}
func (NopListener) OnLoop(ID)  {}
func (NopListener) OnHalt(ID)  {}
func (NopListener) OnPause(ID) {}
