// Package layer implements the layer pool and per-layer processor chain:
// the unit of active playback (spec §4.9, §4.10). A Layer cycles through
// a small state machine driven from the control thread via atomic writes
// and the command queue, and read on the audio thread once per block.
package layer

import "fmt"

// State is a layer's position in the playback state machine (spec
// §4.10, §6.5's Stop/Pause/Resume control surface). The zero value is
// Min, so a freshly allocated Layer slice starts all-free.
type State int32

const (
	// Min is an unused slot, eligible for allocation by Play.
	Min State = iota
	// Play is producing samples and halts at end of source.
	Play
	// Loop is producing samples and wraps at end of source.
	Loop
	// Halt has completed or was stopped; waiting for the next block
	// boundary's cleanup pass before returning to Min.
	Halt
	// Stop has been asked to stop as soon as possible (fade-out).
	Stop
	// Pausing is fading toward silence on its way to Paused; still
	// pulled and mixed like Stop, just with a different destination.
	Pausing
	// Paused is frozen at its last cursor position: not pulled, not
	// mixed, until Resume fades it back in.
	Paused
	// Resuming is fading back in from Paused, from the cursor Pause
	// left it at, on its way back to its pre-pause Play/Loop state.
	Resuming
)

func (s State) String() string {
	switch s {
	case Min:
		return "min"
	case Play:
		return "play"
	case Loop:
		return "loop"
	case Halt:
		return "halt"
	case Stop:
		return "stop"
	case Pausing:
		return "pausing"
	case Paused:
		return "paused"
	case Resuming:
		return "resuming"
	default:
		return fmt.Sprintf("layer.State(%d)", int32(s))
	}
}
