package assets

import (
	"github.com/golang/geo/r3"

	"github.com/amplimix/amplimix/internal/spatial"
)

// Listener is the asset-facing handle for a registered listener (spec
// §4.7): position, velocity, orientation and a directivity pattern.
// Velocity is derived from the position delta between consecutive
// SetLocation calls, not stored independently, mirroring spec §4.7's
// "velocity (derived from position delta per frame)".
type Listener struct {
	ID ListenerID

	location    r3.Vector
	velocity    r3.Vector
	orientation spatial.Orientation

	directivityAlpha float64
	directivityOrder int
}

// NewListener constructs an omnidirectional Listener at the origin,
// facing +Y with +Z up (internal/spatial.NewOrientation's default
// convention).
func NewListener(id ListenerID) *Listener {
	return &Listener{
		ID:               id,
		orientation:      spatial.NewOrientation(r3.Vector{Y: 1}, r3.Vector{Z: 1}),
		directivityOrder: 1,
	}
}

// SetLocation updates position, deriving velocity as the per-call delta
// scaled by the reciprocal of dt (seconds since the previous call).
func (l *Listener) SetLocation(position r3.Vector, dt float64) {
	if dt > 0 {
		l.velocity = position.Sub(l.location).Mul(1 / dt)
	}
	l.location = position
}

// SetOrientation replaces the listener's forward/up basis.
func (l *Listener) SetOrientation(o spatial.Orientation) { l.orientation = o }

// SetDirectivity sets the listener's cardioid directivity pattern;
// alpha=0 is omnidirectional (spec §4.7).
func (l *Listener) SetDirectivity(alpha float64, order int) {
	l.directivityAlpha = alpha
	l.directivityOrder = order
}

func (l *Listener) Location() r3.Vector              { return l.location }
func (l *Listener) Velocity() r3.Vector              { return l.velocity }
func (l *Listener) Orientation() spatial.Orientation { return l.orientation }

// Directivity evaluates the listener's directivity gain toward a sound
// arriving from worldDirection (relative to the listener).
func (l *Listener) Directivity(worldDirection r3.Vector) float64 {
	azimuth, elevation := l.orientation.AzimuthElevation(worldDirection)
	return spatial.Directivity(l.directivityAlpha, l.directivityOrder, azimuth, elevation)
}
