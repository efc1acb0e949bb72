package spatial

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
)

func TestAzimuthElevationOfForwardIsZero(t *testing.T) {
	o := NewOrientation(r3.Vector{X: 0, Y: 1, Z: 0}, r3.Vector{X: 0, Y: 0, Z: 1})
	azim, elev := o.AzimuthElevation(r3.Vector{X: 0, Y: 1, Z: 0})
	assert.InDelta(t, 0, azim, 1e-9)
	assert.InDelta(t, 0, elev, 1e-9)
}

func TestAzimuthElevationOfRightIsNinetyDegrees(t *testing.T) {
	o := NewOrientation(r3.Vector{X: 0, Y: 1, Z: 0}, r3.Vector{X: 0, Y: 0, Z: 1})
	azim, _ := o.AzimuthElevation(r3.Vector{X: 1, Y: 0, Z: 0})
	assert.InDelta(t, math.Pi/2, azim, 1e-9)
}

func TestQuaternionRoundTripsForwardUp(t *testing.T) {
	o := NewOrientation(r3.Vector{X: 0.3, Y: 0.9, Z: 0.1}, r3.Vector{X: 0, Y: 0, Z: 1})
	q := o.Quaternion()
	forward, _ := q.ForwardUp()
	assert.InDelta(t, o.Forward.X, forward.X, 1e-6)
	assert.InDelta(t, o.Forward.Y, forward.Y, 1e-6)
	assert.InDelta(t, o.Forward.Z, forward.Z, 1e-6)
}

func TestQuaternionIdentityForWorldBasis(t *testing.T) {
	o := NewOrientation(r3.Vector{X: 0, Y: 1, Z: 0}, r3.Vector{X: 0, Y: 0, Z: 1})
	q := o.Quaternion()
	assert.InDelta(t, 1, q.W, 1e-9)
	assert.InDelta(t, 0, q.X, 1e-9)
	assert.InDelta(t, 0, q.Y, 1e-9)
	assert.InDelta(t, 0, q.Z, 1e-9)
}
