package spatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// Orientation is an orthonormal basis (forward/up/right) built from a
// forward and up vector, matching the world convention the ambisonic
// layout math uses: Y is forward (azimuth 0), Z is up, X is right.
type Orientation struct {
	Forward, Up, Right r3.Vector
}

// NewOrientation builds an Orientation from forward and up directions,
// re-orthogonalizing up against forward so the basis stays consistent
// even if the inputs aren't exactly perpendicular.
func NewOrientation(forward, up r3.Vector) Orientation {
	forward = forward.Normalize()
	right := forward.Cross(up).Normalize()
	correctedUp := right.Cross(forward)
	return Orientation{Forward: forward, Up: correctedUp, Right: right}
}

// AzimuthElevation expresses worldDirection (need not be unit) in this
// orientation's local frame, returning the azimuth/elevation pair the
// ambisonic encoder and directivity math expect (radians).
func (o Orientation) AzimuthElevation(worldDirection r3.Vector) (azimuth, elevation float64) {
	d := worldDirection.Normalize()
	x := d.Dot(o.Right)
	y := d.Dot(o.Forward)
	z := d.Dot(o.Up)
	azimuth = math.Atan2(x, y)
	elevation = math.Asin(clampUnit(z))
	return azimuth, elevation
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// Quaternion is a unit rotation quaternion (W + Xi + Yj + Zk).
type Quaternion struct {
	W, X, Y, Z float64
}

// Quaternion converts this Orientation's basis into a rotation
// quaternion, for callers (e.g. networked entity state) that need a
// compact rotation representation rather than three basis vectors.
func (o Orientation) Quaternion() Quaternion {
	m00, m01, m02 := o.Right.X, o.Forward.X, o.Up.X
	m10, m11, m12 := o.Right.Y, o.Forward.Y, o.Up.Y
	m20, m21, m22 := o.Right.Z, o.Forward.Z, o.Up.Z

	trace := m00 + m11 + m22
	var q Quaternion
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = Quaternion{W: 0.25 * s, X: (m21 - m12) / s, Y: (m02 - m20) / s, Z: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = Quaternion{W: (m21 - m12) / s, X: 0.25 * s, Y: (m01 + m10) / s, Z: (m02 + m20) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = Quaternion{W: (m02 - m20) / s, X: (m01 + m10) / s, Y: 0.25 * s, Z: (m12 + m21) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = Quaternion{W: (m10 - m01) / s, X: (m02 + m20) / s, Y: (m12 + m21) / s, Z: 0.25 * s}
	}
	return q
}

// ForwardUp reconstructs the forward and up vectors a Quaternion
// represents, rotating the world-frame forward (Y) and up (Z) axes.
func (q Quaternion) ForwardUp() (forward, up r3.Vector) {
	return q.rotate(r3.Vector{X: 0, Y: 1, Z: 0}), q.rotate(r3.Vector{X: 0, Y: 0, Z: 1})
}

func (q Quaternion) rotate(v r3.Vector) r3.Vector {
	// v' = v + w*t + cross(qv, t), t = 2*cross(qv, v); qv is the
	// quaternion's vector part. Equivalent to the full sandwich product
	// q*v*q^-1 but avoids building the product explicitly.
	qv := r3.Vector{X: q.X, Y: q.Y, Z: q.Z}
	t := qv.Cross(v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(qv.Cross(t))
}
