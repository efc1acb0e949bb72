// Package spatial implements distance attenuation, zone-shape factors,
// directivity, listener/entity orientation, and RTPC smoothing (spec
// §4.7).
package spatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// ShapeKind selects the geometric test a Zone's inner/outer pair uses.
type ShapeKind int

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
	ShapeCone
	ShapeCapsule
)

// ShapeParams holds every field any ShapeKind might need; only the
// fields relevant to the Zone's Kind are read.
type ShapeParams struct {
	Radius      float64    // sphere radius; capsule radius
	HalfExtents r3.Vector  // box half-extents along each axis
	Axis        r3.Vector  // cone/capsule axis direction, need not be unit
	Angle       float64    // cone half-angle, radians
	Range       float64    // cone max distance along axis
	HalfHeight  float64    // capsule half-height of the core segment
}

// Zone is a pair of nested shapes of the same Kind. Factor is 1 inside
// Inner, 0 outside Outer, and monotonically non-increasing along any ray
// from Inner's boundary to Outer's boundary in between.
type Zone struct {
	Kind         ShapeKind
	Inner, Outer ShapeParams
}

// Factor evaluates the zone factor at a point given relative to the
// zone's origin (listener- or entity-local space, already oriented).
func (z *Zone) Factor(relative r3.Vector) float64 {
	sInner := z.radialMeasure(relative, z.Inner)
	sOuter := z.radialMeasure(relative, z.Outer)
	return zoneFactor(sInner, sOuter)
}

// zoneFactor combines the inner- and outer-shape radial measures (each
// normalized so 1.0 sits exactly on that shape's boundary) into a single
// 0..1 factor. Because both measures scale linearly with distance along
// a fixed ray, their ratio k = sInner/sOuter is constant along that ray,
// which lets a single formula work for every ShapeKind: the ray crosses
// the outer boundary at sOuter=1 and the inner boundary at sOuter=1/k.
func zoneFactor(sInner, sOuter float64) float64 {
	if sOuter <= 0 {
		return 1
	}
	if sInner <= 1 {
		return 1
	}
	if sOuter >= 1 {
		return 0
	}
	k := sInner / sOuter
	innerAtOuterUnits := 1 / k
	if sOuter <= innerAtOuterUnits {
		return 1
	}
	t := (1 - sOuter) / (1 - innerAtOuterUnits)
	return clamp01(t)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (z *Zone) radialMeasure(point r3.Vector, p ShapeParams) float64 {
	switch z.Kind {
	case ShapeBox:
		return boxMeasure(point, p.HalfExtents)
	case ShapeCone:
		return coneMeasure(point, p)
	case ShapeCapsule:
		return capsuleMeasure(point, p)
	default:
		return sphereMeasure(point, p.Radius)
	}
}

func sphereMeasure(point r3.Vector, radius float64) float64 {
	if radius <= 0 {
		return math.Inf(1)
	}
	return point.Norm() / radius
}

func boxMeasure(point r3.Vector, half r3.Vector) float64 {
	ratio := func(v, h float64) float64 {
		if h <= 0 {
			return math.Inf(1)
		}
		return math.Abs(v) / h
	}
	rx := ratio(point.X, half.X)
	ry := ratio(point.Y, half.Y)
	rz := ratio(point.Z, half.Z)
	return math.Max(rx, math.Max(ry, rz))
}

func coneMeasure(point r3.Vector, p ShapeParams) float64 {
	axis := p.Axis.Normalize()
	along := point.Dot(axis)
	if along <= 0 || p.Range <= 0 || p.Angle <= 0 {
		return math.Inf(1)
	}
	radial := point.Sub(axis.Mul(along)).Norm()
	angle := math.Atan2(radial, along)
	return math.Max(along/p.Range, angle/p.Angle)
}

func capsuleMeasure(point r3.Vector, p ShapeParams) float64 {
	if p.Radius <= 0 {
		return math.Inf(1)
	}
	axis := p.Axis
	if axis.Norm() == 0 {
		axis = r3.Vector{X: 0, Y: 1, Z: 0}
	}
	axis = axis.Normalize()
	along := point.Dot(axis)
	if along > p.HalfHeight {
		along = p.HalfHeight
	} else if along < -p.HalfHeight {
		along = -p.HalfHeight
	}
	closest := axis.Mul(along)
	return point.Sub(closest).Norm() / p.Radius
}
