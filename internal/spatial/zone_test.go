package spatial

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
)

func TestSphereZoneFactorMatchesInnerOuterBounds(t *testing.T) {
	z := &Zone{
		Kind:  ShapeSphere,
		Inner: ShapeParams{Radius: 50},
		Outer: ShapeParams{Radius: 100},
	}
	assert.Equal(t, 1.0, z.Factor(r3.Vector{X: 25, Y: 25, Z: 25}))
	assert.Equal(t, 0.0, z.Factor(r3.Vector{X: 175, Y: 175, Z: 175}))
	assert.InDelta(t, 0.5, z.Factor(r3.Vector{X: 0, Y: 75, Z: 0}), 1e-9)
}

func TestBoxZoneFactorAtCenterAndBeyondOuter(t *testing.T) {
	z := &Zone{
		Kind:  ShapeBox,
		Inner: ShapeParams{HalfExtents: r3.Vector{X: 50, Y: 50, Z: 50}},
		Outer: ShapeParams{HalfExtents: r3.Vector{X: 100, Y: 100, Z: 100}},
	}
	assert.Equal(t, 1.0, z.Factor(r3.Vector{X: 0, Y: 0, Z: 0}))
	assert.Equal(t, 0.0, z.Factor(r3.Vector{X: 200, Y: 0, Z: 0}))
}

func TestCapsuleZoneFactorAtEquator(t *testing.T) {
	z := &Zone{
		Kind:  ShapeCapsule,
		Inner: ShapeParams{Radius: 25, HalfHeight: 50, Axis: r3.Vector{X: 0, Y: 1, Z: 0}},
		Outer: ShapeParams{Radius: 50, HalfHeight: 100, Axis: r3.Vector{X: 0, Y: 1, Z: 0}},
	}
	assert.InDelta(t, 0.5, z.Factor(r3.Vector{X: 37.5, Y: 0, Z: 0}), 1e-9)
}

func TestZoneFactorMonotonicAlongRay(t *testing.T) {
	z := &Zone{
		Kind:  ShapeSphere,
		Inner: ShapeParams{Radius: 10},
		Outer: ShapeParams{Radius: 20},
	}
	prev := 1.0
	for d := 10.0; d <= 20.0; d += 1.0 {
		f := z.Factor(r3.Vector{X: d, Y: 0, Z: 0})
		assert.LessOrEqual(t, f, prev+1e-9)
		prev = f
	}
}

func TestConeZoneFactorOutsideAngleIsZero(t *testing.T) {
	z := &Zone{
		Kind:  ShapeCone,
		Inner: ShapeParams{Axis: r3.Vector{X: 0, Y: 1, Z: 0}, Angle: 0.2, Range: 10},
		Outer: ShapeParams{Axis: r3.Vector{X: 0, Y: 1, Z: 0}, Angle: 0.4, Range: 20},
	}
	// straight behind the apex: along <= 0, outside the cone entirely
	assert.Equal(t, 0.0, z.Factor(r3.Vector{X: 0, Y: -5, Z: 0}))
	// straight ahead, close in: inside the inner cone
	assert.Equal(t, 1.0, z.Factor(r3.Vector{X: 0, Y: 5, Z: 0}))
}
