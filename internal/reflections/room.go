// Package reflections models a rectangular room's early reflections: a
// shared pre-reflection low-pass, a ring delay line sized to the
// worst-case wall distance, and six wall taps accumulated into a
// first-order ambisonic buffer (spec §4.8).
package reflections

// Wall is one face of the room: its distance from the listener, a
// reflection coefficient derived from its material, and the
// high-frequency absorption fraction that dulls the shared low-pass.
type Wall struct {
	Distance                float64
	Coefficient             float64
	HighFrequencyAbsorption float64
}

const (
	wallPosX = iota
	wallNegX
	wallPosY
	wallNegY
	wallPosZ
	wallNegZ
	wallCount
)

// Room is a six-walled box centered on the listener, indexed in
// wallPosX..wallNegZ order.
type Room struct {
	Walls        [wallCount]Wall
	SpeedOfSound float64 // meters/second; 0 defaults to 343
}

const defaultSpeedOfSound = 343.0

func (r Room) speedOfSound() float64 {
	if r.SpeedOfSound > 0 {
		return r.SpeedOfSound
	}
	return defaultSpeedOfSound
}

func (r Room) averageAbsorption() float64 {
	var sum float64
	for _, w := range r.Walls {
		sum += w.HighFrequencyAbsorption
	}
	return sum / float64(wallCount)
}

// wallACNAxis gives the (ACN1, ACN2, ACN3) = (world X, world Z, world Y)
// unit contribution for each wall's principal direction, per the first-
// order spherical-harmonic coefficients of a source placed exactly on
// that world axis.
var wallACNAxis = [wallCount][3]float64{
	wallPosX: {1, 0, 0},
	wallNegX: {-1, 0, 0},
	wallPosY: {0, 0, 1},
	wallNegY: {0, 0, -1},
	wallPosZ: {0, 1, 0},
	wallNegZ: {0, -1, 0},
}
