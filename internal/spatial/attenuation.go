package spatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// AirAbsorptionBand is one frequency band's per-meter attenuation
// coefficient, used to roll off high frequencies with distance.
type AirAbsorptionBand struct {
	CenterHz            float64
	CoefficientPerMeter float64
}

// AirAbsorption evaluates per-band absorption as a function of distance;
// nil is a valid, always-unity-gain AirAbsorption.
type AirAbsorption struct {
	Bands []AirAbsorptionBand
}

// Gain returns the linear gain attenuation for the given band at the
// given distance, exp(-coefficient * distance).
func (a *AirAbsorption) Gain(band int, distance float64) float64 {
	if a == nil || band < 0 || band >= len(a.Bands) || distance <= 0 {
		return 1
	}
	return math.Exp(-a.Bands[band].CoefficientPerMeter * distance)
}

// Attenuation combines a distance→gain Curve, a maximum distance, and an
// optional zone shape for directional attenuation, plus optional air
// absorption (spec §4.7, §3's Attenuation type).
type Attenuation struct {
	Curve         *Curve
	MaxDistance   float64
	Zone          *Zone
	AirAbsorption *AirAbsorption
}

// Gain computes the unobstructed distance gain scaled by the zone
// factor, given the source's position relative to the listener (in the
// listener's local, oriented space if Zone is directional).
func (a *Attenuation) Gain(relative r3.Vector) float64 {
	distance := relative.Norm()
	if a.MaxDistance > 0 && distance > a.MaxDistance {
		distance = a.MaxDistance
	}
	gain := a.Curve.Evaluate(distance)
	if a.Zone != nil {
		gain *= a.Zone.Factor(relative)
	}
	return gain
}

// BandGain returns Gain(relative) further scaled by air absorption for
// the given band, or Gain(relative) unscaled if AirAbsorption is nil.
func (a *Attenuation) BandGain(relative r3.Vector, band int) float64 {
	return a.Gain(relative) * a.AirAbsorption.Gain(band, relative.Norm())
}
