package assets

import (
	"github.com/golang/geo/r3"

	"github.com/amplimix/amplimix/internal/spatial"
)

// Attenuation is the asset-facing handle wrapping the engine's
// distance/zone/air-absorption model (internal/spatial.Attenuation) with
// the ID and name spec §4.14 requires every asset type to carry.
type Attenuation struct {
	ID   AttenuationID
	Name string

	Shape *spatial.Attenuation
}

// Gain computes the distance/zone gain for relative, the source's
// position relative to the listener (spec §4.7).
func (a *Attenuation) Gain(relative r3.Vector) float64 {
	return a.Shape.Gain(relative)
}
