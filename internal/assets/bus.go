package assets

import "github.com/amplimix/amplimix/internal/spatial"

// Bus is the asset-facing bus *definition*: static gain, parent, and
// the duck relationships to build at load time, distinct from the live
// internal/bus.Bus the orchestrator actually mixes through. BuildTree
// turns a flat set of these into the runtime tree (spec §4.12,
// §4.14 — the core only ever touches the runtime tree; this type exists
// so a soundbank can describe buses declaratively).
type Bus struct {
	ID         BusID
	Name       string
	Parent     BusID // zero means root
	StaticGain float64

	UserGainSeconds float64

	Ducks []DuckRule
}

// DuckRule mirrors bus.DuckDescriptor at the asset-definition level,
// referencing buses by BusID rather than by live pointer.
type DuckRule struct {
	Target          BusID
	TargetGain      float64
	FadeInDuration  float64
	FadeOutDuration float64
	FadeInShape     spatial.FaderShape
	FadeOutShape    spatial.FaderShape
}
