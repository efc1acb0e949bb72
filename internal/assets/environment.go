package assets

// Environment is the asset-facing handle for an environment zone: just
// an ID, name, and the Effect it instantiates on every entity that
// belongs to it (spec §4.9 rule 3, §4.14).
type Environment struct {
	ID     EnvironmentID
	Name   string
	Effect EffectID
}
