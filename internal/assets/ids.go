// Package assets implements the thin, read-only asset-facing handles
// spec §4.14 describes: opaque IDs plus views over sound, collection,
// attenuation, effect, bus, listener, entity and environment
// definitions. The core never mutates an asset through these types; it
// calls pure accessor/selection methods on them (grounded on
// original_source's SoundCollection/Attenuation/Bus/Listener/Entity
// headers, translated from reference-counted C++ objects to plain Go
// values looked up by ID from a load-time registry).
package assets

// SoundID, CollectionID, AttenuationID, EffectID, BusID, ListenerID,
// EntityID and EnvironmentID are opaque handles into their respective
// asset registries (spec §4.14: AmSoundID, AmCollectionID, ...). The
// zero value of every ID type is invalid.
type (
	SoundID       uint64
	CollectionID  uint64
	AttenuationID uint64
	EffectID      uint64
	BusID         uint64
	ListenerID    uint64
	EntityID      uint64
	EnvironmentID uint64
)

// IsValid reports whether id refers to a real, registered sound.
func (id SoundID) IsValid() bool { return id != 0 }

// IsValid reports whether id refers to a real, registered collection.
func (id CollectionID) IsValid() bool { return id != 0 }

// IsValid reports whether id refers to a real, registered attenuation.
func (id AttenuationID) IsValid() bool { return id != 0 }

// IsValid reports whether id refers to a real, registered effect.
func (id EffectID) IsValid() bool { return id != 0 }

// IsValid reports whether id refers to a real, registered bus.
func (id BusID) IsValid() bool { return id != 0 }

// IsValid reports whether id refers to a real, registered listener.
func (id ListenerID) IsValid() bool { return id != 0 }

// IsValid reports whether id refers to a real, registered entity.
func (id EntityID) IsValid() bool { return id != 0 }

// IsValid reports whether id refers to a real, registered environment.
func (id EnvironmentID) IsValid() bool { return id != 0 }
