package assets

import (
	"sort"

	"github.com/golang/geo/r3"

	"github.com/amplimix/amplimix/internal/layer"
	"github.com/amplimix/amplimix/internal/spatial"
)

// Entity is the asset-facing handle for a positional sound emitter
// (spec §4.7, §4.14): same geometric state as a Listener, plus
// obstruction/occlusion scalars and the environment membership map used
// to build each playing layer's EnvironmentFactor list (spec §4.9 rule
// 3: "the largest factor wins when selecting an effect").
type Entity struct {
	ID EntityID

	location    r3.Vector
	velocity    r3.Vector
	orientation spatial.Orientation

	obstruction float64
	occlusion   float64

	environments map[EnvironmentID]float64
}

// NewEntity constructs an Entity at the origin with no environment
// membership.
func NewEntity(id EntityID) *Entity {
	return &Entity{
		ID:           id,
		orientation:  spatial.NewOrientation(r3.Vector{Y: 1}, r3.Vector{Z: 1}),
		environments: make(map[EnvironmentID]float64),
	}
}

// SetLocation updates position, deriving velocity from the per-call
// delta exactly as Listener.SetLocation does.
func (e *Entity) SetLocation(position r3.Vector, dt float64) {
	if dt > 0 {
		e.velocity = position.Sub(e.location).Mul(1 / dt)
	}
	e.location = position
}

func (e *Entity) SetOrientation(o spatial.Orientation) { e.orientation = o }
func (e *Entity) SetObstruction(v float64)              { e.obstruction = v }
func (e *Entity) SetOcclusion(v float64)                { e.occlusion = v }

// SetEnvironmentFactor records or clears (factor <= 0) this entity's
// membership in an environment zone (spec §6.5's SetEntityEnvironmentFactor).
func (e *Entity) SetEnvironmentFactor(env EnvironmentID, factor float64) {
	if factor <= 0 {
		delete(e.environments, env)
		return
	}
	e.environments[env] = factor
}

func (e *Entity) Location() r3.Vector              { return e.location }
func (e *Entity) Velocity() r3.Vector              { return e.velocity }
func (e *Entity) Orientation() spatial.Orientation { return e.orientation }
func (e *Entity) Obstruction() float64             { return e.obstruction }
func (e *Entity) Occlusion() float64               { return e.occlusion }

// EnvironmentFactors resolves the entity's environment membership map
// through reg into the ordered (descending factor) EnvironmentFactor
// slice layer.Chain.Process expects, skipping any EnvironmentID whose
// Environment or Effect isn't registered.
func (e *Entity) EnvironmentFactors(reg *Registry) []layer.EnvironmentFactor {
	out := make([]layer.EnvironmentFactor, 0, len(e.environments))
	for id, factor := range e.environments {
		env, ok := reg.Environment(id)
		if !ok {
			continue
		}
		effect, ok := reg.Effect(env.Effect)
		if !ok {
			continue
		}
		out = append(out, layer.EnvironmentFactor{
			EnvironmentID: uint64(id),
			Effect:        effect,
			Factor:        factor,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Factor > out[j].Factor })
	return out
}
