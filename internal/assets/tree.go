package assets

import (
	"github.com/amplimix/amplimix/internal/bus"
	"github.com/amplimix/amplimix/internal/errors"
)

// BuildTree turns every Bus definition registered in reg into the live
// bus.Tree the orchestrator mixes through: one runtime bus.Bus per
// definition, wired into parent/child and duck relationships, rooted at
// the single definition with a zero Parent. Building the tree is a
// load-time operation (spec §5: the bus tree's *shape* changes only at
// load time, never per block); only the gains it computes change per
// block thereafter.
func BuildTree(reg *Registry) (*bus.Tree, map[BusID]*bus.Bus, error) {
	defs := reg.Buses()
	runtime := make(map[BusID]*bus.Bus, len(defs))
	var root *bus.Bus

	for _, d := range defs {
		runtime[d.ID] = bus.NewBus(uint64(d.ID), d.StaticGain, d.UserGainSeconds)
	}
	for _, d := range defs {
		if d.Parent == 0 {
			if root != nil {
				return nil, nil, errors.Newf("bus tree has more than one root (%d and %d)", root.ID, d.ID).
					Component("assets").
					Category(errors.CategoryValidation).
					Build()
			}
			root = runtime[d.ID]
			continue
		}
		parent, ok := runtime[d.Parent]
		if !ok {
			return nil, nil, errors.Newf("bus %d references unknown parent %d", d.ID, d.Parent).
				Component("assets").
				Category(errors.CategoryValidation).
				Build()
		}
		parent.AddChild(runtime[d.ID])
	}
	if root == nil {
		return nil, nil, errors.Newf("bus tree has no root (every definition has a non-zero Parent)").
			Component("assets").
			Category(errors.CategoryValidation).
			Build()
	}

	for _, d := range defs {
		src := runtime[d.ID]
		for _, rule := range d.Ducks {
			target, ok := runtime[rule.Target]
			if !ok {
				return nil, nil, errors.Newf("bus %d ducks unknown target %d", d.ID, rule.Target).
					Component("assets").
					Category(errors.CategoryValidation).
					Build()
			}
			src.AddDuckDescriptor(&bus.DuckDescriptor{
				Target:          target,
				TargetGain:      rule.TargetGain,
				FadeInDuration:  rule.FadeInDuration,
				FadeOutDuration: rule.FadeOutDuration,
				FadeInShape:     rule.FadeInShape,
				FadeOutShape:    rule.FadeOutShape,
			})
		}
	}

	return bus.NewTree(root), runtime, nil
}
