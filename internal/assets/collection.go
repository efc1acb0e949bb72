package assets

import (
	"math/rand"

	"github.com/amplimix/amplimix/internal/errors"
)

// SelectionMode is the scheduling strategy a Collection uses to pick
// which of its Sounds plays next, grounded on original_source's
// Scheduler (sequential and random variants; the remaining scheduler
// kinds it defines are out of scope per spec §1's non-goals on
// arbitrary graph topologies).
type SelectionMode int

const (
	SelectionSequential SelectionMode = iota
	SelectionRandom
)

// Collection groups several interchangeable Sounds (e.g. a family of
// footstep variations) behind one asset-facing handle, selected by
// SelectionMode at Play time (spec §4.14, original_source's
// SoundCollection).
type Collection struct {
	ID   CollectionID
	Name string

	Bus         BusID
	Attenuation AttenuationID

	Sounds []SoundID
	Mode   SelectionMode

	next int // sequential cursor, control-thread-only
}

// Select returns the next Sound this collection should play, skipping
// any ID present in skip (a just-played set, to avoid immediate
// repeats). It fails with InvalidSound if every member is unresolved in
// reg or skipped.
func (c *Collection) Select(reg *Registry, skip []SoundID) (*Sound, error) {
	if len(c.Sounds) == 0 {
		return nil, errors.Newf("collection %q has no sounds", c.Name).
			Component("assets").
			Category(errors.CategoryValidation).
			Build()
	}

	isSkipped := func(id SoundID) bool {
		for _, s := range skip {
			if s == id {
				return true
			}
		}
		return false
	}

	switch c.Mode {
	case SelectionRandom:
		start := rand.Intn(len(c.Sounds))
		for i := 0; i < len(c.Sounds); i++ {
			id := c.Sounds[(start+i)%len(c.Sounds)]
			if isSkipped(id) {
				continue
			}
			if s, ok := reg.Sound(id); ok {
				return s, nil
			}
		}
	default:
		for i := 0; i < len(c.Sounds); i++ {
			id := c.Sounds[c.next%len(c.Sounds)]
			c.next++
			if isSkipped(id) {
				continue
			}
			if s, ok := reg.Sound(id); ok {
				return s, nil
			}
		}
	}

	return nil, errors.Newf("collection %q has no resolvable sound", c.Name).
		Component("assets").
		Category(errors.CategoryNotFound).
		Build()
}
