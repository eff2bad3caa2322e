// Package card defines immutable card data for the simulation engine.
//
// A Definition describes one card: its play cost, traits, and a declarative
// effect descriptor. Definitions are read-only inputs resolved by the card
// data provider before a run starts and shared by every trial in the run.
package card

// Definition describes one card.
type Definition struct {
	ID     string
	Name   string
	Cost   int
	Traits []string
	Effect Effect // nil means the card has no effect when played
}

// HasTrait reports whether the card carries the given trait.
func (d Definition) HasTrait(trait string) bool {
	for _, t := range d.Traits {
		if t == trait {
			return true
		}
	}
	return false
}
