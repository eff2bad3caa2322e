package card

// Effect is a declarative card-effect descriptor.
//
// The variant set is closed: the resolver switches over every concrete type
// below and treats anything else as a defect in card data. New effects are
// added by extending this set and the resolver's handling, never by
// per-card subclassing.
type Effect interface {
	isEffect()
}

// Draw draws up to N cards from the library. Drawing past an empty library
// draws whatever remains; library exhaustion is a modeled game state, not a
// fault.
type Draw struct {
	N int
}

// GainResource adds N resources to the pool. Negative N spends resources;
// the pool never drops below zero.
type GainResource struct {
	N int
}

// DiscardCards discards hand cards chosen by Selector.
type DiscardCards struct {
	Selector Selector
}

// SetFlag writes a named boolean flag on the trial state. Milestones are
// tracked this way.
type SetFlag struct {
	Name  string
	Value bool
}

// Conditional applies Then when If holds, otherwise Else. Either branch may
// be nil.
type Conditional struct {
	If   Predicate
	Then Effect
	Else Effect
}

// Sequence applies the listed effects in order against the evolving state.
type Sequence struct {
	Effects []Effect
}

func (Draw) isEffect()         {}
func (GainResource) isEffect() {}
func (DiscardCards) isEffect() {}
func (SetFlag) isEffect()      {}
func (Conditional) isEffect()  {}
func (Sequence) isEffect()     {}

// Predicate is a closed condition variant used by Conditional effects.
type Predicate interface {
	isPredicate()
}

// ResourcesAtLeast holds when the resource pool is at least N.
type ResourcesAtLeast struct {
	N int
}

// HandSizeAtLeast holds when the hand has at least N cards.
type HandSizeAtLeast struct {
	N int
}

// FlagSet holds when the named flag is set.
type FlagSet struct {
	Name string
}

func (ResourcesAtLeast) isPredicate() {}
func (HandSizeAtLeast) isPredicate()  {}
func (FlagSet) isPredicate()          {}

// Selector is a closed hand-card selection variant used by discard effects.
type Selector interface {
	isSelector()
}

// SelectCheapest picks up to N cheapest hand cards.
type SelectCheapest struct {
	N int
}

// SelectTrait picks up to N hand cards carrying Trait.
type SelectTrait struct {
	Trait string
	N     int
}

// SelectRandom picks up to N uniformly random hand cards.
type SelectRandom struct {
	N int
}

func (SelectCheapest) isSelector() {}
func (SelectTrait) isSelector()    {}
func (SelectRandom) isSelector()   {}
