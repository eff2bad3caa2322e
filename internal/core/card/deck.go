package card

// Entry is one deck slot: a card and how many copies of it the deck runs.
type Entry struct {
	Card     Definition
	Quantity int
}

// Deck is an ordered multiset of card definitions.
type Deck struct {
	Name    string
	Entries []Entry
}

// Size returns the total card count across all entries.
func (d Deck) Size() int {
	total := 0
	for _, e := range d.Entries {
		total += e.Quantity
	}
	return total
}

// Cards expands the deck into one Definition per physical card, in entry
// order. The expansion is the pre-shuffle library order.
func (d Deck) Cards() []Definition {
	out := make([]Definition, 0, d.Size())
	for _, e := range d.Entries {
		for i := 0; i < e.Quantity; i++ {
			out = append(out, e.Card)
		}
	}
	return out
}

// Investigator holds the base starting configuration for the simulated
// player.
type Investigator struct {
	Name              string
	StartingResources int
	StartingHandSize  int
	// SpecialRules are effect descriptors applied once at trial setup,
	// after the opening hand is drawn.
	SpecialRules []Effect
}

// Scenario holds additive adjustments to starting conditions contributed by
// the scenario or campaign upgrades.
type Scenario struct {
	Name           string
	BonusResources int
	BonusHandSize  int
	StartingFlags  map[string]bool
}
