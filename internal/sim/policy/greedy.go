package policy

import "sort"

// Greedy is the reference strategy: cheapest-first with milestone-card
// priority. Cards named in PriorityCards or carrying a PriorityTraits trait
// are played before anything else; remaining plays go cheapest first.
type Greedy struct {
	PriorityCards  []string
	PriorityTraits []string
}

// Name implements Policy.
func (g *Greedy) Name() string { return "greedy" }

// Mulligan tosses expensive non-priority cards: anything costing more than
// the current resource pool that the deck is not explicitly chasing.
func (g *Greedy) Mulligan(v View) []int {
	var toss []int
	for i, c := range v.Hand {
		if g.isPriority(c.ID, c.Traits) {
			continue
		}
		if c.Cost > v.Resources {
			toss = append(toss, i)
		}
	}
	return toss
}

// Plays picks priority cards first, then cheapest first, while the pool can
// pay for the running total.
func (g *Greedy) Plays(v View, legal []Action) []Action {
	ordered := append([]Action(nil), legal...)
	sort.SliceStable(ordered, func(a, b int) bool {
		pa := g.isPriority(ordered[a].Card.ID, ordered[a].Card.Traits)
		pb := g.isPriority(ordered[b].Card.ID, ordered[b].Card.Traits)
		if pa != pb {
			return pa
		}
		return ordered[a].Card.Cost < ordered[b].Card.Cost
	})

	budget := v.Resources
	var chosen []Action
	for _, act := range ordered {
		if act.Card.Cost > budget {
			continue
		}
		budget -= act.Card.Cost
		chosen = append(chosen, act)
	}
	return chosen
}

func (g *Greedy) isPriority(id string, traits []string) bool {
	for _, p := range g.PriorityCards {
		if p == id {
			return true
		}
	}
	for _, t := range traits {
		for _, p := range g.PriorityTraits {
			if p == t {
				return true
			}
		}
	}
	return false
}

// Passive never mulligans and never plays. It exists as the lower baseline
// for comparative runs and exercises the engine's stall handling.
type Passive struct{}

// Name implements Policy.
func (Passive) Name() string { return "passive" }

// Mulligan implements Policy by declining.
func (Passive) Mulligan(View) []int { return nil }

// Plays implements Policy by declining.
func (Passive) Plays(View, []Action) []Action { return nil }
