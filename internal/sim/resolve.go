package sim

import (
	"fmt"
	"sort"

	"github.com/louisbranch/decksim/internal/core/card"
	"github.com/louisbranch/decksim/internal/core/rng"
	"github.com/louisbranch/decksim/internal/errors"
)

// Resolve applies an effect descriptor to a state and returns the resulting
// state. The input state is never mutated; callers that dislike the outcome
// can simply keep their original.
//
// A nil effect is a no-op. An unrecognized descriptor variant is a defect in
// shared card data and is reported as an EFFECT_RESOLUTION_FAULT; the caller
// is expected to abort the whole run, not just the trial.
func Resolve(st *State, eff card.Effect, stream *rng.Stream) (*State, error) {
	next := st.Clone()
	if err := apply(next, eff, stream); err != nil {
		return nil, err
	}
	return next, nil
}

// apply mutates st in place. Only Resolve and the engine's own setup path
// call it, always on a clone or on state they exclusively own.
func apply(st *State, eff card.Effect, stream *rng.Stream) error {
	switch e := eff.(type) {
	case nil:
		return nil

	case card.Draw:
		st.draw(e.N)
		return nil

	case card.GainResource:
		st.gainResources(e.N)
		return nil

	case card.SetFlag:
		st.Flags[e.Name] = e.Value
		return nil

	case card.DiscardCards:
		indices, err := selectFromHand(st, e.Selector, stream)
		if err != nil {
			return err
		}
		st.discardFromHand(indices)
		return nil

	case card.Conditional:
		holds, err := evaluate(st, e.If)
		if err != nil {
			return err
		}
		if holds {
			return apply(st, e.Then, stream)
		}
		return apply(st, e.Else, stream)

	case card.Sequence:
		for _, sub := range e.Effects {
			if err := apply(st, sub, stream); err != nil {
				return err
			}
		}
		return nil
	}

	return errors.WithMetadata(errors.CodeEffectResolutionFault,
		"unrecognized effect descriptor",
		map[string]string{"descriptor": fmt.Sprintf("%T", eff)})
}

// evaluate checks a predicate against the state.
func evaluate(st *State, p card.Predicate) (bool, error) {
	switch pred := p.(type) {
	case nil:
		return true, nil
	case card.ResourcesAtLeast:
		return st.Resources >= pred.N, nil
	case card.HandSizeAtLeast:
		return len(st.Hand) >= pred.N, nil
	case card.FlagSet:
		return st.Flags[pred.Name], nil
	}

	return false, errors.WithMetadata(errors.CodeEffectResolutionFault,
		"unrecognized predicate",
		map[string]string{"descriptor": fmt.Sprintf("%T", p)})
}

// selectFromHand resolves a selector into strictly increasing hand indices.
func selectFromHand(st *State, sel card.Selector, stream *rng.Stream) ([]int, error) {
	switch s := sel.(type) {
	case nil:
		return nil, nil

	case card.SelectCheapest:
		order := make([]int, len(st.Hand))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return st.Hand[order[a]].Cost < st.Hand[order[b]].Cost
		})
		return ascending(order, s.N), nil

	case card.SelectTrait:
		var matched []int
		for i, c := range st.Hand {
			if c.HasTrait(s.Trait) {
				matched = append(matched, i)
			}
		}
		return ascending(matched, s.N), nil

	case card.SelectRandom:
		order := make([]int, len(st.Hand))
		for i := range order {
			order[i] = i
		}
		stream.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		return ascending(order, s.N), nil
	}

	return nil, errors.WithMetadata(errors.CodeEffectResolutionFault,
		"unrecognized selector",
		map[string]string{"descriptor": fmt.Sprintf("%T", sel)})
}

// ascending truncates a candidate index list to n and sorts it.
func ascending(indices []int, n int) []int {
	if n <= 0 {
		return nil
	}
	if n < len(indices) {
		indices = indices[:n]
	}
	out := append([]int(nil), indices...)
	sort.Ints(out)
	return out
}
