// Package sim implements the per-trial simulation: deck state, effect
// resolution, and the trial state machine.
package sim

import (
	"maps"

	"github.com/louisbranch/decksim/internal/core/card"
)

// Flags written by the engine itself. Card effects may write any other name.
const (
	// FlagLibraryEmpty is set the first time a draw finds the library empty.
	// Running out of cards is a valid end-of-trial event, not a fault.
	FlagLibraryEmpty = "library_empty"

	// FlagStalled is set when a trial terminates without the policy ever
	// acting, or when the safety ceiling cuts a runaway trial short.
	FlagStalled = "stalled"
)

// State is the mutable game state owned by exactly one trial.
//
// Index 0 of Library is the top of the deck. The conservation invariant
// holds at every point between effect resolutions: len(Library) + len(Hand)
// + len(Discard) + len(Board) equals the original deck size.
type State struct {
	Library   []card.Definition
	Hand      []card.Definition
	Discard   []card.Definition
	Board     []card.Definition
	Resources int
	Round     int
	Flags     map[string]bool
}

// NewState builds the pre-shuffle starting state for one trial.
func NewState(library []card.Definition, resources int, flags map[string]bool) *State {
	st := &State{
		Library:   append([]card.Definition(nil), library...),
		Resources: resources,
		Flags:     make(map[string]bool, len(flags)),
	}
	maps.Copy(st.Flags, flags)
	return st
}

// Clone returns a deep copy. Effect resolution works on clones so a caller
// can always discard a speculative application.
func (s *State) Clone() *State {
	c := &State{
		Library:   append([]card.Definition(nil), s.Library...),
		Hand:      append([]card.Definition(nil), s.Hand...),
		Discard:   append([]card.Definition(nil), s.Discard...),
		Board:     append([]card.Definition(nil), s.Board...),
		Resources: s.Resources,
		Round:     s.Round,
		Flags:     make(map[string]bool, len(s.Flags)),
	}
	maps.Copy(c.Flags, s.Flags)
	return c
}

// CardCount returns the total cards across every zone.
func (s *State) CardCount() int {
	return len(s.Library) + len(s.Hand) + len(s.Discard) + len(s.Board)
}

// draw moves up to n cards from the top of the library into the hand and
// returns how many actually moved. Hitting an empty library sets
// FlagLibraryEmpty and stops.
func (s *State) draw(n int) int {
	moved := 0
	for i := 0; i < n; i++ {
		if len(s.Library) == 0 {
			s.Flags[FlagLibraryEmpty] = true
			break
		}
		s.Hand = append(s.Hand, s.Library[0])
		s.Library = s.Library[1:]
		moved++
	}
	return moved
}

// gainResources adjusts the pool, clamping at zero.
func (s *State) gainResources(n int) {
	s.Resources += n
	if s.Resources < 0 {
		s.Resources = 0
	}
}

// discardFromHand moves the hand cards at the given indices to the discard
// pile. Indices must be valid and strictly increasing.
func (s *State) discardFromHand(indices []int) {
	for offset, idx := range indices {
		idx -= offset // earlier removals shift later indices left
		s.Discard = append(s.Discard, s.Hand[idx])
		s.Hand = append(s.Hand[:idx], s.Hand[idx+1:]...)
	}
}
