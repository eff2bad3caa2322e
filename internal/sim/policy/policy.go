// Package policy defines the decision strategies consulted by the trial
// engine at its two choice points: mulligan selection and play selection.
//
// The engine is agnostic to policy implementation; callers outside the
// engine (the AI-agent layer included) can register custom strategies
// without engine changes. A policy may only select from the legal actions it
// is offered; the engine discards anything it did not offer.
package policy

import (
	"github.com/louisbranch/decksim/internal/core/card"
)

// View is the read-only snapshot of trial state a policy decides against.
// The engine builds it from copies, so a policy cannot corrupt the trial.
type View struct {
	Hand         []card.Definition
	Resources    int
	Round        int
	LibraryCount int
	Flags        map[string]bool
}

// Action is one legal play: a hand card the trial can currently afford.
type Action struct {
	HandIndex int
	Card      card.Definition
}

// Policy chooses among offered actions. Implementations must be
// deterministic with respect to their inputs; all randomness in a trial
// flows through the engine's RNG stream, never through a policy.
type Policy interface {
	// Name identifies the policy in run metadata.
	Name() string

	// Mulligan returns hand indices to discard-and-redraw during the
	// one-time mulligan phase. Returning nothing declines the mulligan.
	Mulligan(v View) []int

	// Plays returns the actions to take this round, in play order, chosen
	// from legal. Returning nothing ends the play step.
	Plays(v View, legal []Action) []Action
}

// Builder constructs a fresh policy instance. Each trial worker builds its
// own so that stateful policies (scripted ones in particular) never share
// state across goroutines.
type Builder func() (Policy, error)
