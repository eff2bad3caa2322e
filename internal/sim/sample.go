package sim

// NotAchieved is the sentinel round for milestones a trial never reached.
const NotAchieved = -1

// Terminal reasons recorded on a sample, in stopping-condition priority
// order.
const (
	TerminalHorizon        = "horizon"
	TerminalMilestone      = "milestone"
	TerminalLibraryDrained = "library_exhausted"
	TerminalSafetyCeiling  = "safety_ceiling"
)

// RoundSnapshot captures the resource pool and hand size at the end of one
// round.
type RoundSnapshot struct {
	Round     int
	Resources int
	HandSize  int
}

// Sample is the immutable per-trial outcome record fed to the aggregator.
// It is all that survives a trial; the deck state itself is discarded.
type Sample struct {
	Trial          int
	Rounds         []RoundSnapshot
	Milestones     map[string]int // first round achieved, NotAchieved otherwise
	TerminalRound  int
	TerminalReason string
	Flags          map[string]bool
	CardsPlayed    int
	Stalled        bool
	LibraryEmptied bool
}
