package sim

import (
	"maps"
	"sort"

	"github.com/louisbranch/decksim/internal/core/card"
	"github.com/louisbranch/decksim/internal/core/rng"
	"github.com/louisbranch/decksim/internal/errors"
	"github.com/louisbranch/decksim/internal/sim/policy"
)

// DefaultSafetyCeiling bounds trial length independently of the configured
// horizon. A trial that reaches it terminates with a stalled flag instead of
// looping forever.
const DefaultSafetyCeiling = 1000

// Milestone names a tracked per-trial condition. It is achieved the first
// round Flag is set, or the first round a copy of CardID is drawn into hand.
type Milestone struct {
	Name   string
	Flag   string
	CardID string
}

// Config controls the round loop and stopping conditions for every trial of
// a run.
type Config struct {
	RoundHorizon      int
	DrawsPerRound     int // 0 means the default of 1
	ResourcesPerRound int // 0 means the default of 1
	HandLimit         int // 0 disables the upkeep discard
	Mulligans         int // 0 means the default of 1, negative disables the phase

	Milestones []Milestone
	// HaltMilestone names the milestone whose achievement ends the trial
	// (the run's win condition). Empty means trials run to the horizon.
	HaltMilestone string

	// EmptyLibraryRounds is the number of consecutive end-of-round empty
	// library observations that terminate the trial. 0 means the default
	// of 2.
	EmptyLibraryRounds int

	// SafetyCeiling overrides DefaultSafetyCeiling when positive.
	SafetyCeiling int
}

func (c Config) withDefaults() Config {
	if c.DrawsPerRound <= 0 {
		c.DrawsPerRound = 1
	}
	if c.ResourcesPerRound <= 0 {
		c.ResourcesPerRound = 1
	}
	if c.Mulligans == 0 {
		c.Mulligans = 1
	} else if c.Mulligans < 0 {
		c.Mulligans = 0
	}
	if c.EmptyLibraryRounds <= 0 {
		c.EmptyLibraryRounds = 2
	}
	if c.SafetyCeiling <= 0 {
		c.SafetyCeiling = DefaultSafetyCeiling
	}
	return c
}

// Validate rejects engine configuration no trial could run under.
func (c Config) Validate() error {
	if c.RoundHorizon <= 0 {
		return errors.New(errors.CodeRoundHorizonInvalid, "round horizon must be positive")
	}
	for _, m := range c.Milestones {
		if m.Name == "" || (m.Flag == "" && m.CardID == "") {
			return errors.WithMetadata(errors.CodeMilestoneInvalid,
				"milestone needs a name and a flag or card to track",
				map[string]string{"milestone": m.Name})
		}
	}
	return nil
}

// TrialSpec bundles the immutable inputs of one trial.
type TrialSpec struct {
	Trial        int
	Deck         card.Deck
	Investigator card.Investigator
	Scenario     card.Scenario
	Config       Config
	Policy       policy.Policy
	Stream       *rng.Stream
}

// RunTrial executes one complete simulated game: Setup, Mulligan, RoundLoop,
// Terminal. The returned error is non-nil only for logic faults in shared
// card data; expected outcomes (exhausted library, stalls, unmet milestones)
// are recorded on the sample.
//
// # Determinism
//
// For a fixed stream and spec, the full sequence of policy decisions and
// random draws is reproducible. RunTrial reads no wall clock and no global
// randomness.
func RunTrial(spec TrialSpec) (Sample, error) {
	cfg := spec.Config.withDefaults()
	tr := &trial{
		spec:      spec,
		cfg:       cfg,
		milestone: make(map[string]int, len(cfg.Milestones)),
	}
	for _, m := range cfg.Milestones {
		tr.milestone[m.Name] = NotAchieved
	}

	if err := tr.setup(); err != nil {
		return Sample{}, err
	}
	tr.mulligan()
	reason, err := tr.roundLoop()
	if err != nil {
		return Sample{}, err
	}
	return tr.freeze(reason), nil
}

type trial struct {
	spec TrialSpec
	cfg  Config

	st        *State
	rounds    []RoundSnapshot
	milestone map[string]int
	played    int
}

// setup shuffles the library, draws the opening hand, and applies
// investigator and scenario starting modifiers.
func (t *trial) setup() error {
	inv := t.spec.Investigator
	scen := t.spec.Scenario

	resources := inv.StartingResources + scen.BonusResources
	if resources < 0 {
		resources = 0
	}
	t.st = NewState(t.spec.Deck.Cards(), resources, scen.StartingFlags)
	t.spec.Stream.Shuffle(len(t.st.Library), func(i, j int) {
		t.st.Library[i], t.st.Library[j] = t.st.Library[j], t.st.Library[i]
	})

	handSize := inv.StartingHandSize + scen.BonusHandSize
	if handSize < 0 {
		handSize = 0
	}
	t.st.draw(handSize)

	for _, rule := range inv.SpecialRules {
		next, err := Resolve(t.st, rule, t.spec.Stream)
		if err != nil {
			return err
		}
		t.st = next
	}

	t.checkMilestones()
	return nil
}

// mulligan offers the policy its one-time discard-and-redraw. The phase is
// skipped entirely when the policy declines.
func (t *trial) mulligan() {
	for i := 0; i < t.cfg.Mulligans; i++ {
		chosen := t.spec.Policy.Mulligan(t.view())
		indices := sanitizeIndices(chosen, len(t.st.Hand))
		if len(indices) == 0 {
			return
		}
		t.st.discardFromHand(indices)
		t.st.draw(len(indices))
		t.checkMilestones()
	}
}

// roundLoop repeats draw, resource gain, policy plays, and upkeep until a
// stopping condition holds. Stopping conditions are checked at the end of
// each round in priority order: horizon, halt milestone, exhausted library.
// The safety ceiling backstops all of them.
func (t *trial) roundLoop() (string, error) {
	emptyRounds := 0
	for {
		t.st.Round++

		// Draw step.
		t.st.draw(t.cfg.DrawsPerRound)
		t.checkMilestones()

		// Resource gain step.
		t.st.gainResources(t.cfg.ResourcesPerRound)

		// Policy-driven play step.
		if err := t.playStep(); err != nil {
			return "", err
		}
		t.checkMilestones()

		// Upkeep step.
		t.upkeep()
		t.checkMilestones()

		t.rounds = append(t.rounds, RoundSnapshot{
			Round:     t.st.Round,
			Resources: t.st.Resources,
			HandSize:  len(t.st.Hand),
		})

		if len(t.st.Library) == 0 {
			emptyRounds++
		} else {
			emptyRounds = 0
		}

		switch {
		case t.st.Round >= t.cfg.RoundHorizon:
			return TerminalHorizon, nil
		case t.cfg.HaltMilestone != "" && t.achieved(t.cfg.HaltMilestone):
			return TerminalMilestone, nil
		case emptyRounds >= t.cfg.EmptyLibraryRounds:
			return TerminalLibraryDrained, nil
		case t.st.Round >= t.cfg.SafetyCeiling:
			return TerminalSafetyCeiling, nil
		}
	}
}

// playStep offers affordable plays to the policy until it declines or runs
// out of legal actions, applying each chosen play through the resolver.
func (t *trial) playStep() error {
	for {
		legal := t.legalActions()
		if len(legal) == 0 {
			return nil
		}

		chosen := t.spec.Policy.Plays(t.view(), legal)
		applied := 0
		for _, act := range chosen {
			if !offered(legal, act) {
				continue // policies may not fabricate actions
			}
			ok, err := t.playCard(act.Card)
			if err != nil {
				return err
			}
			if ok {
				applied++
			}
		}
		if applied == 0 {
			return nil
		}
	}
}

// playCard pays for and resolves one card if it is still present and
// affordable; earlier plays in the same decision may have consumed the
// resources or discarded the card.
func (t *trial) playCard(def card.Definition) (bool, error) {
	idx := -1
	for i, c := range t.st.Hand {
		if c.ID == def.ID {
			idx = i
			break
		}
	}
	if idx < 0 || def.Cost > t.st.Resources {
		return false, nil
	}

	next := t.st.Clone()
	next.gainResources(-def.Cost)
	played := next.Hand[idx]
	next.Hand = append(next.Hand[:idx], next.Hand[idx+1:]...)
	if played.HasTrait("asset") {
		next.Board = append(next.Board, played)
	} else {
		next.Discard = append(next.Discard, played)
	}

	next, err := Resolve(next, played.Effect, t.spec.Stream)
	if err != nil {
		return false, err
	}
	t.st = next
	t.played++
	return true, nil
}

// upkeep discards down to the configured hand limit, most expensive first.
func (t *trial) upkeep() {
	if t.cfg.HandLimit <= 0 || len(t.st.Hand) <= t.cfg.HandLimit {
		return
	}
	excess := len(t.st.Hand) - t.cfg.HandLimit
	order := make([]int, len(t.st.Hand))
	for i := range order {
		order[i] = i
	}
	hand := t.st.Hand
	sort.SliceStable(order, func(a, b int) bool {
		return hand[order[a]].Cost > hand[order[b]].Cost
	})
	t.st.discardFromHand(ascending(order, excess))
}

func (t *trial) legalActions() []policy.Action {
	var legal []policy.Action
	for i, c := range t.st.Hand {
		if c.Cost <= t.st.Resources {
			legal = append(legal, policy.Action{HandIndex: i, Card: c})
		}
	}
	return legal
}

func (t *trial) view() policy.View {
	return policy.View{
		Hand:         append([]card.Definition(nil), t.st.Hand...),
		Resources:    t.st.Resources,
		Round:        t.st.Round,
		LibraryCount: len(t.st.Library),
		Flags:        maps.Clone(t.st.Flags),
	}
}

// checkMilestones records the first round each tracked milestone holds.
func (t *trial) checkMilestones() {
	for _, m := range t.cfg.Milestones {
		if t.milestone[m.Name] != NotAchieved {
			continue
		}
		if m.Flag != "" && t.st.Flags[m.Flag] {
			t.milestone[m.Name] = t.st.Round
			continue
		}
		if m.CardID != "" {
			for _, c := range t.st.Hand {
				if c.ID == m.CardID {
					t.milestone[m.Name] = t.st.Round
					break
				}
			}
		}
	}
}

func (t *trial) achieved(name string) bool {
	round, ok := t.milestone[name]
	return ok && round != NotAchieved
}

// freeze converts the terminal deck state into the immutable sample record.
func (t *trial) freeze(reason string) Sample {
	anyMilestone := false
	for _, round := range t.milestone {
		if round != NotAchieved {
			anyMilestone = true
			break
		}
	}
	// A stall is a trial the safety ceiling had to cut short, or one that
	// ran its full horizon without the policy ever acting and without
	// reaching any tracked milestone.
	stalled := reason == TerminalSafetyCeiling ||
		(reason == TerminalHorizon && t.played == 0 && !anyMilestone)
	if stalled {
		t.st.Flags[FlagStalled] = true
	}
	return Sample{
		Trial:          t.spec.Trial,
		Rounds:         t.rounds,
		Milestones:     maps.Clone(t.milestone),
		TerminalRound:  t.st.Round,
		TerminalReason: reason,
		Flags:          maps.Clone(t.st.Flags),
		CardsPlayed:    t.played,
		Stalled:        stalled,
		LibraryEmptied: t.st.Flags[FlagLibraryEmpty],
	}
}

// sanitizeIndices keeps valid, de-duplicated hand indices in ascending
// order. Policies may only select from what they were offered.
func sanitizeIndices(indices []int, handSize int) []int {
	seen := make(map[int]bool, len(indices))
	var out []int
	for _, idx := range indices {
		if idx < 0 || idx >= handSize || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return ascending(out, len(out))
}

func offered(legal []policy.Action, act policy.Action) bool {
	for _, l := range legal {
		if l.HandIndex == act.HandIndex && l.Card.ID == act.Card.ID {
			return true
		}
	}
	return false
}

