package report

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/louisbranch/decksim/internal/core/card"
	"github.com/louisbranch/decksim/internal/sim"
)

// DeckHash fingerprints a deck list for cache keying. Entry order matters:
// two decks with the same cards in a different list order hash differently,
// matching the ordered-multiset deck model.
func DeckHash(d card.Deck) string {
	h := fnv.New64a()
	for _, e := range d.Entries {
		fmt.Fprintf(h, "%s=%d;", e.Card.ID, e.Quantity)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// ConfigHash fingerprints everything besides the deck that shapes the
// aggregate output: investigator, scenario, engine configuration, policy,
// and the run parameters. Worker count fixes the reservoir merge order and
// retention and percentile ranks bound the percentile computation, so two
// requests differing only in those must never share a cache entry.
func ConfigHash(inv card.Investigator, scen card.Scenario, cfg sim.Config, policyName string, workers, retention int, ranks []float64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "inv:%d/%d/%d;", inv.StartingResources, inv.StartingHandSize, len(inv.SpecialRules))
	fmt.Fprintf(h, "scen:%d/%d;", scen.BonusResources, scen.BonusHandSize)

	flags := make([]string, 0, len(scen.StartingFlags))
	for name, set := range scen.StartingFlags {
		flags = append(flags, fmt.Sprintf("%s=%t", name, set))
	}
	sort.Strings(flags)
	for _, f := range flags {
		fmt.Fprintf(h, "flag:%s;", f)
	}

	fmt.Fprintf(h, "cfg:%d/%d/%d/%d/%d/%d/%d;",
		cfg.RoundHorizon, cfg.DrawsPerRound, cfg.ResourcesPerRound,
		cfg.HandLimit, cfg.Mulligans, cfg.EmptyLibraryRounds, cfg.SafetyCeiling)
	for _, m := range cfg.Milestones {
		fmt.Fprintf(h, "ms:%s/%s/%s;", m.Name, m.Flag, m.CardID)
	}
	fmt.Fprintf(h, "halt:%s;policy:%s;", cfg.HaltMilestone, policyName)

	fmt.Fprintf(h, "run:%d/%d;", workers, retention)
	for _, r := range ranks {
		fmt.Fprintf(h, "rank:%g;", r)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
