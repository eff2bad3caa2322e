package report

import (
	"encoding/json"
	"testing"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/louisbranch/decksim/internal/core/card"
	"github.com/louisbranch/decksim/internal/errors"
	"github.com/louisbranch/decksim/internal/sim"
	"github.com/louisbranch/decksim/internal/stats"
)

func testDeck() card.Deck {
	return card.Deck{
		Name: "tempo",
		Entries: []card.Entry{
			{Card: card.Definition{ID: "spark", Cost: 1}, Quantity: 2},
			{Card: card.Definition{ID: "anvil", Cost: 3}, Quantity: 1},
		},
	}
}

func TestBuild(t *testing.T) {
	meta := Meta{
		RunID:           "run-1",
		Seed:            42,
		TrialCount:      1000,
		CompletedTrials: 1000,
		DeckName:        "tempo",
		DeckHash:        "abc",
		ConfigHash:      "def",
		Policy:          "greedy",
		Workers:         4,
		Duration:        1500 * time.Millisecond,
	}
	rep := Build(meta, stats.Result{Trials: 1000})

	if rep.SchemaVersion != SchemaVersion {
		t.Errorf("schema version = %q, want %q", rep.SchemaVersion, SchemaVersion)
	}
	if rep.Seed != 42 || rep.TrialCount != 1000 || rep.CompletedTrials != 1000 {
		t.Errorf("run identity fields not carried: %+v", rep)
	}
	if rep.Incomplete {
		t.Error("complete run flagged incomplete")
	}
	if rep.DurationMS != 1500 {
		t.Errorf("duration_ms = %d, want 1500", rep.DurationMS)
	}
	if rep.Result.Trials != 1000 {
		t.Errorf("result trials = %d, want 1000", rep.Result.Trials)
	}
}

func TestBuild_IncompleteRun(t *testing.T) {
	rep := Build(Meta{
		TrialCount:      1000,
		CompletedTrials: 312,
		Incomplete:      true,
		IncompleteInfo:  ReasonCancelled,
	}, stats.Result{Trials: 312})

	if !rep.Incomplete || rep.IncompleteInfo != ReasonCancelled {
		t.Fatalf("partial run not flagged: %+v", rep)
	}
	if rep.CompletedTrials != 312 {
		t.Errorf("completed_trials = %d, want 312", rep.CompletedTrials)
	}
}

// Incomplete reasons are the structured run-level error codes, so a
// transport layer can map a partial report straight to a status.
func TestIncompleteReasons_AreErrorCodes(t *testing.T) {
	if got := errors.Code(ReasonCancelled).GRPCCode(); got != codes.Canceled {
		t.Errorf("cancelled reason maps to %v, want %v", got, codes.Canceled)
	}
	if got := errors.Code(ReasonDeadline).GRPCCode(); got != codes.DeadlineExceeded {
		t.Errorf("deadline reason maps to %v, want %v", got, codes.DeadlineExceeded)
	}
}

func TestReport_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Build(Meta{RunID: "r"}, stats.Result{}))
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"schema_version", "run_id", "trial_count", "completed_trials", "deck_hash", "config_hash", "result"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("serialized report missing %q", key)
		}
	}
}

func TestDeckHash_Deterministic(t *testing.T) {
	if DeckHash(testDeck()) != DeckHash(testDeck()) {
		t.Fatal("same deck hashed differently")
	}
}

func TestDeckHash_OrderSensitive(t *testing.T) {
	a := testDeck()
	b := testDeck()
	b.Entries[0], b.Entries[1] = b.Entries[1], b.Entries[0]
	if DeckHash(a) == DeckHash(b) {
		t.Fatal("reordered deck list should hash differently")
	}
}

func TestDeckHash_QuantitySensitive(t *testing.T) {
	a := testDeck()
	b := testDeck()
	b.Entries[0].Quantity = 1
	if DeckHash(a) == DeckHash(b) {
		t.Fatal("quantity change should change the hash")
	}
}

func TestConfigHash_Diverges(t *testing.T) {
	inv := card.Investigator{StartingResources: 5, StartingHandSize: 5}
	scen := card.Scenario{StartingFlags: map[string]bool{"night": true}}
	cfg := sim.Config{RoundHorizon: 20}
	ranks := []float64{5, 50, 95}

	base := ConfigHash(inv, scen, cfg, "greedy", 4, 1000, ranks)

	if got := ConfigHash(inv, scen, cfg, "passive", 4, 1000, ranks); got == base {
		t.Error("policy change should change the hash")
	}
	cfg2 := cfg
	cfg2.RoundHorizon = 30
	if got := ConfigHash(inv, scen, cfg2, "greedy", 4, 1000, ranks); got == base {
		t.Error("horizon change should change the hash")
	}
	inv2 := inv
	inv2.StartingResources = 6
	if got := ConfigHash(inv2, scen, cfg, "greedy", 4, 1000, ranks); got == base {
		t.Error("investigator change should change the hash")
	}
	if got := ConfigHash(inv, scen, cfg, "greedy", 4, 1000, ranks); got != base {
		t.Error("identical inputs should hash identically")
	}
}

// Reservoir percentiles depend on the worker merge order, the retention cap,
// and the requested ranks, so all three participate in the cache key.
func TestConfigHash_CoversRunShape(t *testing.T) {
	inv := card.Investigator{StartingResources: 5, StartingHandSize: 5}
	scen := card.Scenario{}
	cfg := sim.Config{RoundHorizon: 20}

	base := ConfigHash(inv, scen, cfg, "greedy", 1, 16, []float64{50, 75})

	if got := ConfigHash(inv, scen, cfg, "greedy", 8, 16, []float64{50, 75}); got == base {
		t.Error("worker count change should change the hash")
	}
	if got := ConfigHash(inv, scen, cfg, "greedy", 1, 32, []float64{50, 75}); got == base {
		t.Error("retention change should change the hash")
	}
	if got := ConfigHash(inv, scen, cfg, "greedy", 1, 16, []float64{50, 95}); got == base {
		t.Error("percentile rank change should change the hash")
	}
}
