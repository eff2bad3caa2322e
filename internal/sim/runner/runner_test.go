package runner

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/louisbranch/decksim/internal/core/card"
	"github.com/louisbranch/decksim/internal/errors"
	"github.com/louisbranch/decksim/internal/report"
	"github.com/louisbranch/decksim/internal/sim"
	"github.com/louisbranch/decksim/internal/stats"
)

func seedPtr(s int64) *int64 { return &s }

func testRequest() Request {
	deck := card.Deck{Name: "tempo"}
	for _, c := range []card.Definition{
		{ID: "spark", Name: "Spark", Cost: 0, Effect: card.GainResource{N: 1}},
		{ID: "insight", Name: "Insight", Cost: 1, Effect: card.Draw{N: 1}},
		{ID: "relic", Name: "Relic", Cost: 2, Traits: []string{"asset"}},
		{ID: "breakthrough", Name: "Breakthrough", Cost: 3, Effect: card.SetFlag{Name: "breakthrough", Value: true}},
		{ID: "filler", Name: "Filler", Cost: 1},
	} {
		deck.Entries = append(deck.Entries, card.Entry{Card: c, Quantity: 2})
	}

	return Request{
		Deck:         deck,
		Investigator: card.Investigator{Name: "Scholar", StartingResources: 3, StartingHandSize: 4},
		Engine: sim.Config{
			RoundHorizon: 12,
			Milestones: []sim.Milestone{
				{Name: "breakthrough", Flag: "breakthrough"},
			},
		},
		TrialCount: 200,
		Seed:       seedPtr(7),
		Workers:    4,
	}
}

func TestRun_SameSeedBitIdentical(t *testing.T) {
	ctx := context.Background()

	first, err := Run(ctx, testRequest())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(ctx, testRequest())
	if err != nil {
		t.Fatal(err)
	}

	// Run id and timing are the only fields allowed to differ.
	first.RunID, second.RunID = "", ""
	first.DurationMS, second.DurationMS = 0, 0

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("same seed produced different reports:\n%s\n%s", a, b)
	}
}

// The worker split changes the reservoir merge order, so two runs of the
// same deck and seed with different worker counts may legitimately report
// different percentiles. The cache key has to tell them apart.
func TestRun_WorkerSplitChangesCacheKey(t *testing.T) {
	ctx := context.Background()

	req := testRequest()
	req.TrialCount = 500
	req.Retention = 16
	req.Workers = 1
	first, err := Run(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	req.Workers = 8
	second, err := Run(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	if first.DeckHash != second.DeckHash {
		t.Errorf("deck hash should not depend on workers: %s vs %s", first.DeckHash, second.DeckHash)
	}
	if first.ConfigHash == second.ConfigHash {
		t.Fatal("different worker splits share a config hash; a cache lookup could serve the wrong percentiles")
	}
}

func TestRequestHashes_MatchReportedHashes(t *testing.T) {
	req := testRequest()
	deckHash, configHash := req.Hashes()

	rep, err := Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if rep.DeckHash != deckHash || rep.ConfigHash != configHash {
		t.Fatalf("pre-run hashes (%s, %s) differ from reported (%s, %s)",
			deckHash, configHash, rep.DeckHash, rep.ConfigHash)
	}
}

func TestRequestHashes_CoverAggregationShape(t *testing.T) {
	base := testRequest()
	_, baseHash := base.Hashes()

	workers := testRequest()
	workers.Workers = 2
	if _, got := workers.Hashes(); got == baseHash {
		t.Error("worker count change should change the config hash")
	}

	retention := testRequest()
	retention.Retention = 16
	if _, got := retention.Hashes(); got == baseHash {
		t.Error("retention change should change the config hash")
	}

	ranks := testRequest()
	ranks.PercentileRanks = []float64{50}
	if _, got := ranks.Hashes(); got == baseHash {
		t.Error("percentile rank change should change the config hash")
	}

	// Defaults resolve before hashing: explicit defaults and zero values key
	// the same cache entry.
	explicit := testRequest()
	explicit.Retention = stats.DefaultRetention
	explicit.PercentileRanks = append([]float64(nil), stats.DefaultPercentileRanks...)
	if _, got := explicit.Hashes(); got != baseHash {
		t.Error("explicit default retention and ranks should hash like the zero values")
	}
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	ctx := context.Background()

	req := testRequest()
	first, err := Run(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	req.Seed = seedPtr(8)
	second, err := Run(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	if first.Result.Metrics["cards_played"].Mean == second.Result.Metrics["cards_played"].Mean &&
		first.Result.Metrics["terminal_round"].Mean == second.Result.Metrics["terminal_round"].Mean {
		t.Fatal("different seeds produced identical aggregates")
	}
}

func TestRun_GeneratesSeedWhenUnpinned(t *testing.T) {
	req := testRequest()
	req.Seed = nil
	req.TrialCount = 10

	rep, err := Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Seed == 0 {
		t.Error("generated seed not surfaced in report")
	}
	if rep.CompletedTrials != 10 {
		t.Errorf("completed = %d, want 10", rep.CompletedTrials)
	}
}

func TestRun_RejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Request)
		wantCode errors.Code
	}{
		{
			name:     "zero trials",
			mutate:   func(r *Request) { r.TrialCount = 0 },
			wantCode: errors.CodeTrialCountInvalid,
		},
		{
			name:     "negative trials",
			mutate:   func(r *Request) { r.TrialCount = -5 },
			wantCode: errors.CodeTrialCountInvalid,
		},
		{
			name:     "empty deck",
			mutate:   func(r *Request) { r.Deck.Entries = nil },
			wantCode: errors.CodeDeckEmpty,
		},
		{
			name:     "copy limit",
			mutate:   func(r *Request) { r.Deck.Entries[0].Quantity = 5 },
			wantCode: errors.CodeDeckCopyLimit,
		},
		{
			name:     "zero horizon",
			mutate:   func(r *Request) { r.Engine.RoundHorizon = 0 },
			wantCode: errors.CodeRoundHorizonInvalid,
		},
		{
			name:     "untracked halt milestone",
			mutate:   func(r *Request) { r.Engine.HaltMilestone = "phantom" },
			wantCode: errors.CodeMilestoneInvalid,
		},
		{
			name:     "unknown policy",
			mutate:   func(r *Request) { r.PolicyName = "oracle" },
			wantCode: errors.CodePolicyUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(&req)
			_, err := Run(context.Background(), req)
			if !errors.IsCode(err, tt.wantCode) {
				t.Fatalf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestRun_WorkerCountDoesNotChangeResults(t *testing.T) {
	ctx := context.Background()

	req := testRequest()
	req.Workers = 1
	serial, err := Run(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	req.Workers = 8
	parallel, err := Run(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	// Trial randomness depends on (seed, trial index) only, so aggregates
	// survive any worker split. Means go through a different merge order, so
	// allow float rounding.
	for _, metric := range []string{"terminal_round", "cards_played", "final_resources"} {
		if diff := serial.Result.Metrics[metric].Mean - parallel.Result.Metrics[metric].Mean; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s mean differs across worker counts: %f vs %f",
				metric, serial.Result.Metrics[metric].Mean, parallel.Result.Metrics[metric].Mean)
		}
	}
	sm := serial.Result.Milestones["breakthrough"].Achievement
	pm := parallel.Result.Milestones["breakthrough"].Achievement
	if sm.Successes != pm.Successes {
		t.Errorf("milestone successes differ: %d vs %d", sm.Successes, pm.Successes)
	}
}

func TestRun_AchievementMonotoneInHorizon(t *testing.T) {
	ctx := context.Background()

	rate := func(horizon int) float64 {
		req := testRequest()
		req.Engine.RoundHorizon = horizon
		rep, err := Run(ctx, req)
		if err != nil {
			t.Fatal(err)
		}
		return rep.Result.Milestones["breakthrough"].Achievement.Rate
	}

	short := rate(3)
	long := rate(12)
	if long < short {
		t.Fatalf("achievement rate fell with longer horizon: %f -> %f", short, long)
	}
}

func TestRun_CancelledRunIsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := testRequest()
	req.TrialCount = 100000
	rep, err := Run(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Incomplete {
		t.Fatal("cancelled run not flagged incomplete")
	}
	if rep.IncompleteInfo != report.ReasonCancelled {
		t.Errorf("incomplete info = %q, want %q", rep.IncompleteInfo, report.ReasonCancelled)
	}
	if rep.CompletedTrials >= int64(req.TrialCount) {
		t.Errorf("completed = %d, expected fewer than %d", rep.CompletedTrials, req.TrialCount)
	}
	if rep.Result.Trials != rep.CompletedTrials {
		t.Errorf("result trials %d != completed %d", rep.Result.Trials, rep.CompletedTrials)
	}
}

func TestRun_BudgetYieldsDeadlineReason(t *testing.T) {
	req := testRequest()
	req.TrialCount = 10000000
	req.Budget = 10 * time.Millisecond

	rep, err := Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Incomplete {
		t.Fatal("budget-exhausted run not flagged incomplete")
	}
	if rep.IncompleteInfo != report.ReasonDeadline {
		t.Errorf("incomplete info = %q, want %q", rep.IncompleteInfo, report.ReasonDeadline)
	}
}

func TestRun_LogicFaultAbortsRun(t *testing.T) {
	req := testRequest()
	// An unregistered Effect variant is a card data bug, not a trial outcome.
	req.Deck.Entries[0].Card.Effect = brokenEffect{}

	_, err := Run(context.Background(), req)
	if !errors.IsCode(err, errors.CodeEffectResolutionFault) {
		t.Fatalf("error = %v, want code %s", err, errors.CodeEffectResolutionFault)
	}
}

type brokenEffect struct{ card.Draw }
