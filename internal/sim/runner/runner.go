// Package runner drives complete simulation runs: it validates the run
// request, fans trials out over a worker pool, and assembles the final
// report.
package runner

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/decksim/internal/core/card"
	"github.com/louisbranch/decksim/internal/core/rng"
	"github.com/louisbranch/decksim/internal/errors"
	"github.com/louisbranch/decksim/internal/report"
	"github.com/louisbranch/decksim/internal/sim"
	"github.com/louisbranch/decksim/internal/sim/policy"
	"github.com/louisbranch/decksim/internal/stats"
)

const tracerName = "github.com/louisbranch/decksim/internal/sim/runner"

// Request is a complete run request.
type Request struct {
	Deck         card.Deck
	Investigator card.Investigator
	Scenario     card.Scenario
	Engine       sim.Config
	Rules        card.ValidationRules // zero value falls back to card.DefaultRules

	TrialCount int
	// Seed pins the run's randomness. When nil the runner generates one
	// and reports it, so the run stays reproducible after the fact.
	Seed *int64

	PolicyName    string
	PolicyOptions policy.Options

	Workers         int // 0 means GOMAXPROCS
	Retention       int // percentile reservoir cap, 0 means stats.DefaultRetention
	PercentileRanks []float64

	// Budget is the overall wall-clock allowance, checked between trials.
	// Zero means no budget.
	Budget time.Duration
}

// Hashes returns the deck and config fingerprints a run of this request
// reports and the cache layer keys by. Worker count, retention, and
// percentile ranks are folded in after default resolution so a cache lookup
// and the run it fronts agree on the key.
func (req Request) Hashes() (deckHash, configHash string) {
	workers := effectiveWorkers(req.Workers, req.TrialCount)
	retention := req.Retention
	if retention <= 0 {
		retention = stats.DefaultRetention
	}
	ranks := append([]float64(nil), req.PercentileRanks...)
	if len(ranks) == 0 {
		ranks = append(ranks, stats.DefaultPercentileRanks...)
	}
	sort.Float64s(ranks)
	return report.DeckHash(req.Deck),
		report.ConfigHash(req.Investigator, req.Scenario, req.Engine, req.PolicyName,
			workers, retention, ranks)
}

func effectiveWorkers(workers, trials int) int {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > trials {
		workers = trials
	}
	return workers
}

// Run executes a full simulation run.
//
// Configuration errors (invalid deck, unknown policy, non-positive trial
// count) reject the request before any trial executes. Logic faults in card
// data abort the whole run. Cancellation and budget exhaustion yield a
// partial report flagged incomplete.
//
// # Determinism
//
// For a fixed request (seed, trial count, and worker count included),
// completed runs produce bit-identical reports modulo run id and duration:
// trials derive their randomness from (seed, trial index) alone and workers
// own deterministic trial stripes, so no scheduling order leaks into the
// aggregate.
func Run(ctx context.Context, req Request) (report.Report, error) {
	if err := validate(&req); err != nil {
		return report.Report{}, err
	}

	buildPolicy, err := policy.Lookup(req.PolicyName, req.PolicyOptions)
	if err != nil {
		return report.Report{}, err
	}

	// Seed resolution happens only after validation: a rejected request
	// must not create any RNG state.
	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		seed, err = rng.NewRunSeed()
		if err != nil {
			return report.Report{}, err
		}
	}

	workers := effectiveWorkers(req.Workers, req.TrialCount)

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "decksim.run", trace.WithAttributes(
		attribute.Int("decksim.trials", req.TrialCount),
		attribute.Int64("decksim.seed", seed),
		attribute.Int("decksim.workers", workers),
		attribute.String("decksim.policy", req.PolicyName),
	))
	defer span.End()

	if req.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Budget)
		defer cancel()
	}

	provider := rng.NewProvider(seed)
	milestones := make([]string, 0, len(req.Engine.Milestones))
	for _, m := range req.Engine.Milestones {
		milestones = append(milestones, m.Name)
	}

	started := time.Now()
	partials := make([]*stats.Aggregator, workers)
	faults := make([]error, workers)
	var wg sync.WaitGroup

	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			pol, perr := buildPolicy()
			if perr != nil {
				faults[worker] = perr
				abort()
				return
			}

			// Reservoir streams sit above the trial index space so they
			// never collide with per-trial streams.
			agg := stats.NewAggregator(milestones, req.Retention,
				provider.Stream(req.TrialCount+worker))
			partials[worker] = agg

			// Each worker owns a deterministic stripe of trial indices;
			// cancellation is cooperative, checked between trials only.
			for trial := worker; trial < req.TrialCount; trial += workers {
				if runCtx.Err() != nil {
					return
				}
				sample, terr := sim.RunTrial(sim.TrialSpec{
					Trial:        trial,
					Deck:         req.Deck,
					Investigator: req.Investigator,
					Scenario:     req.Scenario,
					Config:       req.Engine,
					Policy:       pol,
					Stream:       provider.Stream(trial),
				})
				if terr != nil {
					faults[worker] = terr
					abort()
					return
				}
				agg.Observe(sample)
			}
		}(w)
	}
	wg.Wait()

	// A logic fault in shared card data invalidates every trial; the run
	// aborts rather than reporting around corrupt definitions.
	for _, ferr := range faults {
		if ferr != nil {
			span.RecordError(ferr)
			return report.Report{}, ferr
		}
	}

	merged := stats.NewAggregator(milestones, req.Retention,
		provider.Stream(req.TrialCount+workers))
	for _, partial := range partials {
		merged.Merge(partial)
	}

	completed := merged.Trials()
	incomplete := completed < int64(req.TrialCount)
	info := ""
	if incomplete {
		info = report.ReasonCancelled
		if ctx.Err() == context.DeadlineExceeded {
			info = report.ReasonDeadline
		}
		span.SetAttributes(attribute.String("decksim.incomplete", info))
	}

	deckHash, configHash := req.Hashes()
	meta := report.Meta{
		RunID:           uuid.NewString(),
		Seed:            seed,
		TrialCount:      req.TrialCount,
		CompletedTrials: completed,
		Incomplete:      incomplete,
		IncompleteInfo:  info,
		DeckName:        req.Deck.Name,
		DeckHash:        deckHash,
		ConfigHash:      configHash,
		Policy:          req.PolicyName,
		Workers:         workers,
		Duration:        time.Since(started),
	}
	return report.Build(meta, merged.Finalize(req.PercentileRanks)), nil
}

// validate rejects configuration errors before any trial state exists.
func validate(req *Request) error {
	if req.TrialCount <= 0 {
		return errors.WithMetadata(errors.CodeTrialCountInvalid,
			"trial count must be positive",
			map[string]string{"trial_count": strconv.Itoa(req.TrialCount)})
	}
	rules := req.Rules
	if rules == (card.ValidationRules{}) {
		rules = card.DefaultRules
	}
	if err := card.ValidateDeck(req.Deck, rules); err != nil {
		return err
	}
	if err := card.ValidateInvestigator(req.Investigator); err != nil {
		return err
	}
	if err := req.Engine.Validate(); err != nil {
		return err
	}
	if req.Engine.HaltMilestone != "" {
		known := false
		for _, m := range req.Engine.Milestones {
			if m.Name == req.Engine.HaltMilestone {
				known = true
				break
			}
		}
		if !known {
			return errors.WithMetadata(errors.CodeMilestoneInvalid,
				"halt milestone is not tracked",
				map[string]string{"milestone": req.Engine.HaltMilestone})
		}
	}
	return nil
}
