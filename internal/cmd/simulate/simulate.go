// Package simulate parses simulate command flags and drives a full
// simulation run: load catalog and deck, check the report cache, run the
// trials, emit the JSON report.
package simulate

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/decksim/internal/catalog"
	"github.com/louisbranch/decksim/internal/errors"
	entrypoint "github.com/louisbranch/decksim/internal/platform/cmd"
	"github.com/louisbranch/decksim/internal/report"
	"github.com/louisbranch/decksim/internal/sim"
	"github.com/louisbranch/decksim/internal/sim/runner"
	"github.com/louisbranch/decksim/internal/storage/sqlite"
)

// Config holds simulate command configuration.
type Config struct {
	CatalogPath string `env:"DECKSIM_CATALOG"`
	DeckPath    string `env:"DECKSIM_DECK"`
	CachePath   string `env:"DECKSIM_CACHE_PATH"`

	Trials int   `env:"DECKSIM_TRIALS" envDefault:"10000"`
	Seed   int64 `env:"DECKSIM_SEED"`
	// SeedSet records whether the seed was pinned explicitly; a zero seed
	// with no -seed flag means the runner picks one.
	SeedSet bool
	Policy  string `env:"DECKSIM_POLICY" envDefault:"greedy"`
	Workers int    `env:"DECKSIM_WORKERS"`

	Horizon       int    `env:"DECKSIM_HORIZON" envDefault:"20"`
	DrawsPerRound int    `env:"DECKSIM_DRAWS_PER_ROUND" envDefault:"1"`
	Resources     int    `env:"DECKSIM_RESOURCES_PER_ROUND" envDefault:"1"`
	HandLimit     int    `env:"DECKSIM_HAND_LIMIT"`
	Mulligans     int    `env:"DECKSIM_MULLIGANS"`
	SafetyCeiling int    `env:"DECKSIM_SAFETY_CEILING"`
	Milestones    string `env:"DECKSIM_MILESTONES"`
	HaltMilestone string `env:"DECKSIM_HALT_MILESTONE"`

	Retention   int    `env:"DECKSIM_RETENTION"`
	Percentiles string `env:"DECKSIM_PERCENTILES"`

	Budget  time.Duration `env:"DECKSIM_BUDGET"`
	NoCache bool          `env:"DECKSIM_NO_CACHE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "card catalog YAML path")
	fs.StringVar(&cfg.DeckPath, "deck", cfg.DeckPath, "deck list YAML path")
	fs.StringVar(&cfg.CachePath, "cache", cfg.CachePath, "report cache SQLite path (empty disables caching)")
	fs.IntVar(&cfg.Trials, "trials", cfg.Trials, "number of trials to run")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "run seed (omit for a random seed)")
	fs.StringVar(&cfg.Policy, "policy", cfg.Policy, "play policy: greedy, passive, or lua:<script path>")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "worker count (0 = all CPUs)")
	fs.IntVar(&cfg.Horizon, "horizon", cfg.Horizon, "round horizon per trial")
	fs.IntVar(&cfg.DrawsPerRound, "draws", cfg.DrawsPerRound, "cards drawn per round")
	fs.IntVar(&cfg.Resources, "resources", cfg.Resources, "resources gained per round")
	fs.IntVar(&cfg.HandLimit, "hand-limit", cfg.HandLimit, "upkeep hand limit (0 = none)")
	fs.IntVar(&cfg.Mulligans, "mulligans", cfg.Mulligans, "mulligan phases offered (0 = one, negative disables)")
	fs.IntVar(&cfg.SafetyCeiling, "safety-ceiling", cfg.SafetyCeiling, "hard per-trial round cap (0 = default)")
	fs.IntVar(&cfg.Retention, "retention", cfg.Retention, "percentile reservoir cap (0 = default)")
	fs.StringVar(&cfg.Percentiles, "percentiles", cfg.Percentiles, "reported percentile ranks, comma-separated")
	fs.StringVar(&cfg.Milestones, "milestones", cfg.Milestones, "tracked milestones, comma-separated name=flag pairs")
	fs.StringVar(&cfg.HaltMilestone, "halt-on", cfg.HaltMilestone, "milestone name that ends the trial when reached")
	fs.DurationVar(&cfg.Budget, "budget", cfg.Budget, "wall-clock budget for the whole run (0 = none)")
	fs.BoolVar(&cfg.NoCache, "no-cache", cfg.NoCache, "skip report cache lookup and store")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	seenSeed := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seenSeed = true
		}
	})
	cfg.SeedSet = seenSeed || cfg.Seed != 0
	return cfg, nil
}

// Run executes the simulate command and writes the JSON report to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if strings.TrimSpace(cfg.CatalogPath) == "" {
		return fmt.Errorf("catalog path is required (-catalog or DECKSIM_CATALOG)")
	}
	if strings.TrimSpace(cfg.DeckPath) == "" {
		return fmt.Errorf("deck path is required (-deck or DECKSIM_DECK)")
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSimulate, func(ctx context.Context) error {
		cat, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		list, err := catalog.LoadDeck(cfg.DeckPath, cat)
		if err != nil {
			return err
		}
		log.Printf("loaded deck %q: %d cards, catalog of %d", list.Deck.Name, list.Deck.Size(), cat.Len())

		milestones, err := parseMilestones(cfg.Milestones)
		if err != nil {
			return err
		}
		ranks, err := parsePercentiles(cfg.Percentiles)
		if err != nil {
			return err
		}

		req := runner.Request{
			Deck:         list.Deck,
			Investigator: list.Investigator,
			Scenario:     list.Scenario,
			Engine: sim.Config{
				RoundHorizon:      cfg.Horizon,
				DrawsPerRound:     cfg.DrawsPerRound,
				ResourcesPerRound: cfg.Resources,
				HandLimit:         cfg.HandLimit,
				Mulligans:         cfg.Mulligans,
				SafetyCeiling:     cfg.SafetyCeiling,
				Milestones:        milestones,
				HaltMilestone:     cfg.HaltMilestone,
			},
			TrialCount:      cfg.Trials,
			PolicyName:      cfg.Policy,
			Workers:         cfg.Workers,
			Retention:       cfg.Retention,
			PercentileRanks: ranks,
			Budget:          cfg.Budget,
		}
		if cfg.SeedSet {
			seed := cfg.Seed
			req.Seed = &seed
		}

		var store *sqlite.Store
		if cfg.CachePath != "" && !cfg.NoCache {
			store, err = sqlite.Open(cfg.CachePath)
			if err != nil {
				return err
			}
			defer store.Close()
		}

		// Cache lookup needs a pinned seed: without one every run is unique.
		if store != nil && req.Seed != nil {
			deckHash, configHash := req.Hashes()
			key := sqlite.Key{
				DeckHash:   deckHash,
				ConfigHash: configHash,
				TrialCount: req.TrialCount,
				Seed:       *req.Seed,
			}
			cached, err := store.Get(ctx, key)
			if err == nil {
				log.Printf("serving cached report %s", cached.RunID)
				return writeReport(out, cached)
			}
			if !errors.IsCode(err, errors.CodeNotFound) {
				return err
			}
		}

		rep, err := runner.Run(ctx, req)
		if err != nil {
			return err
		}
		log.Printf("run %s: %d/%d trials in %dms", rep.RunID, rep.CompletedTrials, rep.TrialCount, rep.DurationMS)

		if store != nil && !rep.Incomplete {
			if err := store.Put(ctx, rep); err != nil {
				log.Printf("cache report: %v", err)
			}
		}
		return writeReport(out, rep)
	})
}

func writeReport(out io.Writer, rep report.Report) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// parsePercentiles parses comma-separated percentile ranks like "5,50,95".
// Empty input defers to the aggregator's default ranks.
func parsePercentiles(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var ranks []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		rank, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("percentile rank %q is not a number", part)
		}
		if rank <= 0 || rank > 100 {
			return nil, fmt.Errorf("percentile rank %g is outside (0, 100]", rank)
		}
		ranks = append(ranks, rank)
	}
	return ranks, nil
}

// parseMilestones parses comma-separated name=flag pairs. A bare name tracks
// a flag of the same name.
func parseMilestones(raw string) ([]sim.Milestone, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var milestones []sim.Milestone
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, flagName, found := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("milestone entry %q has no name", part)
		}
		if !found {
			flagName = name
		}
		milestones = append(milestones, sim.Milestone{Name: name, Flag: strings.TrimSpace(flagName)})
	}
	return milestones, nil
}
