// Package report assembles aggregate results and run metadata into the
// externally consumed simulation report.
//
// Building a report is pure assembly: no I/O, no side effects. Persistence
// and transport belong to external collaborators.
package report

import (
	"time"

	"github.com/louisbranch/decksim/internal/errors"
	"github.com/louisbranch/decksim/internal/stats"
)

// SchemaVersion identifies the report wire format. Consumers check it to
// detect incompatible changes.
const SchemaVersion = "1.0.0"

// Incomplete reasons for partial reports. They carry the structured error
// codes so transport layers can map a partial run to a status without
// re-deriving the cause.
const (
	ReasonCancelled = string(errors.CodeRunCancelled)
	ReasonDeadline  = string(errors.CodeRunDeadline)
)

// Meta is the run metadata recorded alongside the aggregate result.
type Meta struct {
	RunID           string
	Seed            int64
	TrialCount      int
	CompletedTrials int64
	Incomplete      bool
	IncompleteInfo  string
	DeckName        string
	DeckHash        string
	ConfigHash      string
	Policy          string
	Workers         int
	Duration        time.Duration
}

// Report is the immutable, serializable output of one run. Reports are safe
// to cache by (deck hash, config hash, trial count, seed).
type Report struct {
	SchemaVersion string `json:"schema_version"`

	RunID      string `json:"run_id"`
	Seed       int64  `json:"seed"`
	TrialCount int    `json:"trial_count"`

	// CompletedTrials and Incomplete flag partial runs: a cancelled or
	// timed-out run reports whatever trials finished, never a silent
	// truncation.
	CompletedTrials int64  `json:"completed_trials"`
	Incomplete      bool   `json:"incomplete"`
	IncompleteInfo  string `json:"incomplete_info,omitempty"`

	DeckName   string `json:"deck_name,omitempty"`
	DeckHash   string `json:"deck_hash"`
	ConfigHash string `json:"config_hash"`
	Policy     string `json:"policy"`
	Workers    int    `json:"workers"`
	DurationMS int64  `json:"duration_ms"`

	Result stats.Result `json:"result"`
}

// Build assembles the final report from run metadata and the finalized
// aggregate result.
func Build(meta Meta, result stats.Result) Report {
	return Report{
		SchemaVersion:   SchemaVersion,
		RunID:           meta.RunID,
		Seed:            meta.Seed,
		TrialCount:      meta.TrialCount,
		CompletedTrials: meta.CompletedTrials,
		Incomplete:      meta.Incomplete,
		IncompleteInfo:  meta.IncompleteInfo,
		DeckName:        meta.DeckName,
		DeckHash:        meta.DeckHash,
		ConfigHash:      meta.ConfigHash,
		Policy:          meta.Policy,
		Workers:         meta.Workers,
		DurationMS:      meta.Duration.Milliseconds(),
		Result:          result,
	}
}
