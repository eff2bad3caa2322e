// Package sqlite provides a SQLite-backed report cache.
//
// Completed reports are keyed by (deck hash, config hash, trial count,
// seed): the full determinism key. A cache hit is guaranteed to match what a
// fresh run of the same request would produce, so rerunning an identical
// request can serve the stored report instead.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/decksim/internal/errors"
	"github.com/louisbranch/decksim/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/decksim/internal/report"
	"github.com/louisbranch/decksim/internal/storage/sqlite/migrations"
)

// Key identifies one cached report.
type Key struct {
	DeckHash   string
	ConfigHash string
	TrialCount int
	Seed       int64
}

// Store persists completed reports in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite report cache and applies embedded migrations.
// Pass ":memory:" for an ephemeral cache.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put stores a completed report. Partial reports are rejected: an
// interrupted run must never satisfy a future cache lookup for the full
// trial count. Storing the same key twice replaces the row.
func (s *Store) Put(ctx context.Context, rep report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if rep.Incomplete {
		return fmt.Errorf("refusing to cache incomplete report %s", rep.RunID)
	}

	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO reports (
		   deck_hash, config_hash, trial_count, seed,
		   run_id, schema_version, payload, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.DeckHash,
		rep.ConfigHash,
		rep.TrialCount,
		rep.Seed,
		rep.RunID,
		rep.SchemaVersion,
		payload,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

// Get returns the cached report for a key, or a NOT_FOUND error.
func (s *Store) Get(ctx context.Context, key Key) (report.Report, error) {
	if err := ctx.Err(); err != nil {
		return report.Report{}, err
	}
	if s == nil || s.sqlDB == nil {
		return report.Report{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT payload
		   FROM reports
		  WHERE deck_hash = ? AND config_hash = ? AND trial_count = ? AND seed = ?`,
		key.DeckHash,
		key.ConfigHash,
		key.TrialCount,
		key.Seed,
	)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return report.Report{}, errors.WithMetadata(errors.CodeNotFound,
				"no cached report for key",
				map[string]string{
					"deck_hash":   key.DeckHash,
					"config_hash": key.ConfigHash,
					"trial_count": strconv.Itoa(key.TrialCount),
				})
		}
		return report.Report{}, fmt.Errorf("get report: %w", err)
	}

	var rep report.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return report.Report{}, fmt.Errorf("decode cached report: %w", err)
	}
	return rep, nil
}

// Prune deletes cached reports older than the cutoff and returns how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		"DELETE FROM reports WHERE created_at < ?",
		olderThan.UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune reports: %w", err)
	}
	return res.RowsAffected()
}
