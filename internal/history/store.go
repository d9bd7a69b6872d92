// Package history records finished and abandoned runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tatianab/fallen-god/internal/history/migrations"
	"github.com/tatianab/fallen-god/internal/models"
)

const timeFormat = time.RFC3339Nano

// DefaultListLimit caps ListRuns when the caller passes a non-positive limit.
const DefaultListLimit = 20

// Run is one recorded run.
type Run struct {
	ID      int64
	EndedAt time.Time
	models.RunSummary
}

// Totals aggregates every recorded run.
type Totals struct {
	Runs          int
	Completed     int
	Abandoned     int
	EssenceGained int
	Outcomes      map[models.Outcome]int
}

// Store is a SQLite-backed run history.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	// modernc.org/sqlite only honours _pragma parameters.
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordRun appends a run summary stamped with the current time.
func (s *Store) RecordRun(ctx context.Context, summary models.RunSummary) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	o := summary.Outcomes
	res, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO runs (
    ended_at, doctrine, encounters_completed, encounters_target, essence_gained,
    perfect, partial, minimal, catastrophic, abandoned
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.now().UTC().Format(timeFormat),
		string(summary.Doctrine),
		summary.EncountersCompleted,
		summary.EncountersTarget,
		summary.EssenceGained,
		o[models.OutcomePerfect],
		o[models.OutcomePartial],
		o[models.OutcomeMinimal],
		o[models.OutcomeCatastrophic],
		summary.Abandoned,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, ended_at, doctrine, encounters_completed, encounters_target, essence_gained,
       perfect, partial, minimal, catastrophic, abandoned
FROM runs
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                                       Run
			endedAt, doctrine                       string
			perfect, partial, minimal, catastrophic int
		)
		if err := rows.Scan(&r.ID, &endedAt, &doctrine, &r.EncountersCompleted, &r.EncountersTarget,
			&r.EssenceGained, &perfect, &partial, &minimal, &catastrophic, &r.Abandoned); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.EndedAt, err = time.Parse(timeFormat, endedAt)
		if err != nil {
			return nil, fmt.Errorf("parse ended_at %q: %w", endedAt, err)
		}
		r.Doctrine = models.DoctrineID(doctrine)
		r.Outcomes = outcomeCounts(perfect, partial, minimal, catastrophic)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Totals sums every recorded run.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	if s == nil || s.sqlDB == nil {
		return Totals{}, fmt.Errorf("storage is not configured")
	}
	var (
		t                                       Totals
		perfect, partial, minimal, catastrophic int
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(abandoned), 0),
       COALESCE(SUM(essence_gained), 0),
       COALESCE(SUM(perfect), 0),
       COALESCE(SUM(partial), 0),
       COALESCE(SUM(minimal), 0),
       COALESCE(SUM(catastrophic), 0)
FROM runs`).Scan(&t.Runs, &t.Abandoned, &t.EssenceGained, &perfect, &partial, &minimal, &catastrophic)
	if err != nil {
		return Totals{}, fmt.Errorf("sum runs: %w", err)
	}
	t.Completed = t.Runs - t.Abandoned
	t.Outcomes = outcomeCounts(perfect, partial, minimal, catastrophic)
	return t, nil
}

func outcomeCounts(perfect, partial, minimal, catastrophic int) map[models.Outcome]int {
	out := make(map[models.Outcome]int)
	for o, n := range map[models.Outcome]int{
		models.OutcomePerfect:      perfect,
		models.OutcomePartial:      partial,
		models.OutcomeMinimal:      minimal,
		models.OutcomeCatastrophic: catastrophic,
	} {
		if n > 0 {
			out[o] = n
		}
	}
	return out
}
