// Package store persists validation runs in a SQLite database so that
// repeated runs of the same scenario can be compared over time.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/timeutil"
	"github.com/banshee-data/flowcheck/internal/validate"
)

const (
	busyRetries = 5
	busyBackoff = 20 * time.Millisecond
)

// DB wraps a SQLite handle holding the runs and diagnostics tables.
type DB struct {
	*sql.DB
	clock timeutil.Clock
}

// Run is one stored scenario verdict.
type Run struct {
	RunID      uuid.UUID
	Scenario   string
	Trajectory string
	StartedAt  time.Time
	Duration   time.Duration
	Passed     bool
	Fatal      string
	Warnings   []string
}

// DiagnosticRow is one stored sub-check.
type DiagnosticRow struct {
	Method  string
	Subject string
	Check   string
	Passed  bool
	Message string
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*DB, error) {
	return OpenWithClock(path, timeutil.RealClock{})
}

// OpenWithClock is Open with an injectable clock for retry backoff.
func OpenWithClock(path string, clock timeutil.Clock) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One connection: concurrent scenario runs share the handle.
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}
	db := &DB{DB: sqlDB, clock: clock}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	version, dirty, err := db.MigrateVersion()
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if dirty {
		sqlDB.Close()
		return nil, fmt.Errorf("%s: schema version %d is dirty", path, version)
	}
	monitoring.Infof("[store] opened %s at schema version %d", path, version)
	return db, nil
}

// InsertReport stores a report and its diagnostics in one transaction.
func (db *DB) InsertReport(r *validate.Report) error {
	fatal := sql.NullString{}
	if r.Fatal != nil {
		fatal = sql.NullString{String: r.Fatal.Error(), Valid: true}
	}
	err := db.retryOnBusy(func() error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.Exec(`INSERT INTO runs (run_id, scenario, trajectory, started_at, duration_ms, passed, fatal, warnings)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID.String(),
			r.Scenario,
			r.Trajectory,
			r.StartedAt.UTC().Format(time.RFC3339Nano),
			r.Duration.Milliseconds(),
			boolInt(r.Passed()),
			fatal,
			strings.Join(r.Warnings, "\n"),
		)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`INSERT INTO diagnostics (run_id, seq, method, subject, check_name, passed, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, d := range r.Diagnostics {
			msg := sql.NullString{}
			if d.Err != nil {
				msg = sql.NullString{String: d.Err.Error(), Valid: true}
			}
			if _, err := stmt.Exec(r.RunID.String(), i, d.Method, d.Subject, d.Check, boolInt(d.Passed()), msg); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.RunID, err)
	}
	monitoring.Infof("[store] saved run %s for %s (%d diagnostics)", r.RunID, r.Scenario, len(r.Diagnostics))
	return nil
}

// Runs lists stored runs, newest first. An empty scenario lists all of them.
func (db *DB) Runs(scenario string, limit int) ([]Run, error) {
	query := `SELECT run_id, scenario, trajectory, started_at, duration_ms, passed, fatal, warnings FROM runs`
	var args []any
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			id, started string
			warnings    string
			durationMS  int64
			passed      int
			fatal       sql.NullString
			run         Run
		)
		if err := rows.Scan(&id, &run.Scenario, &run.Trajectory, &started, &durationMS, &passed, &fatal, &warnings); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if run.RunID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing run id %q: %w", id, err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", started, err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Passed = passed != 0
		run.Fatal = fatal.String
		if warnings != "" {
			run.Warnings = strings.Split(warnings, "\n")
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Diagnostics returns the sub-checks of one run in recorded order.
func (db *DB) Diagnostics(runID uuid.UUID) ([]DiagnosticRow, error) {
	rows, err := db.Query(`SELECT method, subject, check_name, passed, message
		FROM diagnostics WHERE run_id = ? ORDER BY seq`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("listing diagnostics for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []DiagnosticRow
	for rows.Next() {
		var (
			d      DiagnosticRow
			passed int
			msg    sql.NullString
		)
		if err := rows.Scan(&d.Method, &d.Subject, &d.Check, &passed, &msg); err != nil {
			return nil, fmt.Errorf("scanning diagnostic: %w", err)
		}
		d.Passed = passed != 0
		d.Message = msg.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// retryOnBusy runs fn, retrying with linear backoff while SQLite reports the
// database as locked.
func (db *DB) retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		if err = fn(); err == nil || !isSQLiteBusy(err) {
			return err
		}
		if attempt < busyRetries {
			monitoring.Warnf("[store] database busy, retry %d/%d", attempt+1, busyRetries)
			db.clock.Sleep(time.Duration(attempt+1) * busyBackoff)
		}
	}
	return err
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
