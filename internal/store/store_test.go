package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/flowcheck/internal/testutil"
	"github.com/banshee-data/flowcheck/internal/timeutil"
	"github.com/banshee-data/flowcheck/internal/validate"
)

func openTestDB(t *testing.T, clock timeutil.Clock) *DB {
	t.Helper()
	testutil.MuteLogs(t)
	db, err := OpenWithClock(filepath.Join(t.TempDir(), "runs.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleReport(scenario string, started time.Time) *validate.Report {
	r := validate.NewReport(scenario, "traj", started)
	r.Duration = 1500 * time.Millisecond
	r.Diagnostics = []validate.Diagnostic{
		{Method: "E", Check: "density (area)"},
		{Method: "E", Subject: "line 2", Check: "flow", Err: errors.New("value 3 differs")},
	}
	r.Warnings = []string{"method F: velocity unreliable", "method G: density unreliable"}
	return r
}

func TestOpen_MigratesSchema(t *testing.T) {
	db := openTestDB(t, timeutil.RealClock{})

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestInsertReport_RoundTrip(t *testing.T) {
	db := openTestDB(t, timeutil.RealClock{})
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := sampleReport("E04", started)

	require.NoError(t, db.InsertReport(r))

	runs, err := db.Runs("", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, "E04", got.Scenario)
	assert.Equal(t, "traj", got.Trajectory)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.False(t, got.Passed)
	assert.Empty(t, got.Fatal)
	assert.Equal(t, r.Warnings, got.Warnings)

	diags, err := db.Diagnostics(r.RunID)
	require.NoError(t, err)
	assert.Equal(t, []DiagnosticRow{
		{Method: "E", Check: "density (area)", Passed: true},
		{Method: "E", Subject: "line 2", Check: "flow", Passed: false, Message: "value 3 differs"},
	}, diags)
}

func TestInsertReport_Fatal(t *testing.T) {
	db := openTestDB(t, timeutil.RealClock{})
	r := validate.NewReport("G01", "traj", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	r.Fatal = &validate.MissingOutputError{Path: "Output/Fundamental_Diagram/v.dat"}

	require.NoError(t, db.InsertReport(r))

	runs, err := db.Runs("G01", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Passed)
	assert.Contains(t, runs[0].Fatal, "v.dat")
	assert.Nil(t, runs[0].Warnings)
}

func TestRuns_FilterOrderLimit(t *testing.T) {
	db := openTestDB(t, timeutil.RealClock{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"A", "B", "A"} {
		r := validate.NewReport(name, "traj", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, db.InsertReport(r))
	}

	all, err := db.Runs("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, base.Add(2*time.Hour), all[0].StartedAt.UTC())
	assert.True(t, all[0].Passed)

	onlyA, err := db.Runs("A", 0)
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	latest, err := db.Runs("", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "A", latest[0].Scenario)
}

func TestOpen_UpgradesVersionOne(t *testing.T) {
	testutil.MuteLogs(t)
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(path)
	require.NoError(t, err)
	m, err := db.newMigrate()
	require.NoError(t, err)
	require.NoError(t, m.Steps(-1))
	version, _, err := db.MigrateVersion()
	require.NoError(t, err)
	require.Equal(t, uint(1), version)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	require.NoError(t, db.InsertReport(sampleReport("E04", time.Now())))
}

func TestInsertReport_DuplicateRunID(t *testing.T) {
	db := openTestDB(t, timeutil.RealClock{})
	r := sampleReport("E04", time.Now())
	require.NoError(t, db.InsertReport(r))
	assert.Error(t, db.InsertReport(r))

	// The failed insert must not leave partial diagnostics behind.
	diags, err := db.Diagnostics(r.RunID)
	require.NoError(t, err)
	assert.Len(t, diags, 2)
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"code only", errors.New("SQLITE_BUSY"), true},
		{"other", errors.New("no such table"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSQLiteBusy(tt.err))
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	testutil.MuteLogs(t)

	t.Run("succeeds after busy", func(t *testing.T) {
		clock := timeutil.NewMockClock(time.Unix(0, 0))
		db := &DB{clock: clock}
		calls := 0
		err := db.retryOnBusy(func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked (5) (SQLITE_BUSY)")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{busyBackoff, 2 * busyBackoff}, clock.Sleeps())
	})

	t.Run("other error is not retried", func(t *testing.T) {
		db := &DB{clock: timeutil.NewMockClock(time.Unix(0, 0))}
		want := errors.New("constraint failed")
		calls := 0
		err := db.retryOnBusy(func() error {
			calls++
			return want
		})
		assert.Equal(t, want, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		clock := timeutil.NewMockClock(time.Unix(0, 0))
		db := &DB{clock: clock}
		calls := 0
		err := db.retryOnBusy(func() error {
			calls++
			return errors.New("SQLITE_BUSY")
		})
		require.Error(t, err)
		assert.Equal(t, busyRetries+1, calls)
		assert.Len(t, clock.Sleeps(), busyRetries)
	})
}
