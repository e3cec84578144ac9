package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "qae.db"),
		Name: "qae",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBuildConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		profile  DatabaseProfile
		contains []string
	}{
		{"standard", "/tmp/a.db", ProfileStandard, []string{"/tmp/a.db?_pragma=journal_mode(WAL)", "synchronous(NORMAL)", "auto_vacuum(INCREMENTAL)"}},
		{"ledger", "/tmp/a.db", ProfileLedger, []string{"synchronous(FULL)", "auto_vacuum(NONE)"}},
		{"cache", "/tmp/a.db", ProfileCache, []string{"synchronous(OFF)", "temp_store(MEMORY)"}},
		{"uri with query", "file:mem?mode=memory", ProfileStandard, []string{"file:mem?mode=memory&_pragma=journal_mode(WAL)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connStr := buildConnectionString(tt.path, tt.profile)
			for _, want := range tt.contains {
				assert.Contains(t, connStr, want)
			}
			assert.Contains(t, connStr, "foreign_keys(1)")
		})
	}
}

func TestNew_DefaultsAndAccessors(t *testing.T) {
	db := newTestDB(t)

	assert.Equal(t, ProfileStandard, db.Profile())
	assert.Equal(t, "qae", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
	assert.NotNil(t, db.Conn())
}

func TestMigrate_CreatesTablesIdempotently(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	for _, table := range []string{"models", "training_jobs"} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	t.Run("commit", func(t *testing.T) {
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			_, err := tx.Exec(`INSERT INTO training_jobs (id, status, created_at) VALUES ('a', 'queued', 1)`)
			return err
		})
		require.NoError(t, err)

		var count int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM training_jobs").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("rollback on error", func(t *testing.T) {
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			if _, err := tx.Exec(`INSERT INTO training_jobs (id, status, created_at) VALUES ('b', 'queued', 1)`); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		var count int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM training_jobs WHERE id = 'b'").Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
			panic("boom")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic in transaction: boom")
	})

	t.Run("nil db", func(t *testing.T) {
		assert.Error(t, WithTransaction(nil, func(tx *sql.Tx) error { return nil }))
	})
}

func TestMaintenance(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())
	ctx := context.Background()

	require.NoError(t, db.HealthCheck(ctx))
	require.NoError(t, db.WALCheckpoint(""))
	require.NoError(t, db.WALCheckpoint("PASSIVE"))
	assert.Error(t, db.WALCheckpoint("DROP TABLE models"))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Positive(t, stats.PageCount)
	assert.Positive(t, stats.PageSize)

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, db.VacuumInto(ctx, dest))
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	snapshot, err := New(Config{Path: dest, Name: "snapshot"})
	require.NoError(t, err)
	defer snapshot.Close()
	var name string
	require.NoError(t, snapshot.Conn().QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'models'",
	).Scan(&name))
}
