package testdb

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Setup opens a fresh in-memory SQLite database through bun.
// Tests exercise the same bun query API the Postgres repositories use,
// without requiring a running database.
//
// IMPORTANT: the connection pool is capped at one connection - closing the
// last connection to an in-memory SQLite database drops it.
//
// Usage:
//
//	func TestMyService(t *testing.T) {
//	    db := testdb.Setup(t)
//	    testdb.RunMigrations(t, db, (*MyModel)(nil))
//
//	    t.Run("Test1", func(t *testing.T) {
//	        testdb.CleanupTables(t, db, "my_table")
//	        // ... test
//	    })
//	}
func Setup(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, db.Ping())

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// RunMigrations creates tables for the given bun models
func RunMigrations(t *testing.T, db *bun.DB, models ...interface{}) {
	t.Helper()

	ctx := context.Background()
	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		require.NoError(t, err)
	}
}

func CleanupTables(t *testing.T, db *bun.DB, tables ...string) {
	t.Helper()

	ctx := context.Background()

	for _, table := range tables {
		_, err := db.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err, "failed to clean table: %s", table)
		// reset AUTOINCREMENT counters so fixture IDs stay predictable
		_, _ = db.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table)
	}
}
