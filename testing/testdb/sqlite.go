package testdb

import (
	"context"
	"testing"

	"student-sandbox/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// SetupSQLite opens a private in-memory database, migrates schema into it
// and closes it when the test finishes.
//
// Usage:
//
//	func TestMyRepository(t *testing.T) {
//	    database := testdb.SetupSQLite(t, mySchema)
//
//	    t.Run("Test1", func(t *testing.T) {
//	        testdb.CleanupTables(t, database, "my_table")
//	        // ... test
//	    })
//	}
func SetupSQLite(t *testing.T, schema db.Schema) *bun.DB {
	t.Helper()

	database, err := db.NewInMemory()
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := db.Close(database); err != nil {
			t.Logf("failed to close database: %s", err)
		}
	})

	if schema != nil {
		err = db.RunMigrations(context.Background(), database, schema)
		require.NoError(t, err, "failed to run migrations")
	}

	return database
}

// CleanupTables empties tables and restarts their id sequences.
func CleanupTables(t *testing.T, database bun.IDB, tables ...string) {
	t.Helper()

	ctx := context.Background()

	var hasSequence int
	err := database.NewSelect().
		TableExpr("sqlite_master").
		ColumnExpr("count(*)").
		Where("type = 'table' AND name = 'sqlite_sequence'").
		Scan(ctx, &hasSequence)
	require.NoError(t, err)

	for _, table := range tables {
		_, err := database.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err, "failed to clean table: %s", table)

		if hasSequence > 0 {
			_, err = database.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table)
			require.NoError(t, err, "failed to reset sequence: %s", table)
		}
	}
}
