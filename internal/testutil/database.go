package testutil

import (
	"testing"

	"vfs-go/internal/database"
	"vfs-go/internal/vfs"
)

// NewTestDatabaseWithClock creates a new in-memory SQLite database with
// schema applied, timestamping rows with clock. The database is closed when
// the test completes.
func NewTestDatabaseWithClock(t *testing.T, clock vfs.Clock) *database.SQLiteDatabase {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB, ":memory:", clock)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
