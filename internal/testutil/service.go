package testutil

import (
	"testing"

	"vfs-go/internal/database"
	"vfs-go/internal/vfs"
)

// Env is a fully wired core on an in-memory database.
type Env struct {
	*vfs.Service
	DB      *database.SQLiteDatabase
	Backend vfs.StorageBackend
	Logger  *RecordingLogger
	Clock   *StubClock
	IDs     *StubIDGenerator
}

// NewTestEnv wires the core components to a fresh in-memory database and
// the given backend, using a fixed clock and sequential IDs.
func NewTestEnv(t *testing.T, backend vfs.StorageBackend) *Env {
	t.Helper()

	clock := FixedClock()
	db := NewTestDatabaseWithClock(t, clock)
	logger := NewRecordingLogger()
	ids := NewStubIDGenerator()

	return &Env{
		Service: vfs.NewService(db, db, backend, logger, clock, ids),
		DB:      db,
		Backend: backend,
		Logger:  logger,
		Clock:   clock,
		IDs:     ids,
	}
}
