package database

import (
	"fmt"
	"os"
	"path/filepath"

	"vfs-go/internal/config"
	"vfs-go/internal/database/migrations"
)

// DatabaseFilename is the SQLite file created inside data_dir.
const DatabaseFilename = "vfs.db"

// NewDatabaseFromConfig creates a SQLiteDatabase based on the database config type.
// The memory type is migrated immediately since it starts empty every time.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data_dir: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, DatabaseFilename), nil)
	case "memory":
		db, err := NewSQLiteDatabase(":memory:", nil)
		if err != nil {
			return nil, err
		}
		if err := migrations.MigrateUp(db.db); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
