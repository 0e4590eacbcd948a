package store

import "fmt"

// migrations are applied in order, once each. The schema version is kept in
// PRAGMA user_version; append new steps, never edit applied ones.
var migrations = []string{
	// 1: user preferences as key-value pairs
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	// 2: one row per recognition session
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		words INTEGER NOT NULL DEFAULT 0
	)`,

	// 3
	`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
}

// SchemaVersion is the version of a fully migrated database.
var SchemaVersion = len(migrations)

// migrate applies the migrations newer than the database's version.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("set schema version %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
