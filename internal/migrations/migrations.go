// Package migrations owns the journal database schema.
package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add event kind and path indices",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
			CREATE INDEX IF NOT EXISTS idx_events_path ON events(path);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_events_kind;
			DROP INDEX IF EXISTS idx_events_path;
		`,
	},
	{
		Version: 2,
		Name:    "Add composite index for recent documents per backend",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_documents_api_recent ON documents(api_url, last_opened DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_documents_api_recent;
		`,
	},
	{
		Version: 3,
		Name:    "Drop failed-save events recorded without a path",
		Up: `
			DELETE FROM events WHERE kind = 'save_failed' AND path = '';
		`,
		Down: `
			-- Cannot restore deleted data
		`,
	},
}

// InitSchema creates every table the journal uses.
// It must run before the migrations so they always find their tables.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		api_url TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL,
		last_opened TEXT,
		last_saved TEXT,
		open_count INTEGER NOT NULL DEFAULT 0,
		save_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE(api_url, path)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		api_url TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	if err := InitSchema(db); err != nil {
		return err
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		if err := apply(db, migration); err != nil {
			return err
		}
	}

	return nil
}

func apply(db *sql.DB, migration Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start migration %d: %w", migration.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.Up); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version,
		migration.Name,
	); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}
	return tx.Commit()
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
