package database

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations are embedded and applied in order at startup
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_users",
		SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				organization_id INTEGER,
				branch_id INTEGER
			)
		`,
	},
	{
		Version: 2,
		Name:    "create_tracking_points",
		SQL: `
			CREATE TABLE IF NOT EXISTS tracking_points (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				owner_id INTEGER NOT NULL REFERENCES users(id),
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				accuracy REAL,
				speed REAL,
				heading REAL,
				altitude REAL,
				captured_at INTEGER NOT NULL,
				received_at INTEGER NOT NULL,
				address TEXT NOT NULL DEFAULT '',
				address_error TEXT NOT NULL DEFAULT '',
				raw_coords TEXT NOT NULL,
				organization_id INTEGER,
				branch_id INTEGER,
				deleted_at INTEGER
			)
		`,
	},
	{
		Version: 3,
		Name:    "index_tracking_points_owner_time",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_tracking_points_owner_time
			ON tracking_points(owner_id, captured_at)
		`,
	},
}

// Migrate applies pending migrations, tracking them in a migrations table
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}

	return nil
}
