package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "themes: active theme set",
		SQL: `
CREATE TABLE themes (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    name_key       TEXT NOT NULL UNIQUE,
    summary        TEXT NOT NULL,
    frequency      INTEGER NOT NULL DEFAULT 0,
    evolution      TEXT NOT NULL DEFAULT '',
    last_mentioned INTEGER NOT NULL,
    key_dates      TEXT NOT NULL DEFAULT '[]',
    updated_at     INTEGER NOT NULL
);

CREATE INDEX idx_themes_frequency ON themes(frequency DESC);
`,
	},
	{
		Version:     2,
		Description: "theme_archive: append-only archive of inactive themes",
		SQL: `
CREATE TABLE theme_archive (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    summary        TEXT NOT NULL,
    frequency      INTEGER NOT NULL DEFAULT 0,
    evolution      TEXT NOT NULL DEFAULT '',
    last_mentioned INTEGER NOT NULL,
    key_dates      TEXT NOT NULL DEFAULT '[]',
    archived_at    INTEGER NOT NULL
);

CREATE INDEX idx_archive_archived_at ON theme_archive(archived_at DESC);
`,
	},
	{
		Version:     3,
		Description: "daily_results: per-day append-only analysis results",
		SQL: `
CREATE TABLE daily_results (
    id         INTEGER PRIMARY KEY,
    day        TEXT NOT NULL,
    result     TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_daily_results_day ON daily_results(day, created_at);
`,
	},
	{
		Version:     4,
		Description: "weekly_result: single overwritten weekly analytics record",
		SQL: `
CREATE TABLE weekly_result (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    result     TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`,
	},
	{
		Version:     5,
		Description: "cadence: last-run timestamps per analysis kind",
		SQL: `
CREATE TABLE cadence (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    last_daily     INTEGER,
    last_weekly    INTEGER,
    last_discovery INTEGER
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
