package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"inkwell/internal/themes"
)

// LoadActive returns the persisted active theme set, ordered by descending
// frequency. Rows with corrupted key-date JSON keep their other fields:
// themes are re-derivable, a bad date list is not worth losing the record.
func (db *DB) LoadActive() ([]themes.Theme, error) {
	rows, err := db.Query(`
		SELECT name, summary, frequency, evolution, last_mentioned, key_dates
		FROM themes ORDER BY frequency DESC, name_key
	`)
	if err != nil {
		return nil, fmt.Errorf("load active themes: %w", err)
	}
	defer rows.Close()

	return scanThemes(rows)
}

// SaveThemes replaces the active set and appends newly archived themes in a
// single transaction. A failure rolls back both sides, so the append-only
// archive can never get ahead of the active set and re-archive the same
// themes on the next commit.
func (db *DB) SaveThemes(active, archived []themes.Theme) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save themes: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM themes"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear themes: %w", err)
	}

	now := time.Now().UnixMilli()
	for _, t := range active {
		if _, err := tx.Exec(`
			INSERT INTO themes (name, name_key, summary, frequency, evolution, last_mentioned, key_dates, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, t.Name, strings.ToLower(t.Name), t.Summary, t.Frequency, t.Evolution,
			t.LastMentioned.UnixMilli(), encodeKeyDates(t.KeyDates), now); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert theme %q: %w", t.Name, err)
		}
	}

	for _, t := range archived {
		if _, err := tx.Exec(`
			INSERT INTO theme_archive (name, summary, frequency, evolution, last_mentioned, key_dates, archived_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, t.Name, t.Summary, t.Frequency, t.Evolution,
			t.LastMentioned.UnixMilli(), encodeKeyDates(t.KeyDates), now); err != nil {
			tx.Rollback()
			return fmt.Errorf("archive theme %q: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save themes: %w", err)
	}
	return nil
}

// LoadArchive returns all archived themes, most recently archived first.
func (db *DB) LoadArchive() ([]themes.Theme, error) {
	rows, err := db.Query(`
		SELECT name, summary, frequency, evolution, last_mentioned, key_dates
		FROM theme_archive ORDER BY archived_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("load theme archive: %w", err)
	}
	defer rows.Close()

	return scanThemes(rows)
}

func scanThemes(rows *sql.Rows) ([]themes.Theme, error) {
	var ts []themes.Theme
	for rows.Next() {
		var t themes.Theme
		var lastMentioned int64
		var keyDates string
		if err := rows.Scan(&t.Name, &t.Summary, &t.Frequency, &t.Evolution, &lastMentioned, &keyDates); err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		t.LastMentioned = time.UnixMilli(lastMentioned)
		t.KeyDates = decodeKeyDates(t.Name, keyDates)
		ts = append(ts, t)
	}
	return ts, rows.Err()
}

func encodeKeyDates(dates []time.Time) string {
	ms := make([]int64, len(dates))
	for i, d := range dates {
		ms[i] = d.UnixMilli()
	}
	data, err := json.Marshal(ms)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeKeyDates(name, raw string) []time.Time {
	var ms []int64
	if err := json.Unmarshal([]byte(raw), &ms); err != nil {
		log.Printf("store: corrupt key_dates for theme %q, dropping: %v", name, err)
		return nil
	}
	dates := make([]time.Time, len(ms))
	for i, m := range ms {
		dates[i] = time.UnixMilli(m)
	}
	return dates
}
