package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Cadence tracks the last successful run per analysis kind. Loaded at
// startup, persisted after every successful run.
type Cadence struct {
	LastDaily     *time.Time
	LastWeekly    *time.Time
	LastDiscovery *time.Time
}

// LoadCadence returns the persisted cadence state. No prior record (or an
// unreadable one) yields an empty Cadence; every analysis kind is then due.
func (db *DB) LoadCadence() (Cadence, error) {
	var c Cadence
	var daily, weekly, discovery sql.NullInt64

	err := db.QueryRow(`
		SELECT last_daily, last_weekly, last_discovery FROM cadence WHERE id = 1
	`).Scan(&daily, &weekly, &discovery)
	if err == sql.ErrNoRows {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("load cadence: %w", err)
	}

	c.LastDaily = msToTime(daily)
	c.LastWeekly = msToTime(weekly)
	c.LastDiscovery = msToTime(discovery)
	return c, nil
}

// SaveCadence overwrites the cadence record.
func (db *DB) SaveCadence(c Cadence) error {
	_, err := db.Exec(`
		INSERT INTO cadence (id, last_daily, last_weekly, last_discovery) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_daily = excluded.last_daily,
			last_weekly = excluded.last_weekly,
			last_discovery = excluded.last_discovery
	`, timeToMs(c.LastDaily), timeToMs(c.LastWeekly), timeToMs(c.LastDiscovery))
	if err != nil {
		return fmt.Errorf("save cadence: %w", err)
	}
	return nil
}

func msToTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

func timeToMs(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
