package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"inkwell/internal/insight"
)

// dayKey formats a timestamp as the per-day result partition key.
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// AppendDailyResult adds a daily analysis result to the given day's list.
// Results are never overwritten; the most recent append is "current".
func (db *DB) AppendDailyResult(day time.Time, r insight.DailyAnalysisResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal daily result: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO daily_results (day, result, created_at) VALUES (?, ?, ?)
	`, dayKey(day), string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("append daily result: %w", err)
	}
	return nil
}

// DailyResults returns all results recorded for the given day, oldest first.
// Corrupted rows are skipped; a bad record is dropped, not fatal.
func (db *DB) DailyResults(day time.Time) ([]insight.DailyAnalysisResult, error) {
	rows, err := db.Query(`
		SELECT result FROM daily_results WHERE day = ? ORDER BY created_at, id
	`, dayKey(day))
	if err != nil {
		return nil, fmt.Errorf("load daily results: %w", err)
	}
	defer rows.Close()

	var results []insight.DailyAnalysisResult
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan daily result: %w", err)
		}
		var r insight.DailyAnalysisResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			log.Printf("store: corrupt daily result for %s, skipping: %v", dayKey(day), err)
			continue
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// CurrentDaily returns the most recently appended result for the day, or
// nil if none exists.
func (db *DB) CurrentDaily(day time.Time) (*insight.DailyAnalysisResult, error) {
	results, err := db.DailyResults(day)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[len(results)-1], nil
}

// CountDailyResults returns how many results exist for the given day.
func (db *DB) CountDailyResults(day time.Time) (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM daily_results WHERE day = ?", dayKey(day)).Scan(&n)
	return n, err
}

// SaveWeekly overwrites the single weekly analytics record.
func (db *DB) SaveWeekly(r insight.WeeklyAnalyticsResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal weekly result: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO weekly_result (id, result, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET result = excluded.result, updated_at = excluded.updated_at
	`, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save weekly result: %w", err)
	}
	return nil
}

// LoadWeekly returns the persisted weekly result, or nil if none has been
// recorded. A corrupted record starts fresh rather than failing.
func (db *DB) LoadWeekly() (*insight.WeeklyAnalyticsResult, error) {
	var raw string
	err := db.QueryRow("SELECT result FROM weekly_result WHERE id = 1").Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load weekly result: %w", err)
	}

	var r insight.WeeklyAnalyticsResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		log.Printf("store: corrupt weekly result, starting fresh: %v", err)
		return nil, nil
	}
	return &r, nil
}
