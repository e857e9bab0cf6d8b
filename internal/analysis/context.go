package analysis

import (
	"strconv"
	"strings"
	"time"

	"inkwell/internal/journal"
	"inkwell/internal/themes"
)

// entryJoin separates entry texts inside a combined prompt context.
const entryJoin = "\n\n---\n\n"

// dailyWindow collects entries from the trailing 24 hours. The last 3
// calendar-day files are scanned so entries written close to midnight are
// not lost to the day boundary.
func dailyWindow(store *journal.Store, now time.Time) ([]journal.Entry, error) {
	raw, err := store.ReadRange(now.AddDate(0, 0, -2), now)
	if err != nil {
		return nil, err
	}

	cutoff := now.Add(-24 * time.Hour)
	var entries []journal.Entry
	for _, e := range raw {
		if e.Timestamp.After(cutoff) && !e.Timestamp.After(now) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// accumulateWindow walks backward day by day, up to lookbackDays, collecting
// non-empty entries. It stops early once both the entry-count and word-count
// thresholds are met, an optimization rather than a correctness requirement.
func accumulateWindow(store *journal.Store, now time.Time, lookbackDays, minEntries, minWords int) ([]journal.Entry, error) {
	var entries []journal.Entry
	words := 0

	for i := 0; i < lookbackDays; i++ {
		day := now.AddDate(0, 0, -i)
		dayEntries, err := store.ReadDay(day)
		if err != nil {
			return nil, err
		}

		for _, e := range dayEntries {
			if strings.TrimSpace(e.Text) == "" {
				continue
			}
			entries = append(entries, e)
			words += e.Words()
		}

		if len(entries) >= minEntries && words >= minWords {
			break
		}
	}
	return entries, nil
}

// combineEntries joins entry texts for prompt context.
func combineEntries(entries []journal.Entry) string {
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Text)
	}
	return strings.Join(texts, entryJoin)
}

// countWords sums whitespace-separated words across entries.
func countWords(entries []journal.Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Words()
	}
	return total
}

// mentionedThemes filters active themes to those whose name tokens lexically
// appear in the text. Cheap historical context for the daily prompt: no
// embeddings, just token presence.
func mentionedThemes(active []themes.Theme, text string) []themes.Theme {
	lower := strings.ToLower(text)

	var hits []themes.Theme
	for _, t := range active {
		for _, token := range strings.Fields(strings.ToLower(t.Name)) {
			if strings.Contains(lower, token) {
				hits = append(hits, t)
				break
			}
		}
	}
	return hits
}

// formatThemeContext renders themes as prompt context lines.
func formatThemeContext(ts []themes.Theme) string {
	var b strings.Builder
	for _, t := range ts {
		b.WriteString("- ")
		b.WriteString(t.Name)
		b.WriteString(" (mentioned ")
		b.WriteString(strconv.Itoa(t.Frequency))
		b.WriteString("x): ")
		b.WriteString(t.Summary)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
