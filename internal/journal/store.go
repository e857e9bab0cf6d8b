package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// entrySeparator joins individual entries inside a day file.
const entrySeparator = "\n\n---\n\n"

// dayLayout names day files: 2025-01-31.md
const dayLayout = "2006-01-02"

// Entry is a single journal entry. Immutable once written.
type Entry struct {
	Text      string
	Timestamp time.Time
}

// Words returns the number of whitespace-separated words in the entry text.
func (e Entry) Words() int {
	return len(strings.Fields(e.Text))
}

// Store is a date-partitioned, append-only entry store. One file per
// calendar day; each entry carries a leading RFC3339 timestamp line.
type Store struct {
	dir string
	now func() time.Time
}

// DefaultDir returns the default journal directory: ~/.inkwell/journal
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".inkwell", "journal"), nil
}

// Open creates (if needed) and returns a Store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// SetClock overrides the store's clock. Tests only.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Dir returns the journal directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) dayPath(day time.Time) string {
	return filepath.Join(s.dir, day.Format(dayLayout)+".md")
}

// Append adds an entry to today's file, stamped with the current time.
func (s *Store) Append(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty entry")
	}

	now := s.now()
	record := fmt.Sprintf("[%s]\n%s", now.Format(time.RFC3339), text)

	path := s.dayPath(now)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open day file: %w", err)
	}
	defer f.Close()

	// Prefix with the separator unless the file is new.
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat day file: %w", err)
	}
	if info.Size() > 0 {
		record = entrySeparator + record
	}

	if _, err := f.WriteString(record); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// ReadDay returns all entries recorded on the given calendar day, in file
// order. A missing day file yields no entries, not an error.
func (s *Store) ReadDay(day time.Time) ([]Entry, error) {
	data, err := os.ReadFile(s.dayPath(day))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read day %s: %w", day.Format(dayLayout), err)
	}
	return parseDay(string(data)), nil
}

// ReadRange returns entries for every day from start through end inclusive,
// ordered oldest day first.
func (s *Store) ReadRange(start, end time.Time) ([]Entry, error) {
	var entries []Entry
	for day := startOfDay(start); !day.After(end); day = day.AddDate(0, 0, 1) {
		dayEntries, err := s.ReadDay(day)
		if err != nil {
			return nil, err
		}
		entries = append(entries, dayEntries...)
	}
	return entries, nil
}

// parseDay splits raw day-file content into entries. Segments without a
// parseable timestamp header are skipped; journal files may be hand-edited.
func parseDay(raw string) []Entry {
	var entries []Entry
	for _, segment := range strings.Split(raw, entrySeparator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		entry, ok := parseSegment(segment)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// parseSegment parses a "[RFC3339]\ntext" record.
func parseSegment(segment string) (Entry, bool) {
	if !strings.HasPrefix(segment, "[") {
		return Entry{}, false
	}
	end := strings.Index(segment, "]")
	if end < 0 {
		return Entry{}, false
	}

	ts, err := time.Parse(time.RFC3339, segment[1:end])
	if err != nil {
		return Entry{}, false
	}

	text := strings.TrimSpace(segment[end+1:])
	if text == "" {
		return Entry{}, false
	}
	return Entry{Text: text, Timestamp: ts}, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
