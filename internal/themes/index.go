package themes

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Storage persists the active set and the append-only archive. The sqlite
// store implements it; tests supply an in-memory fake.
type Storage interface {
	LoadActive() ([]Theme, error)
	// SaveThemes replaces the active set and appends newly archived themes
	// atomically: on failure neither side may be written, so the archive can
	// never run ahead of the active set.
	SaveThemes(active, archived []Theme) error
	LoadArchive() ([]Theme, error)
}

// Index owns the theme lifecycle: discovery merges, daily-mention touches,
// archival. Single writer: all mutation goes through the mutex, so two
// merges can never interleave partial writes.
type Index struct {
	storage Storage
	now     func() time.Time

	mu     sync.Mutex
	active []Theme
}

// NewIndex loads the active set from storage. An unreadable active set is
// treated as empty rather than fatal; entries are authoritative and themes
// are re-derivable by the next discovery pass.
func NewIndex(storage Storage) *Index {
	idx := &Index{storage: storage, now: time.Now}

	active, err := storage.LoadActive()
	if err != nil {
		log.Printf("themes: active set unreadable, starting fresh: %v", err)
		active = nil
	}
	idx.active = active
	return idx
}

// SetClock overrides the index clock. Tests only.
func (idx *Index) SetClock(now func() time.Time) { idx.now = now }

// Active returns a snapshot of the active set, ordered by descending
// frequency.
func (idx *Index) Active() []Theme {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return snapshot(idx.active)
}

// TopThemes returns the n most frequent active themes.
func (idx *Index) TopThemes(n int) []Theme {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if n > len(idx.active) {
		n = len(idx.active)
	}
	return snapshot(idx.active[:n])
}

// Archived returns the append-only archive.
func (idx *Index) Archived() ([]Theme, error) {
	return idx.storage.LoadArchive()
}

// MergeDiscovered folds discovery candidates into the active set, then
// archives anything that has gone inactive and truncates to MaxTracked.
// Growth over replacement: summaries are snapshots (latest wins), frequency
// and evolution are running totals.
func (idx *Index) MergeDiscovered(candidates []Candidate) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := idx.now()
	working := snapshot(idx.active)

	for _, c := range candidates {
		vc, err := ValidateCandidate(c)
		if err != nil {
			log.Printf("themes: rejecting candidate %q: %v", c.Name, err)
			continue
		}
		if vc.Frequency < MinMentions {
			continue
		}

		i := findTheme(working, vc.Name)
		if i < 0 {
			working = append(working, Theme{
				Name:          vc.Name,
				Summary:       vc.Summary,
				Frequency:     vc.Frequency,
				Evolution:     vc.Evolution,
				LastMentioned: now,
				KeyDates:      []time.Time{now},
			})
			continue
		}

		t := working[i]
		if vc.Frequency > t.Frequency {
			t.Frequency = vc.Frequency
		}
		t.Summary = vc.Summary
		t.Evolution = appendEvolution(t.Evolution, vc.Evolution)
		t.LastMentioned = now
		t.KeyDates = appendKeyDate(t.KeyDates, now)
		working[i] = t
	}

	return idx.commit(working, now)
}

// Touch records a daily-analysis mention of an existing theme: frequency
// increments, the note extends the evolution, and the mention refreshes
// activity. Unknown names are ignored; daily analyses may surface theme
// names discovery hasn't promoted yet.
func (idx *Index) Touch(name, note string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	i := findTheme(idx.active, name)
	if i < 0 {
		return nil
	}

	// Mutate a snapshot; commit installs it only after persistence succeeds.
	now := idx.now()
	working := snapshot(idx.active)
	t := working[i]
	t.Frequency++
	t.Evolution = appendEvolution(t.Evolution, note)
	t.LastMentioned = now
	t.KeyDates = appendKeyDate(t.KeyDates, now)
	working[i] = t

	return idx.commit(working, now)
}

// AddManual inserts a user-created theme into the active set.
func (idx *Index) AddManual(t Theme) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if findTheme(idx.active, t.Name) >= 0 {
		return fmt.Errorf("theme %q already tracked", t.Name)
	}

	now := idx.now()
	if t.LastMentioned.IsZero() {
		t.LastMentioned = now
	}
	if len(t.KeyDates) == 0 {
		t.KeyDates = []time.Time{now}
	}
	if t.Frequency <= 0 {
		t.Frequency = 1
	}

	return idx.commit(append(snapshot(idx.active), t), now)
}

// Remove drops a theme from the active set by name.
func (idx *Index) Remove(name string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	i := findTheme(idx.active, name)
	if i < 0 {
		return fmt.Errorf("theme %q not tracked", name)
	}

	working := snapshot(idx.active)
	working = append(working[:i], working[i+1:]...)
	return idx.commit(working, idx.now())
}

// commit partitions working into active/archived, persists both, and
// installs the new active set. Callers hold the mutex. Nothing is installed
// if persistence fails.
func (idx *Index) commit(working []Theme, now time.Time) error {
	var active, archived []Theme
	for _, t := range working {
		if t.Active(now) {
			active = append(active, t)
		} else {
			archived = append(archived, t)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Frequency > active[j].Frequency
	})

	// Overflow beyond MaxTracked is archived, never deleted.
	if len(active) > MaxTracked {
		archived = append(archived, active[MaxTracked:]...)
		active = active[:MaxTracked]
	}

	if err := idx.storage.SaveThemes(active, archived); err != nil {
		return fmt.Errorf("persist themes: %w", err)
	}

	idx.active = active
	return nil
}

func findTheme(ts []Theme, name string) int {
	for i := range ts {
		if SameName(ts[i].Name, name) {
			return i
		}
	}
	return -1
}

func appendKeyDate(dates []time.Time, d time.Time) []time.Time {
	dates = append(dates, d)
	if len(dates) > MaxKeyDates {
		dates = dates[len(dates)-MaxKeyDates:]
	}
	return dates
}

func snapshot(ts []Theme) []Theme {
	out := make([]Theme, len(ts))
	copy(out, ts)
	return out
}
