package themes

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeStorage is an in-memory Storage for index tests.
type fakeStorage struct {
	active  []Theme
	archive []Theme

	loadErr error
	saveErr error
}

func (f *fakeStorage) LoadActive() ([]Theme, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]Theme(nil), f.active...), nil
}

func (f *fakeStorage) SaveThemes(active, archived []Theme) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.active = append([]Theme(nil), active...)
	f.archive = append(f.archive, archived...)
	return nil
}

func (f *fakeStorage) LoadArchive() ([]Theme, error) {
	return append([]Theme(nil), f.archive...), nil
}

func testIndex(t *testing.T, storage *fakeStorage, now time.Time) *Index {
	t.Helper()
	idx := NewIndex(storage)
	idx.SetClock(func() time.Time { return now })
	return idx
}

var baseTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func candidate(name string, freq int) Candidate {
	return Candidate{
		Name:      name,
		Summary:   "summary of " + name,
		Frequency: freq,
		Evolution: "started thinking about " + name,
	}
}

func TestMergeDiscovered_InsertsNewThemes(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)

	err := idx.MergeDiscovered([]Candidate{
		candidate("Career Transition", 5),
		candidate("Sleep", 3),
	})
	if err != nil {
		t.Fatalf("MergeDiscovered: %v", err)
	}

	active := idx.Active()
	if len(active) != 2 {
		t.Fatalf("active = %d themes, want 2", len(active))
	}
	// Sorted by descending frequency.
	if active[0].Name != "Career Transition" || active[0].Frequency != 5 {
		t.Errorf("top theme = %s (x%d)", active[0].Name, active[0].Frequency)
	}
	if active[0].Evolution == "" {
		t.Error("evolution must never be empty after discovery")
	}
	if len(active[0].KeyDates) != 1 || !active[0].KeyDates[0].Equal(baseTime) {
		t.Errorf("key dates = %v", active[0].KeyDates)
	}
}

func TestMergeDiscovered_CaseInsensitiveMerge(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)

	if err := idx.MergeDiscovered([]Candidate{candidate("career transition", 3)}); err != nil {
		t.Fatal(err)
	}
	if err := idx.MergeDiscovered([]Candidate{{
		Name:      "Career Transition",
		Summary:   "now interviewing",
		Frequency: 2,
		Evolution: "moved from doubt to action",
	}}); err != nil {
		t.Fatal(err)
	}

	active := idx.Active()
	if len(active) != 1 {
		t.Fatalf("case variants must merge, got %d themes", len(active))
	}

	got := active[0]
	if got.Frequency != 3 {
		t.Errorf("frequency = %d, want max(3, 2) = 3", got.Frequency)
	}
	if got.Summary != "now interviewing" {
		t.Errorf("summary must be overwritten by the latest, got %q", got.Summary)
	}
	want := "started thinking about career transition → moved from doubt to action"
	if got.Evolution != want {
		t.Errorf("evolution = %q, want %q", got.Evolution, want)
	}
}

func TestMergeDiscovered_FrequencyKeepsMax(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)

	if err := idx.MergeDiscovered([]Candidate{candidate("running", 7)}); err != nil {
		t.Fatal(err)
	}
	if err := idx.MergeDiscovered([]Candidate{candidate("running", 2)}); err != nil {
		t.Fatal(err)
	}

	if got := idx.Active()[0].Frequency; got != 7 {
		t.Errorf("frequency = %d, a lower re-discovery count must not shrink it", got)
	}
}

func TestMergeDiscovered_MinMentionsFloor(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)

	err := idx.MergeDiscovered([]Candidate{
		candidate("once", 1),
		candidate("twice", 2),
	})
	if err != nil {
		t.Fatal(err)
	}

	active := idx.Active()
	if len(active) != 1 || active[0].Name != "twice" {
		t.Errorf("single-mention candidates must be dropped, got %v", names(active))
	}
}

func TestMergeDiscovered_RejectsIncompleteCandidates(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)

	err := idx.MergeDiscovered([]Candidate{
		{Name: "no summary", Frequency: 3, Evolution: "x"},
		{Name: "", Summary: "s", Frequency: 3, Evolution: "x"},
		{Name: "no evolution", Summary: "s", Frequency: 3},
		candidate("complete", 3),
	})
	if err != nil {
		t.Fatal(err)
	}

	active := idx.Active()
	if len(active) != 1 || active[0].Name != "complete" {
		t.Errorf("incomplete candidates must fail whole, got %v", names(active))
	}
}

func TestMergeDiscovered_CapsAtMaxTracked(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)

	var cands []Candidate
	for i := 0; i < MaxTracked+3; i++ {
		cands = append(cands, candidate(fmt.Sprintf("theme-%02d", i), i+2))
	}
	if err := idx.MergeDiscovered(cands); err != nil {
		t.Fatal(err)
	}

	active := idx.Active()
	if len(active) != MaxTracked {
		t.Fatalf("active = %d, want cap %d", len(active), MaxTracked)
	}
	for i := 1; i < len(active); i++ {
		if active[i-1].Frequency < active[i].Frequency {
			t.Fatalf("active set not sorted by descending frequency at %d", i)
		}
	}

	// The three least frequent went to the archive, not the void.
	archived, err := idx.Archived()
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 3 {
		t.Errorf("archive = %d themes, want 3", len(archived))
	}
}

func TestCommit_ArchivesStaleThemes(t *testing.T) {
	stale := Theme{
		Name:          "old hobby",
		Summary:       "s",
		Frequency:     9,
		Evolution:     "e",
		LastMentioned: baseTime.Add(-15 * 24 * time.Hour),
	}
	storage := &fakeStorage{active: []Theme{stale}}
	idx := testIndex(t, storage, baseTime)

	// Any mutation triggers the partition.
	if err := idx.MergeDiscovered([]Candidate{candidate("fresh", 2)}); err != nil {
		t.Fatal(err)
	}

	active := idx.Active()
	if len(active) != 1 || active[0].Name != "fresh" {
		t.Errorf("stale theme must leave the active set, got %v", names(active))
	}
	archived, _ := idx.Archived()
	if len(archived) != 1 || archived[0].Name != "old hobby" {
		t.Errorf("stale theme must land in the archive, got %v", names(archived))
	}
}

func TestTheme_ActiveWindow(t *testing.T) {
	now := baseTime
	cases := []struct {
		last time.Time
		want bool
	}{
		{now, true},
		{now.Add(-13 * 24 * time.Hour), true},
		{now.Add(-14 * 24 * time.Hour), true}, // boundary is inclusive
		{now.Add(-14*24*time.Hour - time.Second), false},
		{now.Add(time.Hour), true}, // future mention counts as active
	}
	for _, tc := range cases {
		th := Theme{LastMentioned: tc.last}
		if th.Active(now) != tc.want {
			t.Errorf("last=%v: active = %v, want %v", tc.last, th.Active(now), tc.want)
		}
	}
}

func TestTouch(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)
	if err := idx.MergeDiscovered([]Candidate{candidate("running", 2)}); err != nil {
		t.Fatal(err)
	}

	later := baseTime.Add(24 * time.Hour)
	idx.SetClock(func() time.Time { return later })

	if err := idx.Touch("RUNNING", "ran a 10k"); err != nil {
		t.Fatal(err)
	}

	got := idx.Active()[0]
	if got.Frequency != 3 {
		t.Errorf("frequency = %d, want 3", got.Frequency)
	}
	if !got.LastMentioned.Equal(later) {
		t.Errorf("last mentioned = %v, want %v", got.LastMentioned, later)
	}
	if want := "started thinking about running → ran a 10k"; got.Evolution != want {
		t.Errorf("evolution = %q, want %q", got.Evolution, want)
	}

	// Unknown names are a no-op, not an error.
	if err := idx.Touch("never heard of it", "note"); err != nil {
		t.Errorf("unknown touch: %v", err)
	}
}

func TestKeyDates_KeepLastTen(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)
	if err := idx.MergeDiscovered([]Candidate{candidate("running", 2)}); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 12; i++ {
		day := baseTime.Add(time.Duration(i) * time.Hour)
		idx.SetClock(func() time.Time { return day })
		if err := idx.Touch("running", ""); err != nil {
			t.Fatal(err)
		}
	}

	dates := idx.Active()[0].KeyDates
	if len(dates) != MaxKeyDates {
		t.Fatalf("key dates = %d, want %d", len(dates), MaxKeyDates)
	}
	// The oldest entries rolled off; the newest is last.
	if !dates[len(dates)-1].Equal(baseTime.Add(12 * time.Hour)) {
		t.Errorf("newest key date = %v", dates[len(dates)-1])
	}
}

func TestAddManualAndRemove(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)

	if err := idx.AddManual(Theme{Name: "Gardening", Summary: "s"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.AddManual(Theme{Name: "gardening", Summary: "dup"}); err == nil {
		t.Error("duplicate manual add must fail")
	}

	got := idx.Active()[0]
	if got.Frequency != 1 || got.LastMentioned.IsZero() || len(got.KeyDates) != 1 {
		t.Errorf("manual add defaults not applied: %+v", got)
	}

	if err := idx.Remove("GARDENING"); err != nil {
		t.Fatal(err)
	}
	if len(idx.Active()) != 0 {
		t.Error("removed theme still active")
	}
	if err := idx.Remove("gardening"); err == nil {
		t.Error("removing an untracked theme must fail")
	}
}

func TestNewIndex_UnreadableStorageStartsFresh(t *testing.T) {
	storage := &fakeStorage{loadErr: errors.New("disk on fire")}
	idx := NewIndex(storage)
	if len(idx.Active()) != 0 {
		t.Error("unreadable active set must start empty")
	}
}

func TestCommit_PersistFailureKeepsOldState(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)
	if err := idx.MergeDiscovered([]Candidate{candidate("keep me", 2)}); err != nil {
		t.Fatal(err)
	}

	storage.saveErr = errors.New("write failed")
	if err := idx.MergeDiscovered([]Candidate{candidate("new one", 5)}); err == nil {
		t.Fatal("expected persistence failure to surface")
	}

	active := idx.Active()
	if len(active) != 1 || active[0].Name != "keep me" {
		t.Errorf("failed commit must not install new state, got %v", names(active))
	}
}

func TestTouch_PersistFailureKeepsOldState(t *testing.T) {
	storage := &fakeStorage{}
	idx := testIndex(t, storage, baseTime)
	if err := idx.MergeDiscovered([]Candidate{candidate("running", 2)}); err != nil {
		t.Fatal(err)
	}
	before := idx.Active()[0]

	storage.saveErr = errors.New("write failed")
	if err := idx.Touch("running", "ran a 10k"); err == nil {
		t.Fatal("expected persistence failure to surface")
	}

	got := idx.Active()[0]
	if got.Frequency != before.Frequency {
		t.Errorf("failed touch mutated in-memory frequency: %d, want %d", got.Frequency, before.Frequency)
	}
	if got.Evolution != before.Evolution {
		t.Errorf("failed touch mutated evolution: %q, want %q", got.Evolution, before.Evolution)
	}
	if !got.LastMentioned.Equal(before.LastMentioned) {
		t.Errorf("failed touch mutated last mentioned: %v, want %v", got.LastMentioned, before.LastMentioned)
	}

	// Once the store recovers, the touch applies exactly once.
	storage.saveErr = nil
	if err := idx.Touch("running", "ran a 10k"); err != nil {
		t.Fatal(err)
	}
	if got := idx.Active()[0].Frequency; got != before.Frequency+1 {
		t.Errorf("frequency = %d, want %d", got, before.Frequency+1)
	}
}

func TestCommit_FailureDoesNotDuplicateArchive(t *testing.T) {
	stale := Theme{
		Name:          "old hobby",
		Summary:       "s",
		Frequency:     1,
		Evolution:     "e",
		LastMentioned: baseTime.Add(-15 * 24 * time.Hour),
	}
	storage := &fakeStorage{active: []Theme{stale}}
	idx := testIndex(t, storage, baseTime)

	storage.saveErr = errors.New("write failed")
	if err := idx.MergeDiscovered([]Candidate{candidate("fresh", 2)}); err == nil {
		t.Fatal("expected persistence failure to surface")
	}
	if archived, _ := idx.Archived(); len(archived) != 0 {
		t.Fatalf("failed commit must not write the archive, got %v", names(archived))
	}

	storage.saveErr = nil
	if err := idx.MergeDiscovered([]Candidate{candidate("fresh", 2)}); err != nil {
		t.Fatal(err)
	}

	archived, err := idx.Archived()
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 || archived[0].Name != "old hobby" {
		t.Errorf("archive = %v, want exactly one copy of the stale theme", names(archived))
	}
}

func names(ts []Theme) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}
