// Package analysis decides when daily, weekly, and theme-discovery runs are
// due, assembles prompt context from the journal and theme index, drives the
// model gateway, and commits decoded results. A failed run commits nothing;
// the next due check retries automatically.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"inkwell/internal/codec"
	"inkwell/internal/config"
	"inkwell/internal/insight"
	"inkwell/internal/journal"
	"inkwell/internal/llm"
	"inkwell/internal/notify"
	"inkwell/internal/store"
	"inkwell/internal/themes"
)

// Kind names an analysis run type.
type Kind string

const (
	KindDaily     Kind = "daily"
	KindWeekly    Kind = "weekly"
	KindDiscovery Kind = "discovery"
	KindDeepTheme Kind = "deep_theme"
)

// Event is a discrete completion notification. Exactly one of Daily, Weekly,
// or Err is set (discovery completions carry neither; the theme index is
// the result).
type Event struct {
	Kind   Kind
	RunID  uuid.UUID
	Daily  *insight.DailyAnalysisResult
	Weekly *insight.WeeklyAnalyticsResult
	Err    error
	At     time.Time
}

// topThemesForWeekly is how many themes prime the weekly prompt.
const topThemesForWeekly = 5

// ErrNoEntries is returned when a run has no journal text to analyze.
var ErrNoEntries = errors.New("no entries in analysis window")

// Orchestrator owns the cadence state and coordinates the analysis runs.
// Run methods do not re-check "due" (that's the caller's guard), but each
// kind is protected by an in-flight guard, so a manual trigger racing a
// scheduled tick collapses into one execution.
type Orchestrator struct {
	journal  *journal.Store
	gateway  *llm.Gateway
	index    *themes.Index
	db       *store.DB
	reporter notify.Reporter
	cfg      config.AnalysisConfig
	now      func() time.Time

	flight singleflight.Group
	events chan Event

	mu      sync.Mutex
	cadence store.Cadence
}

// New loads cadence state and returns an Orchestrator. An unreadable
// cadence record means every kind is due. Safe, since runs are idempotent
// with respect to committed data.
func New(j *journal.Store, gw *llm.Gateway, idx *themes.Index, db *store.DB, reporter notify.Reporter, cfg config.AnalysisConfig) *Orchestrator {
	if reporter == nil {
		reporter = notify.LogReporter{}
	}

	cadence, err := db.LoadCadence()
	if err != nil {
		log.Printf("analysis: cadence unreadable, treating all runs as due: %v", err)
		cadence = store.Cadence{}
	}

	return &Orchestrator{
		journal:  j,
		gateway:  gw,
		index:    idx,
		db:       db,
		reporter: reporter,
		cfg:      cfg,
		now:      time.Now,
		events:   make(chan Event, 16),
		cadence:  cadence,
	}
}

// SetClock overrides the orchestrator clock. Tests only.
func (o *Orchestrator) SetClock(now func() time.Time) { o.now = now }

// Events returns the completion event stream. Consumers that fall behind
// lose events rather than blocking a run.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// Cadence returns a snapshot of the last-run timestamps.
func (o *Orchestrator) Cadence() store.Cadence {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cadence
}

// DailyDue reports whether no daily run is recorded for the current local
// calendar day.
func (o *Orchestrator) DailyDue() bool {
	o.mu.Lock()
	last := o.cadence.LastDaily
	o.mu.Unlock()

	if last == nil {
		return true
	}
	now := o.now()
	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()
	return ly != ny || lm != nm || ld != nd
}

// WeeklyDue reports whether the weekly content gate passes: enough
// accumulated entries and words, and the cooldown has elapsed. The 3-day
// content gate is authoritative; the calendar timer is only a coarse
// fallback trigger.
func (o *Orchestrator) WeeklyDue() bool {
	if !o.cooldownElapsed(o.lastWeekly()) {
		return false
	}

	entries, err := accumulateWindow(o.journal, o.now(), o.cfg.LookbackDays, o.cfg.MinEntries, o.cfg.MinWords)
	if err != nil {
		o.report(notify.CategoryPersistence, "read_failed", notify.SeverityMedium, err)
		return false
	}
	return len(entries) >= o.cfg.MinEntries && countWords(entries) >= o.cfg.MinWords
}

// DiscoveryDue reports whether the discovery cooldown has elapsed.
func (o *Orchestrator) DiscoveryDue() bool {
	o.mu.Lock()
	last := o.cadence.LastDiscovery
	o.mu.Unlock()
	return o.cooldownElapsed(last)
}

func (o *Orchestrator) lastWeekly() *time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cadence.LastWeekly
}

func (o *Orchestrator) cooldownElapsed(last *time.Time) bool {
	if last == nil {
		return true
	}
	cooldown := time.Duration(o.cfg.CooldownDays) * 24 * time.Hour
	return o.now().Sub(*last) >= cooldown
}

// RunDaily analyzes the trailing 24 hours of entries and appends the result
// to today's list. On success it touches every theme the analysis mentions.
func (o *Orchestrator) RunDaily(ctx context.Context) (*insight.DailyAnalysisResult, error) {
	v, err, _ := o.flight.Do(string(KindDaily), func() (any, error) {
		return o.runDaily(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*insight.DailyAnalysisResult), nil
}

func (o *Orchestrator) runDaily(ctx context.Context) (*insight.DailyAnalysisResult, error) {
	runID := uuid.New()
	now := o.now()

	entries, err := dailyWindow(o.journal, now)
	if err != nil {
		return nil, o.fail(KindDaily, runID, notify.CategoryPersistence, "read_failed", notify.SeverityMedium, err)
	}
	if len(entries) == 0 {
		log.Printf("analysis: daily skipped, no entries in the last 24h")
		return nil, ErrNoEntries
	}

	text := combineEntries(entries)
	known := mentionedThemes(o.index.Active(), text)
	prompt := llm.DailyPrompt(text, formatThemeContext(known))

	raw, err := o.gateway.Execute(ctx, prompt, llm.ExecOpts{
		Timeout: time.Duration(o.cfg.TimeoutSeconds) * time.Second,
		Backoff: llm.BackoffFixed,
	})
	if err != nil {
		return nil, o.failGateway(KindDaily, runID, err)
	}

	decoded, err := codec.Decode[insight.DailyAnalysisResult](raw)
	if err != nil {
		return nil, o.failCodec(KindDaily, runID, err)
	}
	result := decoded.Clean()

	// Commit: result first, then cadence, then theme touches. A failure
	// before this point leaves no state behind.
	if err := o.db.AppendDailyResult(now, result); err != nil {
		return nil, o.fail(KindDaily, runID, notify.CategoryPersistence, "write_failed", notify.SeverityHigh, err)
	}
	o.commitCadence(KindDaily, now)

	for _, name := range result.ThemesToday {
		if err := o.index.Touch(name, ""); err != nil {
			o.report(notify.CategoryPersistence, "write_failed", notify.SeverityMedium,
				fmt.Errorf("touch theme %q: %w", name, err))
		}
	}

	log.Printf("analysis: daily run %s complete (%d themes, %d insights)",
		runID, len(result.ThemesToday), len(result.KeyInsights))
	o.publish(Event{Kind: KindDaily, RunID: runID, Daily: &result, At: o.now()})
	return &result, nil
}

// RunWeekly analyzes the accumulated entry window and overwrites the single
// weekly analytics record.
func (o *Orchestrator) RunWeekly(ctx context.Context) (*insight.WeeklyAnalyticsResult, error) {
	v, err, _ := o.flight.Do(string(KindWeekly), func() (any, error) {
		return o.runWeekly(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*insight.WeeklyAnalyticsResult), nil
}

func (o *Orchestrator) runWeekly(ctx context.Context) (*insight.WeeklyAnalyticsResult, error) {
	runID := uuid.New()
	now := o.now()

	entries, err := accumulateWindow(o.journal, now, o.cfg.LookbackDays, o.cfg.MinEntries, o.cfg.MinWords)
	if err != nil {
		return nil, o.fail(KindWeekly, runID, notify.CategoryPersistence, "read_failed", notify.SeverityMedium, err)
	}
	if len(entries) == 0 {
		log.Printf("analysis: weekly skipped, no entries in window")
		return nil, ErrNoEntries
	}

	top := o.index.TopThemes(topThemesForWeekly)
	prompt := llm.WeeklyPrompt(combineEntries(entries), formatThemeContext(top))

	raw, err := o.gateway.Execute(ctx, prompt, llm.ExecOpts{
		Timeout: time.Duration(o.cfg.TimeoutSeconds) * time.Second,
		Backoff: llm.BackoffFixed,
	})
	if err != nil {
		return nil, o.failGateway(KindWeekly, runID, err)
	}

	decoded, err := codec.Decode[insight.WeeklyAnalyticsResult](raw)
	if err != nil {
		return nil, o.failCodec(KindWeekly, runID, err)
	}
	result := decoded.Clean()

	if err := o.db.SaveWeekly(result); err != nil {
		return nil, o.fail(KindWeekly, runID, notify.CategoryPersistence, "write_failed", notify.SeverityHigh, err)
	}
	o.commitCadence(KindWeekly, now)

	log.Printf("analysis: weekly run %s complete", runID)
	o.publish(Event{Kind: KindWeekly, RunID: runID, Weekly: &result, At: o.now()})
	return &result, nil
}

// RunDiscovery asks the model for theme candidates across the accumulated
// window and merges them into the theme index.
func (o *Orchestrator) RunDiscovery(ctx context.Context) error {
	_, err, _ := o.flight.Do(string(KindDiscovery), func() (any, error) {
		return nil, o.runDiscovery(ctx)
	})
	return err
}

func (o *Orchestrator) runDiscovery(ctx context.Context) error {
	runID := uuid.New()
	now := o.now()

	entries, err := accumulateWindow(o.journal, now, o.cfg.LookbackDays, o.cfg.MinEntries, o.cfg.MinWords)
	if err != nil {
		return o.fail(KindDiscovery, runID, notify.CategoryPersistence, "read_failed", notify.SeverityMedium, err)
	}
	if len(entries) == 0 {
		log.Printf("analysis: discovery skipped, no entries in window")
		return ErrNoEntries
	}

	prompt := llm.DiscoveryPrompt(combineEntries(entries))

	// Discovery prompts are heavier: longer timeout, exponential backoff.
	raw, err := o.gateway.Execute(ctx, prompt, llm.ExecOpts{
		Timeout: time.Duration(o.cfg.DiscoverySecs) * time.Second,
		Backoff: llm.BackoffExponential,
	})
	if err != nil {
		return o.failGateway(KindDiscovery, runID, err)
	}

	decoded, err := codec.Decode[themes.DiscoveryResult](raw)
	if err != nil {
		return o.failCodec(KindDiscovery, runID, err)
	}

	if err := o.index.MergeDiscovered(decoded.Themes); err != nil {
		return o.fail(KindDiscovery, runID, notify.CategoryPersistence, "write_failed", notify.SeverityHigh, err)
	}
	o.commitCadence(KindDiscovery, now)

	log.Printf("analysis: discovery run %s merged %d candidates", runID, len(decoded.Themes))
	o.publish(Event{Kind: KindDiscovery, RunID: runID, At: o.now()})
	return nil
}

// RunDeepTheme produces an on-demand deep analysis of one tracked theme.
// The result is ephemeral: returned, never persisted.
func (o *Orchestrator) RunDeepTheme(ctx context.Context, name string) (*insight.DeepThemeAnalysis, error) {
	v, err, _ := o.flight.Do(string(KindDeepTheme)+":"+name, func() (any, error) {
		return o.runDeepTheme(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*insight.DeepThemeAnalysis), nil
}

func (o *Orchestrator) runDeepTheme(ctx context.Context, name string) (*insight.DeepThemeAnalysis, error) {
	runID := uuid.New()

	var theme *themes.Theme
	for _, t := range o.index.Active() {
		if themes.SameName(t.Name, name) {
			theme = &t
			break
		}
	}
	if theme == nil {
		return nil, fmt.Errorf("theme %q not tracked", name)
	}

	entries, err := accumulateWindow(o.journal, o.now(), o.cfg.LookbackDays, o.cfg.MinEntries, o.cfg.MinWords)
	if err != nil {
		return nil, o.fail(KindDeepTheme, runID, notify.CategoryPersistence, "read_failed", notify.SeverityMedium, err)
	}
	related := mentionedEntries(entries, theme.Name)
	if len(related) == 0 {
		return nil, ErrNoEntries
	}

	prompt := llm.DeepThemePrompt(theme.Name, theme.Summary, theme.Evolution, combineEntries(related))
	raw, err := o.gateway.Execute(ctx, prompt, llm.ExecOpts{
		Timeout: time.Duration(o.cfg.DiscoverySecs) * time.Second,
		Backoff: llm.BackoffExponential,
	})
	if err != nil {
		return nil, o.failGateway(KindDeepTheme, runID, err)
	}

	decoded, err := codec.Decode[insight.DeepThemeAnalysis](raw)
	if err != nil {
		return nil, o.failCodec(KindDeepTheme, runID, err)
	}
	result := decoded.Clean()
	return &result, nil
}

// Sweep runs every analysis kind that is currently due. The hourly tick and
// the calendar timers all funnel through here.
func (o *Orchestrator) Sweep(ctx context.Context) {
	if o.DailyDue() {
		if _, err := o.RunDaily(ctx); err != nil && !errors.Is(err, ErrNoEntries) {
			log.Printf("analysis: daily sweep: %v", err)
		}
	}
	if o.WeeklyDue() {
		if _, err := o.RunWeekly(ctx); err != nil && !errors.Is(err, ErrNoEntries) {
			log.Printf("analysis: weekly sweep: %v", err)
		}
	}
	if o.DiscoveryDue() {
		if err := o.RunDiscovery(ctx); err != nil && !errors.Is(err, ErrNoEntries) {
			log.Printf("analysis: discovery sweep: %v", err)
		}
	}
}

// commitCadence records a successful run and persists the cadence state.
func (o *Orchestrator) commitCadence(kind Kind, at time.Time) {
	o.mu.Lock()
	switch kind {
	case KindDaily:
		o.cadence.LastDaily = &at
	case KindWeekly:
		o.cadence.LastWeekly = &at
	case KindDiscovery:
		o.cadence.LastDiscovery = &at
	}
	snapshot := o.cadence
	o.mu.Unlock()

	if err := o.db.SaveCadence(snapshot); err != nil {
		o.report(notify.CategoryPersistence, "write_failed", notify.SeverityMedium,
			fmt.Errorf("save cadence: %w", err))
	}
}

func (o *Orchestrator) publish(e Event) {
	select {
	case o.events <- e:
	default:
	}
}

func (o *Orchestrator) report(cat notify.Category, kind string, sev notify.Severity, err error) {
	o.reporter.Report(notify.Event{
		Kind:     kind,
		Category: cat,
		Severity: sev,
		Err:      err,
		At:       o.now(),
	})
}

// fail reports and publishes a failed run, returning the error unchanged.
func (o *Orchestrator) fail(kind Kind, runID uuid.UUID, cat notify.Category, errKind string, sev notify.Severity, err error) error {
	o.report(cat, errKind, sev, err)
	o.publish(Event{Kind: kind, RunID: runID, Err: err, At: o.now()})
	return err
}

func (o *Orchestrator) failGateway(kind Kind, runID uuid.UUID, err error) error {
	ge := llm.AsGatewayError(err)
	sev := notify.SeverityMedium
	if ge.Kind == llm.KindServer || ge.Kind == llm.KindInvalidRequest {
		sev = notify.SeverityHigh
	}
	return o.fail(kind, runID, notify.CategoryGateway, string(ge.Kind), sev, ge)
}

func (o *Orchestrator) failCodec(kind Kind, runID uuid.UUID, err error) error {
	return o.fail(kind, runID, notify.CategoryCodec, "parse_failed", notify.SeverityMedium, err)
}

// mentionedEntries filters entries whose text contains any token of the
// theme name.
func mentionedEntries(entries []journal.Entry, name string) []journal.Entry {
	tokens := strings.Fields(strings.ToLower(name))

	var hits []journal.Entry
	for _, e := range entries {
		lower := strings.ToLower(e.Text)
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				hits = append(hits, e)
				break
			}
		}
	}
	return hits
}
