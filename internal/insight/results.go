// Package insight holds the typed analysis results decoded from model
// output.
package insight

import "inkwell/internal/codec"

// DailyAnalysisResult is one day-scale analysis. Multiple results per day
// are retained as an append-only list; the most recent is "current".
type DailyAnalysisResult struct {
	ThemesToday      []string `json:"themes_today"`
	OverarchingAreas []string `json:"overarching_areas"`
	KeyInsights      []string `json:"key_insights"`
	FocusAreas       []string `json:"focus_areas"`
}

// Clean normalizes every string-array field: trimmed, quote escapes undone,
// empties dropped. Missing fields stay as empty slices.
func (r DailyAnalysisResult) Clean() DailyAnalysisResult {
	r.ThemesToday = codec.CleanStrings(r.ThemesToday)
	r.OverarchingAreas = codec.CleanStrings(r.OverarchingAreas)
	r.KeyInsights = codec.CleanStrings(r.KeyInsights)
	r.FocusAreas = codec.CleanStrings(r.FocusAreas)
	return r
}

// WeeklyAnalyticsResult is the single persisted week-scale analysis,
// overwritten each run.
type WeeklyAnalyticsResult struct {
	ThemeEvolution       []string `json:"theme_evolution"`
	PatternsDiscovered   []string `json:"patterns_discovered"`
	Breakthroughs        []string `json:"breakthroughs"`
	Obstacles            []string `json:"obstacles"`
	ProductivityInsights []string `json:"productivity_insights"`
	EmotionalPatterns    []string `json:"emotional_patterns"`
	PersonalizedActions  []string `json:"personalized_actions"`
}

// Clean normalizes every string-array field.
func (r WeeklyAnalyticsResult) Clean() WeeklyAnalyticsResult {
	r.ThemeEvolution = codec.CleanStrings(r.ThemeEvolution)
	r.PatternsDiscovered = codec.CleanStrings(r.PatternsDiscovered)
	r.Breakthroughs = codec.CleanStrings(r.Breakthroughs)
	r.Obstacles = codec.CleanStrings(r.Obstacles)
	r.ProductivityInsights = codec.CleanStrings(r.ProductivityInsights)
	r.EmotionalPatterns = codec.CleanStrings(r.EmotionalPatterns)
	r.PersonalizedActions = codec.CleanStrings(r.PersonalizedActions)
	return r
}

// DeepThemeAnalysis is an on-demand per-theme analysis. Ephemeral, not
// persisted across restarts.
type DeepThemeAnalysis struct {
	EvolutionAnalysis   string   `json:"evolution_analysis"`
	Triggers            []string `json:"triggers"`
	Patterns            []string `json:"patterns"`
	DiscoveredSolutions []string `json:"discovered_solutions"`
	StuckPoints         []string `json:"stuck_points"`
	SpecificSuggestions []string `json:"specific_suggestions"`
}

// Clean normalizes the string-array fields.
func (r DeepThemeAnalysis) Clean() DeepThemeAnalysis {
	r.Triggers = codec.CleanStrings(r.Triggers)
	r.Patterns = codec.CleanStrings(r.Patterns)
	r.DiscoveredSolutions = codec.CleanStrings(r.DiscoveredSolutions)
	r.StuckPoints = codec.CleanStrings(r.StuckPoints)
	r.SpecificSuggestions = codec.CleanStrings(r.SpecificSuggestions)
	return r
}
