package llm

import "fmt"

// DailyPrompt asks the model to analyze the trailing day of journal entries.
// themeContext lists known themes that lexically appear in today's text.
func DailyPrompt(entries, themeContext string) string {
	context := "No previously tracked themes appear in today's entries."
	if themeContext != "" {
		context = fmt.Sprintf("KNOWN THEMES MENTIONED TODAY:\n%s", themeContext)
	}

	return fmt.Sprintf(`You are a reflective journaling assistant. Analyze today's journal entries.

%s

TODAY'S ENTRIES:
%s

Rules:
- theme names should be short noun phrases (2-4 words)
- insights should be specific to what was written, not generic advice
- Return ONLY a JSON object, no other text

Return a JSON object:
{
  "themes_today": ["theme name", ...],
  "overarching_areas": ["life area", ...],
  "key_insights": ["insight", ...],
  "focus_areas": ["suggested focus", ...]
}`, context, entries)
}

// WeeklyPrompt asks the model for a week-scale analysis across entries,
// primed with the top tracked themes by frequency.
func WeeklyPrompt(entries, topThemes string) string {
	themes := "No themes are being tracked yet."
	if topThemes != "" {
		themes = fmt.Sprintf("CURRENTLY TRACKED THEMES (by frequency):\n%s", topThemes)
	}

	return fmt.Sprintf(`You are a reflective journaling assistant. Analyze the past week of journal entries.

%s

ENTRIES:
%s

Rules:
- Ground every observation in the entries; do not invent events
- personalized_actions should be concrete and small
- Return ONLY a JSON object, no other text

Return a JSON object:
{
  "theme_evolution": ["how a theme shifted", ...],
  "patterns_discovered": ["recurring pattern", ...],
  "breakthroughs": ["breakthrough", ...],
  "obstacles": ["obstacle", ...],
  "productivity_insights": ["insight", ...],
  "emotional_patterns": ["pattern", ...],
  "personalized_actions": ["action", ...]
}`, themes, entries)
}

// DiscoveryPrompt asks the model to propose recurring theme candidates from
// a batch of combined entries.
func DiscoveryPrompt(combined string) string {
	return fmt.Sprintf(`You are a theme discovery system for a personal journal. Find recurring themes across these entries.

ENTRIES:
%s

Rules:
- A theme is a topic that recurs across multiple entries, not a one-off event
- frequency is the number of entries in which the theme appears
- evolution is one sentence describing how the theme is developing
- Skip themes that appear only once
- Return ONLY a JSON object, no other text

Return a JSON object:
{
  "themes": [{
    "name": "short theme name",
    "summary": "one-sentence characterization",
    "frequency": 2,
    "evolution": "how the theme is developing"
  }]
}

If no recurring themes exist, return: {"themes": []}`, combined)
}

// DeepThemePrompt asks for a focused analysis of a single tracked theme.
func DeepThemePrompt(name, summary, evolution, entries string) string {
	return fmt.Sprintf(`You are a reflective journaling assistant. Analyze one recurring theme in depth.

THEME: %s
SUMMARY: %s
EVOLUTION SO FAR: %s

RELATED ENTRIES:
%s

Return ONLY a JSON object, no other text:
{
  "evolution_analysis": "paragraph on how this theme has evolved",
  "triggers": ["what sets it off", ...],
  "patterns": ["recurring behavior", ...],
  "discovered_solutions": ["what has helped", ...],
  "stuck_points": ["where progress stalls", ...],
  "specific_suggestions": ["concrete next step", ...]
}`, name, summary, evolution, entries)
}
