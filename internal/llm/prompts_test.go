package llm

import (
	"strings"
	"testing"
)

func TestDailyPrompt(t *testing.T) {
	p := DailyPrompt("went for a run", "- Running (mentioned 3x): training")
	if !strings.Contains(p, "went for a run") {
		t.Error("entries missing from prompt")
	}
	if !strings.Contains(p, "KNOWN THEMES MENTIONED TODAY") {
		t.Error("theme context missing")
	}
	if !strings.Contains(p, "themes_today") {
		t.Error("schema missing")
	}

	bare := DailyPrompt("entry", "")
	if !strings.Contains(bare, "No previously tracked themes") {
		t.Error("empty theme context should get the placeholder")
	}
}

func TestDiscoveryPrompt(t *testing.T) {
	p := DiscoveryPrompt("entry one\n\n---\n\nentry two")
	for _, want := range []string{"entry one", `"themes"`, `"frequency"`, `{"themes": []}`} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestDeepThemePrompt(t *testing.T) {
	p := DeepThemePrompt("Running", "training", "started slow", "ran today")
	for _, want := range []string{"THEME: Running", "started slow", "evolution_analysis"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
