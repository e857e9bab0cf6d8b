package themes

import (
	"strings"
	"time"

	"inkwell/internal/codec"
)

const (
	// MaxTracked caps the active set, selected by descending frequency.
	MaxTracked = 10
	// MinMentions is the discovery floor: candidates mentioned fewer times
	// are dropped before merge.
	MinMentions = 2
	// MaxKeyDates bounds the per-theme key date history.
	MaxKeyDates = 10
	// ActiveWindow is how long a theme stays active after its last mention.
	ActiveWindow = 14 * 24 * time.Hour

	// evolutionSep joins narrative segments as a theme develops.
	evolutionSep = " → "
)

// Theme is a recurring topic tracked across journal entries. Name is the
// unique key within the active set; comparison is case-insensitive.
type Theme struct {
	Name          string      `json:"name"`
	Summary       string      `json:"summary"`
	Frequency     int         `json:"frequency"`
	Evolution     string      `json:"evolution"`
	LastMentioned time.Time   `json:"last_mentioned"`
	KeyDates      []time.Time `json:"key_dates"`
}

// Active reports whether the theme was mentioned within the active window.
// A future LastMentioned counts as active rather than clock skew poisoning
// the archive.
func (t Theme) Active(now time.Time) bool {
	if t.LastMentioned.After(now) {
		return true
	}
	return now.Sub(t.LastMentioned) <= ActiveWindow
}

// SameName compares theme names case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// appendEvolution extends an evolution narrative with a new segment.
func appendEvolution(existing, segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return existing
	}
	if existing == "" {
		return segment
	}
	return existing + evolutionSep + segment
}

// Candidate is a discovered theme as decoded from model output.
type Candidate struct {
	Name      string `json:"name"`
	Summary   string `json:"summary"`
	Frequency int    `json:"frequency"`
	Evolution string `json:"evolution"`
}

// DiscoveryResult is the discovery prompt's decoded payload.
type DiscoveryResult struct {
	Themes []Candidate `json:"themes"`
}

// ValidateCandidate checks a discovered candidate for required fields and
// returns a trimmed copy. Every field is required: a partially specified
// theme fails whole rather than defaulting.
func ValidateCandidate(c Candidate) (Candidate, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, codec.Missing("name")
	}

	c.Summary = strings.TrimSpace(c.Summary)
	if c.Summary == "" {
		return c, codec.Missing("summary")
	}

	if c.Frequency <= 0 {
		return c, codec.Missing("frequency")
	}

	c.Evolution = strings.TrimSpace(c.Evolution)
	if c.Evolution == "" {
		return c, codec.Missing("evolution")
	}

	return c, nil
}
