// Package codec extracts typed results from free-form model output. Models
// wrap JSON in markdown fences, lead with prose, or trail with commentary;
// the codec tolerates all of that but never fabricates a partial result.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseKind classifies codec failures.
type ParseKind string

const (
	KindMalformed      ParseKind = "malformed"
	KindMissingField   ParseKind = "missing_field"
	KindSchemaMismatch ParseKind = "schema_mismatch"
)

// ParseError is the typed failure surfaced by the codec.
type ParseError struct {
	Kind ParseKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("codec: %s", e.Kind)
	}
	return fmt.Sprintf("codec: %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Missing builds a missing-field ParseError. A partially specified record is
// worse than a dropped one, so validators fail the whole record with this.
func Missing(field string) *ParseError {
	return &ParseError{Kind: KindMissingField, Err: fmt.Errorf("required field %q absent", field)}
}

// ExtractJSON locates the JSON payload in raw model text. A fenced code
// block wins; otherwise the first balanced brace-delimited object is used.
// Models often emit explanation before or after the JSON; only the first
// candidate counts.
func ExtractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ParseError{Kind: KindMalformed, Err: fmt.Errorf("empty response")}
	}

	if inner, ok := fencedBlock(raw); ok {
		if obj, ok := firstObject(inner); ok {
			return obj, nil
		}
	}

	if obj, ok := firstObject(raw); ok {
		return obj, nil
	}
	return "", &ParseError{Kind: KindMalformed, Err: fmt.Errorf("no JSON object found in response")}
}

// Decode extracts the JSON payload from raw and unmarshals it into T.
func Decode[T any](raw string) (T, error) {
	var out T

	payload, err := ExtractJSON(raw)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, &ParseError{Kind: KindSchemaMismatch, Err: fmt.Errorf("unmarshal: %w", err)}
	}
	return out, nil
}

// CleanStrings trims whitespace and un-escapes quote sequences in every
// element, dropping entries that end up empty.
func CleanStrings(ss []string) []string {
	cleaned := make([]string, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, `\"`, `"`)
		if s == "" {
			continue
		}
		cleaned = append(cleaned, s)
	}
	return cleaned
}

// fencedBlock returns the interior of the first markdown code fence, if any.
// The language tag (```json) is ignored.
func fencedBlock(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}

	rest := raw[start+3:]
	// Skip the language tag line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return "", false
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// firstObject scans for the first balanced top-level brace object,
// respecting JSON string literals and escapes.
func firstObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := raw[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}
