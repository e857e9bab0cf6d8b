package codec_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/codec"
	"inkwell/internal/insight"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	raw := "Here is your analysis:\n```json\n{\"key\": \"value\"}\n```\nHope that helps!"
	got, err := codec.ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key": "value"}`, got)
}

func TestExtractJSON_FenceWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"a\": 1}\n```"
	got, err := codec.ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, got)
}

func TestExtractJSON_BareObjectWithProse(t *testing.T) {
	raw := "Sure! Based on the entries, {\"themes\": [\"work\"]} is what I found."
	got, err := codec.ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"themes": ["work"]}`, got)
}

func TestExtractJSON_FirstOfMultipleObjects(t *testing.T) {
	raw := `{"first": true} and then {"second": true}`
	got, err := codec.ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"first": true}`, got)
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	raw := `{"note": "uses { and } and \" inside", "ok": true}`
	got, err := codec.ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, raw, got)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	for _, raw := range []string{"", "   ", "no json here at all", "{broken"} {
		_, err := codec.ExtractJSON(raw)
		require.Error(t, err, "input %q", raw)

		var pe *codec.ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, codec.KindMalformed, pe.Kind)
	}
}

func TestDecode_DailyResultRoundTrip(t *testing.T) {
	raw := "Here's the analysis:\n```json\n" + `{
  "themes_today": ["career transition", "sleep"],
  "overarching_areas": ["work-life balance"],
  "key_insights": ["mornings are productive"],
  "focus_areas": ["set a bedtime"]
}` + "\n```"

	got, err := codec.Decode[insight.DailyAnalysisResult](raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"career transition", "sleep"}, got.ThemesToday)
	assert.Equal(t, []string{"work-life balance"}, got.OverarchingAreas)
	assert.Equal(t, []string{"mornings are productive"}, got.KeyInsights)
	assert.Equal(t, []string{"set a bedtime"}, got.FocusAreas)
}

func TestDecode_NoJSONFailsInsteadOfZeroValue(t *testing.T) {
	_, err := codec.Decode[insight.DailyAnalysisResult]("the model rambled and returned nothing structured")
	require.Error(t, err)

	var pe *codec.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, codec.KindMalformed, pe.Kind)
}

func TestDecode_SchemaMismatch(t *testing.T) {
	// Valid JSON, wrong shape for the target type.
	_, err := codec.Decode[insight.DailyAnalysisResult](`{"themes_today": "not-an-array"}`)
	require.Error(t, err)

	var pe *codec.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, codec.KindSchemaMismatch, pe.Kind)
}

func TestCleanStrings(t *testing.T) {
	in := []string{"  spaced  ", `escaped \"quote\"`, "", "   ", "kept"}
	got := codec.CleanStrings(in)
	assert.Equal(t, []string{"spaced", `escaped "quote"`, "kept"}, got)
}

func TestMissing(t *testing.T) {
	err := codec.Missing("name")
	assert.Equal(t, codec.KindMissingField, err.Kind)
	assert.Contains(t, err.Error(), "name")
}
