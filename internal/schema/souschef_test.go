package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSousChef(t *testing.T) {
	sc, err := ParseSousChef(map[string]any{
		"slug": "rss-scraper",
		"name": "RSS Scraper",
		"options": map[string]any{
			"url":   map[string]any{"required": true, "value_types": []any{"url"}},
			"limit": map[string]any{"default": 20, "value_types": []any{"numeric"}},
			"tags":  map[string]any{"accepts_list": true, "value_types": "string"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "rss-scraper", sc.Slug)
	assert.Equal(t, "RSS Scraper", sc.Name)
	assert.Equal(t, OptionSpec{Required: true, ValueTypes: []Type{TypeURL}}, sc.Options["url"])
	assert.Equal(t, OptionSpec{Default: 20, HasDefault: true, ValueTypes: []Type{TypeNumeric}}, sc.Options["limit"])
	assert.True(t, sc.Options["tags"].AcceptsList)
	assert.Equal(t, []string{"limit", "tags", "url"}, sc.CustomKeys(DefaultTables()))
}

func TestParseSousChef_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want string
	}{
		{"missing slug", map[string]any{}, "slug must be a string"},
		{"options not a map", map[string]any{"slug": "s", "options": "x"}, "must be a mapping"},
		{"option not a map", map[string]any{"slug": "s", "options": map[string]any{"a": 1}}, "option 'a' must be a mapping"},
		{"unknown type", map[string]any{"slug": "s", "options": map[string]any{"a": map[string]any{"value_types": []any{"int"}}}}, "unknown value type: int"},
		{"no types", map[string]any{"slug": "s", "options": map[string]any{"a": map[string]any{}}}, "at least one value type"},
		{"duplicate type", map[string]any{"slug": "s", "options": map[string]any{"a": map[string]any{"value_types": []any{"url", "url"}}}}, "declares 'url' twice"},
		{"reserved name", map[string]any{"slug": "s", "options": map[string]any{"options": map[string]any{"value_types": []any{"url"}}}}, "cannot declare an option named 'options'"},
		{"bad required", map[string]any{"slug": "s", "options": map[string]any{"a": map[string]any{"required": "yes", "value_types": []any{"url"}}}}, "required must be a boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSousChef(tt.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSousChef_OptionFallsBackToDefaults(t *testing.T) {
	sc := &SousChef{
		Slug: "sc",
		Options: map[string]OptionSpec{
			"name": {ValueTypes: []Type{TypeString, TypeNull}},
			"url":  {ValueTypes: []Type{TypeURL}},
		},
	}
	tables := DefaultTables()

	spec, ok := sc.Option("name", tables)
	require.True(t, ok)
	assert.False(t, spec.Required, "sous chef overrides win")

	spec, ok = sc.Option("status", tables)
	require.True(t, ok)
	assert.Equal(t, "stable", spec.Default)

	_, ok = sc.Option("nope", tables)
	assert.False(t, ok)

	assert.Equal(t, []string{"url"}, sc.CustomKeys(tables))
	assert.True(t, sc.Declares("url"))
	assert.False(t, sc.Declares("status"))
}

func TestSousChef_JSON(t *testing.T) {
	in := `{
		"slug": "twitter-list",
		"options": {
			"owner": {"required": true, "value_types": ["string"]},
			"count": {"default": 200, "value_types": ["numeric", "nulltype"]}
		}
	}`

	var sc SousChef
	require.NoError(t, json.Unmarshal([]byte(in), &sc))
	assert.Equal(t, "twitter-list", sc.Slug)
	assert.Equal(t, float64(200), sc.Options["count"].Default)
	assert.Equal(t, []Type{TypeNumeric, TypeNull}, sc.Options["count"].ValueTypes)

	out, err := json.Marshal(&sc)
	require.NoError(t, err)

	var again SousChef
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, sc, again)
}
