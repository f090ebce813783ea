package validation

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newslynx/recipes/internal/schema"
)

func rssScraper() *schema.SousChef {
	return &schema.SousChef{
		Slug: "rss-scraper",
		Options: map[string]schema.OptionSpec{
			"url": {
				Required:   true,
				ValueTypes: []schema.Type{schema.TypeURL},
			},
			"limit": {
				Default:    20,
				HasDefault: true,
				ValueTypes: []schema.Type{schema.TypeNumeric},
			},
		},
	}
}

func fixedSlugEngine() *Engine {
	return NewEngine(WithSlugGenerator(func(sc string) string { return sc + "-abc123" }))
}

func TestValidate_EndToEnd(t *testing.T) {
	raw := schema.Record{
		"name":    "My Feed",
		"options": map[string]any{"url": "http://example.com/rss"},
	}

	got, err := Validate(raw, rssScraper())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"url": "http://example.com/rss", "limit": 20}, got["options"])
	assert.Regexp(t, regexp.MustCompile(`^rss-scraper-[0-9a-f]{12}$`), got["slug"])
	assert.Equal(t, false, got["scheduled"])
	assert.Equal(t, "My Feed", got["name"])
	assert.Equal(t, "stable", got["status"])
	assert.Equal(t, "unscheduled", got["schedule_by"])
	assert.Nil(t, got["description"])

	// the caller's record is untouched
	assert.Equal(t, schema.Record{
		"name":    "My Feed",
		"options": map[string]any{"url": "http://example.com/rss"},
	}, raw)
}

func TestValidate_GeneratedSlugsAreUnique(t *testing.T) {
	raw := schema.Record{"name": "Feed", "url": "http://example.com/rss"}

	a, err := Validate(raw, rssScraper())
	require.NoError(t, err)
	b, err := Validate(raw, rssScraper())
	require.NoError(t, err)
	assert.NotEqual(t, a["slug"], b["slug"])
}

func TestValidate_KeepsSuppliedSlug(t *testing.T) {
	got, err := Validate(schema.Record{
		"name": "Feed",
		"slug": "my-feed",
		"url":  "http://example.com/rss",
	}, rssScraper())
	require.NoError(t, err)
	assert.Equal(t, "my-feed", got["slug"])
}

func TestValidate_RequiredWithDefault(t *testing.T) {
	sc := &schema.SousChef{
		Slug: "twitter-list",
		Options: map[string]schema.OptionSpec{
			"count": {Required: true, Default: 200, HasDefault: true, ValueTypes: []schema.Type{schema.TypeNumeric}},
		},
	}

	for _, status := range []string{"stable", schema.StatusUninitialized} {
		got, err := Validate(schema.Record{"name": "List", "status": status}, sc)
		require.NoError(t, err, status)
		assert.Equal(t, 200, got["options"].(map[string]any)["count"], status)
	}
}

func TestValidate_RequiredWithoutDefault(t *testing.T) {
	sc := rssScraper()

	_, err := Validate(schema.Record{"name": "Feed"}, sc)
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.Equal(t, "Recipes associated with SousChef 'rss-scraper' require a 'url' option.", err.Error())

	got, err := Validate(schema.Record{"name": "Feed", "status": schema.StatusUninitialized}, sc)
	require.NoError(t, err)
	opts := got["options"].(map[string]any)
	assert.Contains(t, opts, "url")
	assert.Nil(t, opts["url"])
	assert.Equal(t, 20, opts["limit"])
}

func TestValidate_DraftAllowsMissingName(t *testing.T) {
	got, err := Validate(schema.Record{
		"status": schema.StatusUninitialized,
		"url":    "http://example.com/rss",
	}, rssScraper())
	require.NoError(t, err)
	assert.Nil(t, got["name"])

	_, err = Validate(schema.Record{"url": "http://example.com/rss"}, rssScraper())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "require a 'name' option")
}

func TestValidate_NilValueTreatedAsMissing(t *testing.T) {
	sc := &schema.SousChef{
		Slug: "sc",
		Options: map[string]schema.OptionSpec{
			"limit": {
				Required:   true,
				Default:    20,
				HasDefault: true,
				ValueTypes: []schema.Type{schema.TypeNumeric, schema.TypeNull},
			},
			"owner": {
				Required:   true,
				ValueTypes: []schema.Type{schema.TypeString, schema.TypeNull},
			},
		},
	}

	got, err := Validate(schema.Record{
		"name":    "x",
		"status":  nil,
		"options": map[string]any{"limit": nil, "owner": "me"},
	}, sc)
	require.NoError(t, err)
	assert.Equal(t, 20, got["options"].(map[string]any)["limit"])
	assert.Equal(t, "stable", got["status"])

	again, err := Validate(got, sc)
	require.NoError(t, err)
	assert.Equal(t, got["options"], again["options"])

	_, err = Validate(schema.Record{"name": "x", "options": map[string]any{"owner": nil}}, sc)
	require.Error(t, err)
	assert.Equal(t, "Recipes associated with SousChef 'sc' require a 'owner' option.", err.Error())

	draft, err := Validate(schema.Record{
		"status":  schema.StatusUninitialized,
		"options": map[string]any{"owner": nil},
	}, sc)
	require.NoError(t, err)
	assert.Nil(t, draft["options"].(map[string]any)["owner"])
}

func TestValidate_EveryDeclaredOptionPresent(t *testing.T) {
	sc := &schema.SousChef{
		Slug: "sc",
		Options: map[string]schema.OptionSpec{
			"a": {ValueTypes: []schema.Type{schema.TypeString}},
			"b": {ValueTypes: []schema.Type{schema.TypeString, schema.TypeNull}},
			"c": {Default: "x", HasDefault: true, ValueTypes: []schema.Type{schema.TypeString}},
		},
	}

	got, err := Validate(schema.Record{"name": "n"}, sc)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": nil, "b": nil, "c": "x"}, got["options"])
	for _, key := range schema.DefaultTables().DefaultFields {
		assert.Contains(t, got, key)
	}
}

func TestValidate_ListOptions(t *testing.T) {
	sc := &schema.SousChef{
		Slug: "sc",
		Options: map[string]schema.OptionSpec{
			"feeds":  {AcceptsList: true, ValueTypes: []schema.Type{schema.TypeURL}},
			"single": {ValueTypes: []schema.Type{schema.TypeURL}},
			"mixed":  {AcceptsList: true, ValueTypes: []schema.Type{schema.TypeNumeric, schema.TypeString}},
		},
	}

	got, err := Validate(schema.Record{
		"name":  "n",
		"feeds": []any{"http://a.com", "http://b.com"},
		"mixed": []string{"1", "two", "3.5"},
	}, sc)
	require.NoError(t, err)
	opts := got["options"].(map[string]any)
	assert.Equal(t, []any{"http://a.com", "http://b.com"}, opts["feeds"])
	assert.Equal(t, []any{int64(1), "two", 3.5}, opts["mixed"])

	_, err = Validate(schema.Record{"name": "n", "single": []any{"http://a.com"}}, sc)
	require.Error(t, err)
	assert.Equal(t, "single does not accept multiple inputs.", err.Error())

	_, err = Validate(schema.Record{"name": "n", "feeds": []any{"http://a.com", "nope"}}, sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "There was a problem validating 'feeds'")
	assert.Contains(t, err.Error(), "feeds can be a 'url' field but was passed 'nope'.")
}

func TestValidate_UnknownKeysAreDropped(t *testing.T) {
	got, err := Validate(schema.Record{
		"name":      "Feed",
		"url":       "http://example.com/rss",
		"favorite":  "pizza",
		"options":   map[string]any{"other": 1},
		"id":        99,
		"scheduled": true,
	}, rssScraper())
	require.NoError(t, err)

	opts := got["options"].(map[string]any)
	assert.NotContains(t, opts, "favorite")
	assert.NotContains(t, opts, "other")
	assert.NotContains(t, got, "favorite")
	assert.NotContains(t, got, "id")
	assert.Equal(t, "http://example.com/rss", opts["url"])
	assert.Equal(t, false, got["scheduled"])
}

func TestValidate_BuiltInFieldsNestedByMistake(t *testing.T) {
	got, err := Validate(schema.Record{
		"options": map[string]any{
			"name":        "Nested Name",
			"description": "moved up",
			"url":         "http://example.com/rss",
		},
	}, rssScraper())
	require.NoError(t, err)
	assert.Equal(t, "Nested Name", got["name"])
	assert.Equal(t, "moved up", got["description"])
	assert.NotContains(t, got["options"], "name")
}

func TestValidate_ScheduleTriggers(t *testing.T) {
	base := func(extra schema.Record) schema.Record {
		r := schema.Record{"name": "Feed", "url": "http://example.com/rss"}
		for k, v := range extra {
			r[k] = v
		}
		return r
	}

	tests := []struct {
		name          string
		extra         schema.Record
		wantScheduled bool
		wantErr       string
	}{
		{"no trigger", nil, false, ""},
		{"time of day", schema.Record{"time_of_day": "09:30"}, true, ""},
		{"minutes", schema.Record{"minutes": "30"}, true, ""},
		{"crontab", schema.Record{"crontab": "*/15 * * * *"}, true, ""},
		{"draft time of day", schema.Record{"time_of_day": "09:30", "status": schema.StatusUninitialized}, false, ""},
		{"both", schema.Record{"time_of_day": "09:30", "minutes": 10}, false, "cannot have 'time_of_day' and an interval"},
		{"both in draft", schema.Record{"time_of_day": "09:30", "crontab": "0 * * * *", "status": schema.StatusUninitialized}, false, "cannot have 'time_of_day' and an interval"},
		{"bad time of day", schema.Record{"time_of_day": "lunchtime"}, false, "time_of_day must be a time"},
		{"bad crontab", schema.Record{"crontab": "every day"}, false, "is not a valid cron expression"},
		{"negative minutes", schema.Record{"minutes": -5}, false, "minutes must be a positive number"},
		{"empty triggers", schema.Record{"time_of_day": "", "crontab": nil, "minutes": 0}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(base(tt.extra), rssScraper())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsSchemaError(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheduled, got["scheduled"])
		})
	}
}

func TestValidate_Idempotent(t *testing.T) {
	sc := &schema.SousChef{
		Slug: "kitchen-sink",
		Options: map[string]schema.OptionSpec{
			"since":   {ValueTypes: []schema.Type{schema.TypeDateTime, schema.TypeString}},
			"pattern": {ValueTypes: []schema.Type{schema.TypeRegex}},
			"query":   {ValueTypes: []schema.Type{schema.TypeSearchString}},
			"notify":  {ValueTypes: []schema.Type{schema.TypeEmail, schema.TypeNull}},
			"feeds":   {AcceptsList: true, ValueTypes: []schema.Type{schema.TypeURL}},
			"enabled": {Default: "yes", HasDefault: true, ValueTypes: []schema.Type{schema.TypeBoolean}},
			"limit":   {Required: true, Default: 10, HasDefault: true, ValueTypes: []schema.Type{schema.TypeNumeric}},
			"note":    {ValueTypes: []schema.Type{schema.TypeString}},
		},
	}
	raw := schema.Record{
		"name":    "Sink",
		"minutes": "15",
		"since":   "2020-01-01",
		"pattern": `^a+$`,
		"query":   "a AND b",
		"notify":  "none",
		"feeds":   []any{"http://a.com"},
		"enabled": "no",
	}

	once, err := Validate(raw, sc)
	require.NoError(t, err)
	twice, err := Validate(once, sc)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Equal(t, true, once["scheduled"])
	assert.Equal(t, int64(15), once["minutes"])
}

func TestValidate_NilSousChef(t *testing.T) {
	_, err := Validate(schema.Record{"name": "x"}, nil)
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestValidate_OptionsMustBeMapping(t *testing.T) {
	_, err := Validate(schema.Record{"name": "x", "options": "nope"}, rssScraper())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'options' must be a mapping")
}

func TestUpdate_EmptyPatchEqualsValidate(t *testing.T) {
	e := fixedSlugEngine()
	sc := rssScraper()

	old, err := e.Validate(schema.Record{"name": "Feed", "url": "http://example.com/rss", "time_of_day": "8:00 am"}, sc)
	require.NoError(t, err)

	updated, err := e.Update(old, schema.Record{}, sc)
	require.NoError(t, err)
	revalidated, err := e.Validate(old, sc)
	require.NoError(t, err)
	assert.Equal(t, revalidated, updated)
}

func TestUpdate_MergesOptionsKeyByKey(t *testing.T) {
	e := fixedSlugEngine()
	sc := rssScraper()

	old, err := e.Validate(schema.Record{"name": "Feed", "url": "http://example.com/rss", "limit": "5"}, sc)
	require.NoError(t, err)

	updated, err := e.Update(old, schema.Record{"limit": "50", "description": "more"}, sc)
	require.NoError(t, err)

	opts := updated["options"].(map[string]any)
	assert.Equal(t, "http://example.com/rss", opts["url"])
	assert.Equal(t, int64(50), opts["limit"])
	assert.Equal(t, "more", updated["description"])
	assert.Equal(t, "rss-scraper-abc123", updated["slug"])

	// old is not modified
	assert.Equal(t, int64(5), old["options"].(map[string]any)["limit"])
}

func TestUpdate_DraftToFinal(t *testing.T) {
	e := fixedSlugEngine()
	sc := rssScraper()

	draft, err := e.Validate(schema.Record{"name": "Feed", "status": schema.StatusUninitialized, "minutes": 5}, sc)
	require.NoError(t, err)
	assert.Equal(t, false, draft["scheduled"])

	_, err = e.Update(draft, schema.Record{"status": "stable"}, sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "require a 'url' option")

	final, err := e.Update(draft, schema.Record{"status": "stable", "url": "http://example.com/rss"}, sc)
	require.NoError(t, err)
	assert.Equal(t, true, final["scheduled"])
}

func TestUpdate_ScheduleConflictAfterMerge(t *testing.T) {
	e := fixedSlugEngine()
	sc := rssScraper()

	old, err := e.Validate(schema.Record{"name": "Feed", "url": "http://example.com/rss", "minutes": 10}, sc)
	require.NoError(t, err)

	_, err = e.Update(old, schema.Record{"time_of_day": "10:00"}, sc)
	require.Error(t, err)

	swapped, err := e.Update(old, schema.Record{"time_of_day": "10:00", "minutes": nil}, sc)
	require.NoError(t, err)
	assert.Nil(t, swapped["minutes"])
	assert.Equal(t, true, swapped["scheduled"])
}

type storedRecipe struct {
	name string
	opts map[string]any
}

func (s storedRecipe) ToRecord() schema.Record {
	return schema.Record{"name": s.name, "status": "stable", "options": s.opts}
}

func TestUpdate_FromRecorder(t *testing.T) {
	e := fixedSlugEngine()
	stored := storedRecipe{name: "Feed", opts: map[string]any{"url": "http://example.com/rss", "limit": 3}}

	got, err := e.Update(stored, schema.Record{"limit": 4}, rssScraper())
	require.NoError(t, err)
	assert.Equal(t, 4, got["options"].(map[string]any)["limit"])
	assert.Equal(t, 3, stored.opts["limit"])
}

func TestUpdate_RejectsUnknownOldType(t *testing.T) {
	_, err := Update(42, schema.Record{}, rssScraper())
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestEngine_ConcurrentUse(t *testing.T) {
	e := NewEngine()
	sc := rssScraper()
	raw := schema.Record{"name": "Feed", "url": "http://example.com/rss", "since": time.Now()}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Validate(raw, sc); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
}
