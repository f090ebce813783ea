package schema

// Tables holds the fixed token and field-name sets consulted during validation.
// A Tables value is built once and only read afterwards.
type Tables struct {
	TrueTokens     map[string]struct{}
	FalseTokens    map[string]struct{}
	NullTokens     map[string]struct{}
	RemoveFields   map[string]struct{}
	InternalFields map[string]struct{}

	// DefaultFields lists the top-level recipe options every sous chef carries,
	// in resolution order.
	DefaultFields []string
	Defaults      map[string]OptionSpec
}

// OptionsKey is the record key holding custom options
const OptionsKey = "options"

// ScheduledKey is the derived scheduling flag
const ScheduledKey = "scheduled"

var defaultTables = newTables()

// DefaultTables returns the process-wide tables
func DefaultTables() *Tables {
	return defaultTables
}

func newTables() *Tables {
	remove := []string{
		"id", "org_id", "user_id", "sous_chef_id",
		"created", "updated", "last_run", "last_job",
		"options_hash", ScheduledKey, "sous_chef",
	}
	internal := append([]string{"sous_chef_slug"}, remove...)

	return &Tables{
		TrueTokens:     set("true", "t", "yes", "y", "1", "on"),
		FalseTokens:    set("false", "f", "no", "n", "0", "off"),
		NullTokens:     set("", "none", "null", "nil", "na", "n/a", "nan", "undefined"),
		RemoveFields:   set(remove...),
		InternalFields: set(internal...),
		DefaultFields: []string{
			"name", "slug", "description", "schedule_by", "crontab",
			"time_of_day", "minutes", "status", "traceback",
		},
		Defaults: map[string]OptionSpec{
			"name":        {Required: true, ValueTypes: []Type{TypeString}},
			"slug":        {ValueTypes: []Type{TypeString}},
			"description": {HasDefault: true, ValueTypes: []Type{TypeString, TypeNull}},
			"schedule_by": {Default: "unscheduled", HasDefault: true, ValueTypes: []Type{TypeString}},
			"crontab":     {HasDefault: true, ValueTypes: []Type{TypeString, TypeNull}},
			"time_of_day": {HasDefault: true, ValueTypes: []Type{TypeString, TypeNull}},
			"minutes":     {HasDefault: true, ValueTypes: []Type{TypeNumeric, TypeNull}},
			"status":      {Default: "stable", HasDefault: true, ValueTypes: []Type{TypeString}},
			"traceback":   {HasDefault: true, ValueTypes: []Type{TypeString, TypeNull}},
		},
	}
}

// IsDefaultField reports whether key is a built-in top-level option
func (t *Tables) IsDefaultField(key string) bool {
	_, ok := t.Defaults[key]
	return ok
}

// IsInternalField reports whether key is managed by the system rather than the caller
func (t *Tables) IsInternalField(key string) bool {
	_, ok := t.InternalFields[key]
	return ok
}

// IsRemoveField reports whether key is stripped from incoming payloads
func (t *Tables) IsRemoveField(key string) bool {
	_, ok := t.RemoveFields[key]
	return ok
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// Has reports membership in a token set
func Has(s map[string]struct{}, v string) bool {
	_, ok := s[v]
	return ok
}
