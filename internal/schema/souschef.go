package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// SousChef is a reusable job template declaring the options its recipes accept
type SousChef struct {
	Slug        string                `json:"slug"`
	Name        string                `json:"name,omitempty"`
	Description string                `json:"description,omitempty"`
	Options     map[string]OptionSpec `json:"options"`
}

// Option returns the spec for key, consulting the sous chef's own options before
// the built-in defaults.
func (sc *SousChef) Option(key string, tables *Tables) (OptionSpec, bool) {
	if opt, ok := sc.Options[key]; ok {
		return opt, true
	}
	opt, ok := tables.Defaults[key]
	return opt, ok
}

// Declares reports whether key is one of the sous chef's custom options
func (sc *SousChef) Declares(key string) bool {
	_, ok := sc.Options[key]
	return ok
}

// CustomKeys returns the sous chef's option keys that are not built-in defaults, sorted
func (sc *SousChef) CustomKeys(tables *Tables) []string {
	keys := make([]string, 0, len(sc.Options))
	for k := range sc.Options {
		if tables.IsDefaultField(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that the sous chef is well formed
func (sc *SousChef) Validate() error {
	if sc.Slug == "" {
		return errors.New("sous chef slug is required")
	}
	for key, opt := range sc.Options {
		if key == "" {
			return fmt.Errorf("sous chef '%s' declares an option with an empty name", sc.Slug)
		}
		if key == OptionsKey {
			return fmt.Errorf("sous chef '%s' cannot declare an option named '%s'", sc.Slug, OptionsKey)
		}
		if len(opt.ValueTypes) == 0 {
			return fmt.Errorf("option '%s' of sous chef '%s' must declare at least one value type", key, sc.Slug)
		}
		seen := make(map[Type]bool, len(opt.ValueTypes))
		for _, t := range opt.ValueTypes {
			if seen[t] {
				return fmt.Errorf("option '%s' of sous chef '%s' declares '%s' twice", key, sc.Slug, t)
			}
			seen[t] = true
		}
	}
	return nil
}

// ParseSousChef decodes the plain-mapping form of a sous chef:
//
//	{slug, options: {key -> {required, default?, value_types: [...], accepts_list}}}
func ParseSousChef(m map[string]any) (*SousChef, error) {
	sc := &SousChef{Options: make(map[string]OptionSpec)}

	slug, ok := m["slug"].(string)
	if !ok {
		return nil, errors.New("sous chef slug must be a string")
	}
	sc.Slug = slug
	sc.Name, _ = m["name"].(string)
	sc.Description, _ = m["description"].(string)

	if raw, exists := m[OptionsKey]; exists && raw != nil {
		opts, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("options of sous chef '%s' must be a mapping", slug)
		}
		for key, rawOpt := range opts {
			spec, err := parseOptionSpec(key, rawOpt)
			if err != nil {
				return nil, fmt.Errorf("sous chef '%s': %w", slug, err)
			}
			sc.Options[key] = spec
		}
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func parseOptionSpec(key string, raw any) (OptionSpec, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return OptionSpec{}, fmt.Errorf("option '%s' must be a mapping", key)
	}

	var spec OptionSpec
	if v, exists := m["required"]; exists {
		b, ok := v.(bool)
		if !ok {
			return OptionSpec{}, fmt.Errorf("option '%s': required must be a boolean", key)
		}
		spec.Required = b
	}
	if v, exists := m["accepts_list"]; exists {
		b, ok := v.(bool)
		if !ok {
			return OptionSpec{}, fmt.Errorf("option '%s': accepts_list must be a boolean", key)
		}
		spec.AcceptsList = b
	}
	if v, exists := m["default"]; exists {
		spec.Default = v
		spec.HasDefault = true
	}

	var tags []string
	switch v := m["value_types"].(type) {
	case []any:
		for _, t := range v {
			s, ok := t.(string)
			if !ok {
				return OptionSpec{}, fmt.Errorf("option '%s': value_types must be strings", key)
			}
			tags = append(tags, s)
		}
	case []string:
		tags = v
	case string:
		tags = []string{v}
	case nil:
	default:
		return OptionSpec{}, fmt.Errorf("option '%s': value_types must be a list", key)
	}

	for _, tag := range tags {
		t, err := ParseType(tag)
		if err != nil {
			return OptionSpec{}, fmt.Errorf("option '%s': %w", key, err)
		}
		spec.ValueTypes = append(spec.ValueTypes, t)
	}
	return spec, nil
}

// ToMap renders the sous chef in its plain-mapping form, the inverse of ParseSousChef
func (sc *SousChef) ToMap() map[string]any {
	opts := make(map[string]any, len(sc.Options))
	for key, spec := range sc.Options {
		tags := make([]any, len(spec.ValueTypes))
		for i, t := range spec.ValueTypes {
			tags[i] = t.String()
		}
		o := map[string]any{
			"required":     spec.Required,
			"value_types":  tags,
			"accepts_list": spec.AcceptsList,
		}
		if spec.HasDefault {
			o["default"] = spec.Default
		}
		opts[key] = o
	}
	m := map[string]any{
		"slug":     sc.Slug,
		OptionsKey: opts,
	}
	if sc.Name != "" {
		m["name"] = sc.Name
	}
	if sc.Description != "" {
		m["description"] = sc.Description
	}
	return m
}

// MarshalJSON implements json.Marshaler
func (sc *SousChef) MarshalJSON() ([]byte, error) {
	return json.Marshal(sc.ToMap())
}

// UnmarshalJSON implements json.Unmarshaler
func (sc *SousChef) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	parsed, err := ParseSousChef(m)
	if err != nil {
		return err
	}
	*sc = *parsed
	return nil
}
