package validation

import (
	"reflect"
	"sort"

	"github.com/newslynx/recipes/internal/schema"
)

// FormatReport lists what the formatter discarded from a payload
type FormatReport struct {
	// Removed holds internal fields the caller is not allowed to set
	Removed []string
	// Dropped holds option keys the sous chef does not declare
	Dropped []string
}

// format rearranges a working copy in place so built-in fields sit at the top level
// and custom options sit under "options". Options the sous chef does not declare are
// discarded rather than rejected.
func format(recipe schema.Record, sc *schema.SousChef, tables *schema.Tables) (FormatReport, error) {
	var report FormatReport

	opts, err := optionsOf(recipe)
	if err != nil {
		return report, err
	}
	recipe[schema.OptionsKey] = opts

	for key := range recipe {
		if tables.IsRemoveField(key) {
			delete(recipe, key)
			report.Removed = append(report.Removed, key)
		}
	}

	for key, val := range opts {
		if tables.IsDefaultField(key) {
			recipe[key] = val
			delete(opts, key)
		}
	}

	for key, val := range recipe {
		if key == schema.OptionsKey || tables.IsDefaultField(key) || tables.IsInternalField(key) {
			continue
		}
		opts[key] = val
		delete(recipe, key)
	}

	for key := range opts {
		if !sc.Declares(key) {
			delete(opts, key)
			report.Dropped = append(report.Dropped, key)
		}
	}

	sort.Strings(report.Removed)
	sort.Strings(report.Dropped)
	return report, nil
}

// optionsOf returns the record's options mapping as map[string]any, creating it when
// absent or null
func optionsOf(recipe schema.Record) (map[string]any, error) {
	raw, exists := recipe[schema.OptionsKey]
	if !exists || raw == nil {
		return map[string]any{}, nil
	}
	if m, isMap := raw.(map[string]any); isMap {
		return m, nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return m, nil
	}
	return nil, NewSchemaError("A recipe's 'options' must be a mapping but was passed '%s'.", display(raw))
}
