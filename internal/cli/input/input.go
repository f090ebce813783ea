// Package input turns command-line arguments and data files into recipe and
// sous chef records.
package input

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/newslynx/recipes/internal/schema"
)

// ParseRuntimeArgs parses free-form option arguments such as
//
//	--url=http://example.com -limit="20" --enabled
//
// into a record. A flag without a value is true. Surrounding quotes are stripped and
// the value is otherwise kept verbatim for the validators to coerce.
func ParseRuntimeArgs(args []string) (schema.Record, error) {
	out := schema.Record{}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("unexpected argument %q: options look like --name=value", arg)
		}
		key, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid option %q", arg)
		}
		if !hasValue {
			out[key] = true
			continue
		}
		out[key] = unquote(value)
	}
	return out, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// LoadData reads a mapping from inline JSON or from a .json, .yaml or .yml file. An
// empty argument yields an empty record.
func LoadData(pathOrJSON string) (schema.Record, error) {
	out := schema.Record{}
	if strings.TrimSpace(pathOrJSON) == "" {
		return out, nil
	}

	if err := json.Unmarshal([]byte(pathOrJSON), &out); err == nil {
		return out, nil
	} else if !isDataFile(pathOrJSON) {
		return nil, fmt.Errorf("could not parse input data: %w", err)
	}

	b, err := os.ReadFile(expandHome(pathOrJSON))
	if err != nil {
		return nil, fmt.Errorf("could not read input data: %w", err)
	}
	// yaml is a superset of json, so one decoder serves both file types
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", pathOrJSON, err)
	}
	if raw == nil {
		return out, nil
	}
	m, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must contain a mapping", pathOrJSON)
	}
	return m, nil
}

// LoadSousChef reads a sous chef specification through LoadData
func LoadSousChef(pathOrJSON string) (*schema.SousChef, error) {
	m, err := LoadData(pathOrJSON)
	if err != nil {
		return nil, err
	}
	sc, err := schema.ParseSousChef(m)
	if err != nil {
		return nil, fmt.Errorf("invalid sous chef: %w", err)
	}
	return sc, nil
}

func isDataFile(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// normalize rewrites yaml's map[any]any nodes, produced for non-string keys, as
// map[string]any
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	}
	return v
}

// IsDataSource reports whether s names data for LoadData rather than, say, a slug:
// inline JSON or a path with a data file extension
func IsDataSource(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "{") || isDataFile(trimmed)
}
