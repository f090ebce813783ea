// Package schema provides the data model shared by the recipe validation engine and
// its collaborators: option value types, sous chef specifications, recipe records,
// and the fixed lookup tables used during validation.
package schema

import (
	"fmt"
	"sort"
)

// Type represents one of the semantic value types a sous chef option may accept
type Type int

// The declaration order is the resolution precedence: narrow grammars first,
// near-universal types last.
const (
	TypeEmail Type = iota
	TypeURL
	TypeSearchString
	TypeDateTime
	TypeRegex
	TypeNumeric
	TypeBoolean
	TypeString
	TypeNull
)

// AllTypes lists every type in precedence order
var AllTypes = []Type{
	TypeEmail,
	TypeURL,
	TypeSearchString,
	TypeDateTime,
	TypeRegex,
	TypeNumeric,
	TypeBoolean,
	TypeString,
	TypeNull,
}

// String returns the wire tag of the type
func (t Type) String() string {
	switch t {
	case TypeEmail:
		return "email"
	case TypeURL:
		return "url"
	case TypeSearchString:
		return "searchstring"
	case TypeDateTime:
		return "datetime"
	case TypeRegex:
		return "regex"
	case TypeNumeric:
		return "numeric"
	case TypeBoolean:
		return "boolean"
	case TypeString:
		return "string"
	case TypeNull:
		return "nulltype"
	default:
		return "unknown"
	}
}

// Precedence returns the rank used to order multi-type resolution (0 is tried first)
func (t Type) Precedence() int {
	return int(t)
}

// ParseType converts a wire tag to a Type
func ParseType(s string) (Type, error) {
	switch s {
	case "email":
		return TypeEmail, nil
	case "url":
		return TypeURL, nil
	case "searchstring":
		return TypeSearchString, nil
	case "datetime":
		return TypeDateTime, nil
	case "regex":
		return TypeRegex, nil
	case "numeric":
		return TypeNumeric, nil
	case "boolean":
		return TypeBoolean, nil
	case "string":
		return TypeString, nil
	case "nulltype":
		return TypeNull, nil
	default:
		return 0, fmt.Errorf("unknown value type: %s", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (t Type) MarshalText() ([]byte, error) {
	if t < TypeEmail || t > TypeNull {
		return nil, fmt.Errorf("unknown value type: %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SortByPrecedence returns a copy of types ordered by precedence. The input is not modified.
func SortByPrecedence(types []Type) []Type {
	sorted := make([]Type, len(types))
	copy(sorted, types)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Precedence() < sorted[j].Precedence()
	})
	return sorted
}

// OptionSpec declares how a single recipe option is resolved
type OptionSpec struct {
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	HasDefault  bool   `json:"-"`
	ValueTypes  []Type `json:"value_types"`
	AcceptsList bool   `json:"accepts_list"`
}

// Mode is the validation strictness derived from a recipe's status
type Mode int

const (
	// ModeFinal enforces required options
	ModeFinal Mode = iota
	// ModeDraft tolerates missing required options
	ModeDraft
)

// StatusUninitialized marks a draft recipe
const StatusUninitialized = "uninitialized"

// String returns the mode name
func (m Mode) String() string {
	if m == ModeDraft {
		return "draft"
	}
	return "final"
}

// Record is a plain recipe mapping, raw or validated
type Record = map[string]any

// ModeOf reads the validation mode from a record's status field
func ModeOf(r Record) Mode {
	if status, ok := r["status"].(string); ok && status == StatusUninitialized {
		return ModeDraft
	}
	return ModeFinal
}
