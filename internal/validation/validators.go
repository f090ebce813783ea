package validation

import (
	"encoding/json"
	"math"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/newslynx/recipes/internal/schema"
	"github.com/newslynx/recipes/internal/search"
)

// Validator checks a raw value against a single type and returns its typed form
type Validator func(key string, raw any) Result

// Validators maps every schema type to its validator. Each validator passes values
// that are already of its canonical Go type through unchanged, so validating a
// validated recipe is a no-op.
type Validators struct {
	tables *schema.Tables
	byType map[schema.Type]Validator
}

// NewValidators builds the validator set for the given tables
func NewValidators(tables *schema.Tables) *Validators {
	v := &Validators{tables: tables}
	v.byType = map[schema.Type]Validator{
		schema.TypeEmail:        v.Email,
		schema.TypeURL:          v.URL,
		schema.TypeSearchString: v.SearchString,
		schema.TypeDateTime:     v.DateTime,
		schema.TypeRegex:        v.Regex,
		schema.TypeNumeric:      v.Numeric,
		schema.TypeBoolean:      v.Boolean,
		schema.TypeString:       v.String,
		schema.TypeNull:         v.Null,
	}
	return v
}

// For returns the validator for t
func (v *Validators) For(t schema.Type) (Validator, bool) {
	fn, ok := v.byType[t]
	return fn, ok
}

// Null accepts nil and the null tokens ("none", "null", "na", ...)
func (v *Validators) Null(key string, raw any) Result {
	if raw == nil {
		return ok(nil)
	}
	if s, isStr := raw.(string); isStr && schema.Has(v.tables.NullTokens, strings.ToLower(strings.TrimSpace(s))) {
		return ok(nil)
	}
	return fail("%s can be a 'nulltype' field but was passed '%s'.", key, display(raw))
}

// DateTime parses ISO-8601-like date and time strings
func (v *Validators) DateTime(key string, raw any) Result {
	switch val := raw.(type) {
	case time.Time:
		return ok(val)
	case string:
		if t, err := cast.ToTimeE(strings.TrimSpace(val)); err == nil {
			return ok(t)
		}
	}
	return fail("%s can be a 'datetime' field but was passed '%s'.", key, display(raw))
}

// SearchString parses a boolean search expression
func (v *Validators) SearchString(key string, raw any) Result {
	switch val := raw.(type) {
	case *search.Query:
		return ok(val)
	case string:
		q, err := search.Parse(val)
		if err != nil {
			return fail("%s can be a 'searchstring' field but was passed '%s'. Here is the specific error: %s.", key, val, err.Error())
		}
		return ok(q)
	}
	return fail("%s can be a 'searchstring' field but was passed '%s'. Here is the specific error: not a string.", key, display(raw))
}

// Boolean matches the true and false token sets, ignoring case
func (v *Validators) Boolean(key string, raw any) Result {
	if b, isBool := raw.(bool); isBool {
		return ok(b)
	}
	if raw != nil {
		if s, err := cast.ToStringE(raw); err == nil {
			token := strings.ToLower(strings.TrimSpace(s))
			if schema.Has(v.tables.TrueTokens, token) {
				return ok(true)
			}
			if schema.Has(v.tables.FalseTokens, token) {
				return ok(false)
			}
		}
	}
	return fail("%s is a 'boolean' field but was passed '%s'.", key, display(raw))
}

// Numeric accepts Go numbers as-is and parses decimal integers or floats from text
func (v *Validators) Numeric(key string, raw any) Result {
	switch val := raw.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return ok(val)
	case json.Number:
		return parseNumber(key, val.String())
	case string:
		return parseNumber(key, val)
	}
	return fail("%s is a 'numeric' field but was passed '%s'.", key, display(raw))
}

func parseNumber(key, s string) Result {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ok(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return ok(f)
	}
	return fail("%s is a 'numeric' field but was passed '%s'.", key, s)
}

// String coerces scalars to text
func (v *Validators) String(key string, raw any) Result {
	if raw != nil {
		if s, err := cast.ToStringE(raw); err == nil {
			return ok(s)
		}
	}
	return fail("%s can be a 'string' field but was passed '%s'.", key, display(raw))
}

// URL accepts absolute URLs with a scheme and host
func (v *Validators) URL(key string, raw any) Result {
	s, isStr := raw.(string)
	if isStr && strings.TrimSpace(s) != "" {
		if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
			return ok(s)
		}
	}
	return fail("%s can be a 'url' field but was passed '%s'.", key, display(raw))
}

// Email accepts a bare address whose domain contains a dot
func (v *Validators) Email(key string, raw any) Result {
	s, isStr := raw.(string)
	if isStr {
		addr, err := mail.ParseAddress(s)
		if err == nil && addr.Name == "" && addr.Address == s {
			if at := strings.LastIndex(s, "@"); at > 0 && strings.Contains(s[at+1:], ".") {
				return ok(s)
			}
		}
	}
	return fail("%s can be an 'email' field but was passed '%s'.", key, display(raw))
}

// Regex compiles the value as a regular expression
func (v *Validators) Regex(key string, raw any) Result {
	switch val := raw.(type) {
	case *regexp.Regexp:
		return ok(val)
	case string:
		if re, err := regexp.Compile(val); err == nil {
			return ok(re)
		}
	}
	return fail("%s can be a 'regex' field but was passed '%s'.", key, display(raw))
}

// display renders a raw value for error messages
func display(raw any) string {
	if raw == nil {
		return "null"
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(raw); err == nil {
			return string(b)
		}
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return rv.Type().String()
	}
	return s
}
