// Package validation turns raw, loosely typed recipe payloads into typed, defaulted,
// schedule-consistent recipe records using the option declarations of a sous chef.
//
// The engine is pure: it performs no I/O, never mutates its inputs, and keeps no
// state between calls, so a single Engine may be shared by any number of goroutines.
package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/newslynx/recipes/internal/schema"
)

// SlugGenerator returns a fresh recipe slug for the given sous chef slug
type SlugGenerator func(sousChef string) string

// Engine validates and updates recipes
type Engine struct {
	tables     *schema.Tables
	validators *Validators
	slugs      SlugGenerator
}

// Option configures an Engine
type Option func(*Engine)

// WithTables replaces the token and field tables
func WithTables(t *schema.Tables) Option {
	return func(e *Engine) {
		e.tables = t
	}
}

// WithSlugGenerator replaces the generator used for recipes without a slug
func WithSlugGenerator(fn SlugGenerator) Option {
	return func(e *Engine) {
		e.slugs = fn
	}
}

// NewEngine creates a validation engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		tables: schema.DefaultTables(),
		slugs:  DefaultSlug,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.validators = NewValidators(e.tables)
	return e
}

// DefaultSlug joins the sous chef slug with a short random suffix
func DefaultSlug(sousChef string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%s", sousChef, suffix)
}

var defaultEngine = NewEngine()

// Validate validates a raw recipe with the default engine
func Validate(raw schema.Record, sc *schema.SousChef) (schema.Record, error) {
	return defaultEngine.Validate(raw, sc)
}

// Update merges a partial recipe over an existing one with the default engine
func Update(old any, partial schema.Record, sc *schema.SousChef) (schema.Record, error) {
	return defaultEngine.Update(old, partial, sc)
}

// Format runs only the formatting stage with the default engine
func Format(raw schema.Record, sc *schema.SousChef) (schema.Record, FormatReport, error) {
	return defaultEngine.Format(raw, sc)
}

// Validators exposes the engine's single-type validators
func (e *Engine) Validators() *Validators {
	return e.validators
}

// Format returns a formatted copy of raw: internal fields removed, built-in fields at
// the top level, custom options under "options", undeclared options discarded.
func (e *Engine) Format(raw schema.Record, sc *schema.SousChef) (schema.Record, FormatReport, error) {
	if sc == nil {
		return nil, FormatReport{}, NewSchemaError("A recipe cannot be validated without a SousChef.")
	}
	recipe := CloneRecord(raw)
	report, err := format(recipe, sc, e.tables)
	if err != nil {
		return nil, report, err
	}
	return recipe, report, nil
}

// Validate formats raw, resolves every built-in and custom option, checks the
// schedule, and returns a new validated record. raw is not modified.
func (e *Engine) Validate(raw schema.Record, sc *schema.SousChef) (schema.Record, error) {
	recipe, _, err := e.Format(raw, sc)
	if err != nil {
		return nil, err
	}

	rs := &recipeSchema{
		recipe:     recipe,
		sousChef:   sc,
		tables:     e.tables,
		validators: e.validators,
		mode:       schema.ModeOf(recipe),
	}

	for _, key := range e.tables.DefaultFields {
		if key == "slug" && recipe[key] == nil {
			recipe[key] = e.slugs(sc.Slug)
			continue
		}
		v, err := rs.resolveOption(key, true)
		if err != nil {
			return nil, err
		}
		recipe[key] = v
	}

	opts := rs.options()
	for _, key := range sc.CustomKeys(e.tables) {
		v, err := rs.resolveOption(key, false)
		if err != nil {
			return nil, err
		}
		opts[key] = v
	}

	if err := rs.validateSchedule(); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Update applies a partial recipe to a previously validated one and re-validates the
// result. old may be a plain record or any Recorder. Nested mappings such as
// "options" are merged key by key; other values in partial replace those in old.
func (e *Engine) Update(old any, partial schema.Record, sc *schema.SousChef) (schema.Record, error) {
	base, err := toRecord(old)
	if err != nil {
		return nil, err
	}

	patch, _, err := e.Format(partial, sc)
	if err != nil {
		return nil, err
	}

	return e.Validate(Merge(base, patch), sc)
}
