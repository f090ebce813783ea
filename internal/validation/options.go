package validation

import (
	"reflect"

	"github.com/newslynx/recipes/internal/schema"
)

// recipeSchema is the per-call working state of a validation. It is never shared
// between calls.
type recipeSchema struct {
	recipe     schema.Record
	sousChef   *schema.SousChef
	tables     *schema.Tables
	validators *Validators
	mode       schema.Mode
}

func (rs *recipeSchema) options() map[string]any {
	return rs.recipe[schema.OptionsKey].(map[string]any)
}

// lookup reads an option's raw value from the top level or from "options"
func (rs *recipeSchema) lookup(key string, topLevel bool) (any, bool) {
	if topLevel {
		v, ok := rs.recipe[key]
		return v, ok
	}
	v, ok := rs.options()[key]
	return v, ok
}

// resolveOption applies the missing-value rules and then type resolution to one option
func (rs *recipeSchema) resolveOption(key string, topLevel bool) (any, error) {
	spec, ok := rs.sousChef.Option(key, rs.tables)
	if !ok {
		return nil, NewSchemaError("SousChef '%s' does not declare a '%s' option.", rs.sousChef.Slug, key)
	}

	// an explicit nil counts as not supplied
	raw, present := rs.lookup(key, topLevel)
	if !present || raw == nil {
		return rs.missing(key, spec)
	}

	if items, isList := asList(raw); isList {
		if !spec.AcceptsList {
			return nil, NewSchemaError("%s does not accept multiple inputs.", key)
		}
		resolved := make([]any, 0, len(items))
		for _, item := range items {
			v, err := rs.validators.ResolveType(key, item, spec.ValueTypes)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, v)
		}
		return resolved, nil
	}

	return rs.validators.ResolveType(key, raw, spec.ValueTypes)
}

// missing decides the value of an option the payload does not supply
func (rs *recipeSchema) missing(key string, spec schema.OptionSpec) (any, error) {
	switch {
	case spec.Required && spec.HasDefault:
		return cloneValue(spec.Default), nil
	case spec.Required && rs.mode == schema.ModeDraft:
		return nil, nil
	case spec.Required:
		return nil, NewSchemaError(
			"Recipes associated with SousChef '%s' require a '%s' option.",
			rs.sousChef.Slug, key,
		)
	default:
		return cloneValue(spec.Default), nil
	}
}

// asList reports whether raw is an ordered sequence and returns its elements
func asList(raw any) ([]any, bool) {
	if items, ok := raw.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	// raw bytes are text, not a list
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
