package validation

import (
	"reflect"

	"github.com/newslynx/recipes/internal/schema"
)

// Recorder is implemented by persisted recipe types that can project themselves into
// a plain record for re-validation.
type Recorder interface {
	ToRecord() schema.Record
}

// CloneRecord deep-copies a record so callers' maps are never mutated
func CloneRecord(r schema.Record) schema.Record {
	if r == nil {
		return schema.Record{}
	}
	return cloneValue(r).(schema.Record)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := cloneValue(rv.Index(i).Interface())
			if item == nil {
				continue
			}
			out.Index(i).Set(reflect.ValueOf(item))
		}
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item := cloneValue(iter.Value().Interface())
			if item == nil {
				out.SetMapIndex(iter.Key(), reflect.Zero(rv.Type().Elem()))
				continue
			}
			out.SetMapIndex(iter.Key(), reflect.ValueOf(item))
		}
		return out.Interface()
	}

	// scalars, time.Time and the immutable parsed types (*regexp.Regexp,
	// *search.Query) are shared
	return v
}

// toRecord projects an old recipe into a plain, private record
func toRecord(old any) (schema.Record, error) {
	switch val := old.(type) {
	case nil:
		return schema.Record{}, nil
	case Recorder:
		return CloneRecord(val.ToRecord()), nil
	case map[string]any:
		return CloneRecord(val), nil
	}
	return nil, NewSchemaError("cannot update a recipe of type %T", old)
}

// Merge deep-merges patch over base and returns a new record. Nested mappings merge
// key by key; any other value in patch overwrites the one in base.
func Merge(base, patch schema.Record) schema.Record {
	out := CloneRecord(base)
	for k, pv := range patch {
		bm, baseIsMap := out[k].(map[string]any)
		pm, patchIsMap := pv.(map[string]any)
		if baseIsMap && patchIsMap {
			out[k] = Merge(bm, pm)
			continue
		}
		out[k] = cloneValue(pv)
	}
	return out
}
