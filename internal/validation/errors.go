package validation

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaError is the only failure the recipe validation engine reports
type SchemaError struct {
	Message string `json:"message"`
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return e.Message
}

// MarshalJSON implements json.Marshaler for API responses
func (e *SchemaError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{
		Error:   "recipe_schema_error",
		Message: e.Message,
	})
}

// NewSchemaError creates a SchemaError from a format string
func NewSchemaError(format string, args ...any) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf(format, args...)}
}

// IsSchemaError reports whether err is, or wraps, a SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// Result is the outcome of a single-type validator: a value or an error, never both
type Result struct {
	Value any
	Err   *SchemaError
}

// OK reports whether the validator succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

func ok(v any) Result {
	return Result{Value: v}
}

func fail(format string, args ...any) Result {
	return Result{Err: NewSchemaError(format, args...)}
}
