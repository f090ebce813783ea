package validation

import (
	"fmt"
	"strings"

	"github.com/newslynx/recipes/internal/schema"
)

// ResolveType tries each declared type in precedence order and returns the value
// produced by the first validator that accepts it. When every candidate fails the
// returned SchemaError lists each failure in the order the types were tried.
func (v *Validators) ResolveType(key string, raw any, types []schema.Type) (any, error) {
	var messages []string

	for _, t := range schema.SortByPrecedence(types) {
		validate, found := v.For(t)
		if !found {
			messages = append(messages, fmt.Sprintf("%s has an unsupported type '%s'.", key, t))
			continue
		}
		res := validate(key, raw)
		if res.OK() {
			return res.Value, nil
		}
		messages = append(messages, res.Err.Message)
	}

	return nil, NewSchemaError(
		"There was a problem validating '%s'. Here are the errors: \n\t- %s",
		key, strings.Join(messages, "\n\t- "),
	)
}
