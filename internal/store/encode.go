package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/newslynx/recipes/internal/search"
)

// encodeOptions serializes validated options to JSON. Parsed values go back to their
// source text: datetimes as RFC 3339, regexes and search queries as written.
func encodeOptions(opts map[string]any) ([]byte, error) {
	if opts == nil {
		opts = map[string]any{}
	}
	b, err := json.Marshal(Serializable(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}
	return b, nil
}

func decodeOptions(b []byte) (map[string]any, error) {
	opts := map[string]any{}
	if len(b) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(b, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	return opts, nil
}

// OptionsHash returns the hex blake2b-256 digest of the encoded options. Two recipes
// with the same options share a hash regardless of key order.
func OptionsHash(opts map[string]any) (string, error) {
	b, err := encodeOptions(opts)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Serializable converts validated values into JSON-friendly ones. Datetimes become
// RFC 3339 strings and regexes and search queries become their source text.
func Serializable(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Serializable(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Serializable(item)
		}
		return out
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case *regexp.Regexp:
		return val.String()
	case *search.Query:
		return val.Raw
	default:
		return v
	}
}
