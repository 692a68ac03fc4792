// Package collect gathers candidate release-material values from the sources
// the resolution cascade consults: explicit overrides, the process
// environment, and the project directory itself.
package collect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atinylittleshell/relmat/internal/materials"
	"github.com/sahilm/fuzzy"
)

// ErrMalformedOverride is returned for an override that is not KEY=VALUE or
// has an empty key.
var ErrMalformedOverride = errors.New("malformed override")

// Overrides holds the parsed explicit KEY=VALUE pairs. Keys outside the
// tracked field set are kept in Unknown and never reach the cascade.
type Overrides struct {
	Values  materials.Values
	Unknown []string
}

// ParseOverrides parses repeated KEY=VALUE pairs. Keys and values are trimmed;
// a later pair for the same key wins.
func ParseOverrides(pairs []string) (Overrides, error) {
	out := Overrides{Values: materials.Values{}}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Overrides{}, fmt.Errorf("%w: expected KEY=VALUE, got %q", ErrMalformedOverride, pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return Overrides{}, fmt.Errorf("%w: empty key in %q", ErrMalformedOverride, pair)
		}

		field, known := materials.ParseField(key)
		if !known {
			out.Unknown = append(out.Unknown, key)
			continue
		}
		out.Values[field] = strings.TrimSpace(value)
	}
	return out, nil
}

// SuggestField returns the tracked field name closest to name, or "" when
// nothing is close enough.
func SuggestField(name string) string {
	matches := fuzzy.Find(strings.ToUpper(name), materials.FieldNames())
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

// FromEnv reads every tracked field from the environment through lookup,
// typically os.Getenv. Empty values are omitted.
func FromEnv(lookup func(string) string) materials.Values {
	out := materials.Values{}
	for _, f := range materials.Fields() {
		if v := lookup(string(f)); v != "" {
			out[f] = v
		}
	}
	return out
}
