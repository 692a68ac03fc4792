package materials

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Source tags the cascade tier that supplied a resolved value.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceEnv      Source = "env"
	SourceLocal    Source = "local"
	SourceMemory   Source = "memory"
	SourceDefault  Source = "default"
	SourceDerived  Source = "derived_from_key_filepath"
	SourceMissing  Source = "missing"
)

// Tier is one source of truth in the precedence order.
type Tier struct {
	Source Source
	Values Values
}

// Resolution is the outcome of one cascade: a value and a provenance tag for
// every tracked field.
type Resolution struct {
	Values     Values
	Provenance map[Field]Source
}

// Resolve runs the standard cascade explicit > env > local > memory > default
// using the built-in default table.
func Resolve(explicit, env, local, memory Values) Resolution {
	return ResolveTiers(StandardTiers(explicit, env, local, memory), Defaults())
}

// StandardTiers orders the four collector outputs from strongest to weakest.
func StandardTiers(explicit, env, local, memory Values) []Tier {
	return []Tier{
		{Source: SourceExplicit, Values: explicit},
		{Source: SourceEnv, Values: env},
		{Source: SourceLocal, Values: local},
		{Source: SourceMemory, Values: memory},
	}
}

// ResolveTiers takes, for every field, the first non-empty value found while
// walking tiers from strongest to weakest, then the default, and finally runs
// the key file derivation pass. It never fails and never mutates its inputs.
func ResolveTiers(tiers []Tier, defaults Values) Resolution {
	res := Resolution{
		Values:     make(Values, len(fieldOrder)),
		Provenance: make(map[Field]Source, len(fieldOrder)),
	}

	for _, field := range fieldOrder {
		value, source := "", SourceMissing
		for _, tier := range tiers {
			if v := tier.Values.Get(field); v != "" {
				value, source = v, tier.Source
				break
			}
		}
		if source == SourceMissing {
			if v := defaults.Get(field); v != "" {
				value, source = v, SourceDefault
			}
		}
		res.Values[field] = value
		res.Provenance[field] = source
	}

	if res.Values[AscKeyID] == "" {
		if id := KeyIDFromKeyFilepath(res.Values[AscKeyFilepath]); id != "" {
			res.Values[AscKeyID] = id
			res.Provenance[AscKeyID] = SourceDerived
		}
	}

	return res
}

var authKeyPattern = regexp.MustCompile(`(?i)^AuthKey_([A-Za-z0-9]+)\.p8$`)

// KeyIDFromKeyFilepath extracts the key id from an App Store Connect key file
// named AuthKey_<ID>.p8. It returns "" when the name does not match.
func KeyIDFromKeyFilepath(keyFilepath string) string {
	if keyFilepath == "" {
		return ""
	}
	base := filepath.Base(strings.TrimRight(keyFilepath, "/"))
	m := authKeyPattern.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return m[1]
}

// MissingRequired lists the required fields left empty, in field order.
func (r Resolution) MissingRequired() []Field {
	return lo.Filter(fieldOrder, func(f Field, _ int) bool {
		return f.IsRequired() && r.Values.Get(f) == ""
	})
}

// Persistable returns the non-empty resolved values, the shape stored in a
// memory record.
func (r Resolution) Persistable() Values {
	return r.Values.NonEmpty()
}
