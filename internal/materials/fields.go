// Package materials defines the release-material fields tracked for an iOS
// internal distribution and the cascade that resolves them.
package materials

import "github.com/samber/lo"

// Field names one tracked release-material key. Field values double as the
// environment variable and export names.
type Field string

const (
	AscKeyID          Field = "ASC_KEY_ID"
	AscIssuerID       Field = "ASC_ISSUER_ID"
	AscKeyFilepath    Field = "ASC_KEY_FILEPATH"
	AscKeyIsBase64    Field = "ASC_KEY_IS_BASE64"
	TesterEmails      Field = "TESTER_EMAILS"
	InternalGroupName Field = "INTERNAL_GROUP_NAME"
	IOSWorkspace      Field = "IOS_WORKSPACE"
	IOSScheme         Field = "IOS_SCHEME"
	IOSAppIdentifier  Field = "IOS_APP_IDENTIFIER"
	XcodeprojPath     Field = "XCODEPROJ_PATH"
	AppleID           Field = "APPLE_ID"
	TeamID            Field = "TEAM_ID"
)

// fieldOrder is the fixed resolution and rendering order.
var fieldOrder = []Field{
	AscKeyID,
	AscIssuerID,
	AscKeyFilepath,
	AscKeyIsBase64,
	TesterEmails,
	InternalGroupName,
	IOSWorkspace,
	IOSScheme,
	IOSAppIdentifier,
	XcodeprojPath,
	AppleID,
	TeamID,
}

var requiredFields = []Field{AscKeyID, AscIssuerID, AscKeyFilepath}

var sensitiveFields = map[Field]struct{}{
	AscKeyID:       {},
	AscIssuerID:    {},
	AscKeyFilepath: {},
	TesterEmails:   {},
	AppleID:        {},
}

var builtinDefaults = Values{
	InternalGroupName: "Agent Internal Testing",
	AscKeyIsBase64:    "false",
}

// Fields returns the tracked fields in resolution order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// Defaults returns a copy of the built-in default table.
func Defaults() Values {
	return builtinDefaults.Clone()
}

// ParseField reports whether name is a tracked field.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	return f, lo.Contains(fieldOrder, f)
}

// FieldNames returns the tracked field names as strings, in order.
func FieldNames() []string {
	return lo.Map(fieldOrder, func(f Field, _ int) string { return string(f) })
}

// IsSensitive reports whether values of f must be masked before display.
func (f Field) IsSensitive() bool {
	_, ok := sensitiveFields[f]
	return ok
}

// IsRequired reports whether f belongs to the required subset.
func (f Field) IsRequired() bool {
	return lo.Contains(requiredFields, f)
}

func (f Field) String() string {
	return string(f)
}

// Values maps fields to raw string values. Absent keys and empty strings both
// mean "not supplied".
type Values map[Field]string

// Get returns the value for f, or "" when absent.
func (v Values) Get(f Field) string {
	if v == nil {
		return ""
	}
	return v[f]
}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// NonEmpty returns the tracked entries with non-empty values.
func (v Values) NonEmpty() Values {
	return lo.PickBy(v, func(f Field, val string) bool {
		_, known := ParseField(string(f))
		return known && val != ""
	})
}

// FromStrings converts a string map into Values, keeping tracked fields only.
func FromStrings(in map[string]string) Values {
	out := make(Values, len(in))
	for k, val := range in {
		if f, ok := ParseField(k); ok {
			out[f] = val
		}
	}
	return out
}

// Strings converts v into a plain string map.
func (v Values) Strings() map[string]string {
	return lo.MapKeys(v, func(_ string, f Field) string { return string(f) })
}
