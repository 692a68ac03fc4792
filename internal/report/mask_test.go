package report

import (
	"strings"
	"testing"

	"github.com/atinylittleshell/relmat/internal/materials"
	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name  string
		field materials.Field
		value string
		want  string
	}{
		{"empty sensitive", materials.AscKeyID, "", ""},
		{"non sensitive", materials.IOSScheme, "MyApp", "MyApp"},
		{"short value", materials.AscKeyID, "ABC123", "***"},
		{"long value", materials.AscIssuerID, "69a6de7f-47e3", "69***e3"},
		{"email", materials.TesterEmails, "alice@example.com", "al***@example.com"},
		{"email short local part", materials.AppleID, "a@example.com", "***@example.com"},
		{"email list masks every address", materials.TesterEmails, "alice@x.com,bob@y.com", "al***@x.com,bo***@y.com"},
		{"email list trims and keeps empty slots masked", materials.TesterEmails, "alice@x.com, bob@y.com,", "al***@x.com,bo***@y.com,***"},
		{"email list with a bare name", materials.TesterEmails, "alice@x.com,qa-team-lead", "al***@x.com,qa***ad"},
		{"key file long name", materials.AscKeyFilepath, "/keys/AuthKey_ABC123XYZ.p8", "/keys/***C123XYZ.p8"},
		{"key file short name", materials.AscKeyFilepath, "/keys/k.p8", "/keys/***k.p8"},
		{"key file bare name", materials.AscKeyFilepath, "AuthKey_ABC123XYZ.p8", "***C123XYZ.p8"},
		{"key file root", materials.AscKeyFilepath, "/", "***"},
		{"key file trailing slash", materials.AscKeyFilepath, "/keys/dir/", "/keys/***dir"},
		{"unicode counted by code point", materials.AscIssuerID, "ééééééé", "éé***éé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.field, tt.value))
		})
	}
}

func TestMaskNeverLeaksFullValue(t *testing.T) {
	values := []string{
		"ABCDEFGHIJKL",
		"69a6de7f-47e3-47e3-e053-5b8c7c11a4d1",
		"ab@example.com",
		"tester.one@example.com,tester.two@example.com",
		"tester.two@example.com",
		"/Users/dev/keys/AuthKey_ABC123XYZ.p8",
		"/k/AuthKey_A.p8",
	}
	for _, f := range materials.Fields() {
		if !f.IsSensitive() {
			continue
		}
		for _, v := range values {
			masked := Mask(f, v)
			assert.False(t, strings.Contains(masked, v), "%s: %q leaked in %q", f, v, masked)
		}
	}
}

func TestMaskValues(t *testing.T) {
	got := MaskValues(materials.Values{
		materials.AscKeyID: "ABCDEFGH",
		materials.TeamID:   "TEAM1",
	})
	assert.Equal(t, map[string]string{"ASC_KEY_ID": "AB***GH", "TEAM_ID": "TEAM1"}, got)
}

func TestMaskEmailListHidesEveryLocalPart(t *testing.T) {
	masked := Mask(materials.TesterEmails, "alice@x.com,bob@y.com,carol@z.com")
	for _, addr := range []string{"alice@", "bob@", "carol@"} {
		assert.NotContains(t, masked, addr)
	}
}
