package materials

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrecedence(t *testing.T) {
	tiers := []Source{SourceExplicit, SourceEnv, SourceLocal, SourceMemory}

	// Every pair (stronger, weaker) must pick the stronger tier.
	for i, strong := range tiers {
		for _, weak := range tiers[i+1:] {
			strong, weak := strong, weak
			t.Run(string(strong)+" over "+string(weak), func(t *testing.T) {
				inputs := map[Source]Values{
					strong: {TeamID: "strong"},
					weak:   {TeamID: "weak"},
				}
				res := Resolve(inputs[SourceExplicit], inputs[SourceEnv], inputs[SourceLocal], inputs[SourceMemory])

				assert.Equal(t, "strong", res.Values[TeamID])
				assert.Equal(t, strong, res.Provenance[TeamID])
			})
		}
	}

	t.Run("any tier over default", func(t *testing.T) {
		for _, src := range tiers {
			inputs := map[Source]Values{src: {InternalGroupName: "QA"}}
			res := Resolve(inputs[SourceExplicit], inputs[SourceEnv], inputs[SourceLocal], inputs[SourceMemory])
			assert.Equal(t, "QA", res.Values[InternalGroupName])
			assert.Equal(t, src, res.Provenance[InternalGroupName])
		}
	})

	t.Run("empty string falls through", func(t *testing.T) {
		res := Resolve(Values{TeamID: ""}, Values{TeamID: ""}, nil, Values{TeamID: "M1"})
		assert.Equal(t, "M1", res.Values[TeamID])
		assert.Equal(t, SourceMemory, res.Provenance[TeamID])
	})
}

func TestResolveTotality(t *testing.T) {
	res := ResolveTiers(nil, nil)

	require.Len(t, res.Values, len(Fields()))
	require.Len(t, res.Provenance, len(Fields()))
	for _, f := range Fields() {
		assert.Equal(t, "", res.Values[f], f)
		assert.Equal(t, SourceMissing, res.Provenance[f], f)
	}
}

func TestResolveDefaults(t *testing.T) {
	res := Resolve(nil, nil, nil, nil)

	assert.Equal(t, "Agent Internal Testing", res.Values[InternalGroupName])
	assert.Equal(t, SourceDefault, res.Provenance[InternalGroupName])
	assert.Equal(t, "false", res.Values[AscKeyIsBase64])
	assert.Equal(t, SourceDefault, res.Provenance[AscKeyIsBase64])
	assert.Equal(t, SourceMissing, res.Provenance[AscKeyID])
	assert.Equal(t, []Field{AscKeyID, AscIssuerID, AscKeyFilepath}, res.MissingRequired())
}

func TestResolveDerivesKeyID(t *testing.T) {
	t.Run("from AuthKey file name", func(t *testing.T) {
		res := Resolve(nil, Values{AscKeyFilepath: "/keys/AuthKey_ABC123.p8"}, nil, nil)
		assert.Equal(t, "ABC123", res.Values[AscKeyID])
		assert.Equal(t, SourceDerived, res.Provenance[AscKeyID])
		assert.Equal(t, SourceEnv, res.Provenance[AscKeyFilepath])
	})

	t.Run("case insensitive", func(t *testing.T) {
		res := Resolve(nil, nil, Values{AscKeyFilepath: "/keys/authkey_x9.P8"}, nil)
		assert.Equal(t, "x9", res.Values[AscKeyID])
		assert.Equal(t, SourceDerived, res.Provenance[AscKeyID])
	})

	t.Run("other file name leaves id missing", func(t *testing.T) {
		res := Resolve(nil, nil, nil, Values{AscKeyFilepath: "/keys/other.p8"})
		assert.Equal(t, "", res.Values[AscKeyID])
		assert.Equal(t, SourceMissing, res.Provenance[AscKeyID])
	})

	t.Run("resolved id is never overwritten", func(t *testing.T) {
		res := Resolve(nil, nil, nil, Values{AscKeyID: "MEM", AscKeyFilepath: "/keys/AuthKey_ABC123.p8"})
		assert.Equal(t, "MEM", res.Values[AscKeyID])
		assert.Equal(t, SourceMemory, res.Provenance[AscKeyID])
	})
}

func TestKeyIDFromKeyFilepath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"AuthKey_ABC.p8", "ABC"},
		{"/a/b/AuthKey_Z1Y2.p8", "Z1Y2"},
		{"/a/b/AuthKey_Z1Y2.p8/", "Z1Y2"},
		{"/a/b/AuthKey_.p8", ""},
		{"/a/b/AuthKey_AB-C.p8", ""},
		{"/a/b/AuthKey_ABC.p12", ""},
		{"/a/b/xAuthKey_ABC.p8", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeyIDFromKeyFilepath(tt.path), tt.path)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	explicit := Values{TeamID: "T"}
	env := Values{AscIssuerID: "issuer"}
	local := Values{IOSWorkspace: "App.xcworkspace", TesterEmails: "dev@example.com"}
	memory := Values{AscKeyFilepath: "/k/AuthKey_K1.p8"}

	first := Resolve(explicit, env, local, memory)
	second := Resolve(explicit, env, local, memory)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("resolution not deterministic (-first +second):\n%s", diff)
	}
}

func TestResolveThroughMemoryIsIdempotent(t *testing.T) {
	explicit := Values{AscIssuerID: "issuer-1"}
	env := Values{AscKeyFilepath: "/k/AuthKey_K1.p8"}
	local := Values{IOSScheme: "App"}

	first := Resolve(explicit, env, local, nil)
	second := Resolve(explicit, env, local, first.Persistable())

	if diff := cmp.Diff(first.Values, second.Values); diff != "" {
		t.Fatalf("re-resolving through memory changed values (-first +second):\n%s", diff)
	}
}

func TestResolveTiersDoesNotMutateInputs(t *testing.T) {
	env := Values{AscKeyFilepath: "/k/AuthKey_K1.p8"}
	defaults := Defaults()

	_ = ResolveTiers([]Tier{{Source: SourceEnv, Values: env}}, defaults)

	assert.Equal(t, Values{AscKeyFilepath: "/k/AuthKey_K1.p8"}, env)
	assert.Equal(t, Defaults(), defaults)
}
