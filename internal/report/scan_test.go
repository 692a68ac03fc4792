package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/atinylittleshell/relmat/internal/materials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteScan(t *testing.T) {
	t.Run("lists missing required fields", func(t *testing.T) {
		var buf bytes.Buffer
		res := materials.Resolve(nil, nil, nil, nil)

		require.NoError(t, WriteScan(&buf, "/p", res))
		out := buf.String()

		assert.Contains(t, out, "# Materials Scan\n- project_root: `/p`\n")
		assert.Contains(t, out, "| `ASC_KEY_ID` | MISSING | `` | `missing` |")
		assert.Contains(t, out, "| `INTERNAL_GROUP_NAME` | OK | `Agent Internal Testing` | `default` |")
		assert.Contains(t, out, "## Missing required fields\n- ASC_KEY_ID\n- ASC_ISSUER_ID\n- ASC_KEY_FILEPATH\n")
	})

	t.Run("masks sensitive values", func(t *testing.T) {
		var buf bytes.Buffer
		res := materials.Resolve(materials.Values{
			materials.AscIssuerID:    "69a6de7f-47e3-47e3",
			materials.AscKeyFilepath: "/keys/AuthKey_ABC123XYZ.p8",
		}, nil, nil, nil)

		require.NoError(t, WriteScan(&buf, "/p", res))
		out := buf.String()

		assert.Contains(t, out, "| `ASC_KEY_ID` | OK | `AB***YZ` | `derived_from_key_filepath` |")
		assert.Contains(t, out, "| `ASC_ISSUER_ID` | OK | `69***e3` | `explicit` |")
		assert.Contains(t, out, "| `ASC_KEY_FILEPATH` | OK | `/keys/***C123XYZ.p8` | `explicit` |")
		assert.NotContains(t, out, "69a6de7f")
		assert.Contains(t, out, "## Missing required fields\n- none\n")
	})

	t.Run("rows follow field order", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteScan(&buf, "/p", materials.Resolve(nil, nil, nil, nil)))

		last := -1
		for _, f := range materials.Fields() {
			idx := strings.Index(buf.String(), "| `"+string(f)+"` |")
			require.Greater(t, idx, last, f)
			last = idx
		}
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	res := materials.Resolve(nil, materials.Values{materials.AscKeyID: "ABCDEFGH"}, nil, nil)

	require.NoError(t, WriteJSON(&buf, res))

	var decoded struct {
		Resolved   map[string]string `json:"resolved"`
		Provenance map[string]string `json:"provenance"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ABCDEFGH", decoded.Resolved["ASC_KEY_ID"])
	assert.Equal(t, "env", decoded.Provenance["ASC_KEY_ID"])
	assert.Equal(t, "missing", decoded.Provenance["TEAM_ID"])
	assert.Len(t, decoded.Resolved, len(materials.Fields()))
	assert.Len(t, decoded.Provenance, len(materials.Fields()))
}

func TestWriteExports(t *testing.T) {
	var buf bytes.Buffer
	res := materials.Resolve(materials.Values{
		materials.IOSScheme: `My "App"`,
		materials.AscKeyID:  "ABCDEFGH",
	}, nil, nil, nil)

	require.NoError(t, WriteExports(&buf, res))

	assert.Equal(t, strings.Join([]string{
		`export ASC_KEY_ID="ABCDEFGH"`,
		`export ASC_KEY_IS_BASE64="false"`,
		`export INTERNAL_GROUP_NAME="Agent Internal Testing"`,
		`export IOS_SCHEME="My \"App\""`,
	}, "\n")+"\n", buf.String())
}
