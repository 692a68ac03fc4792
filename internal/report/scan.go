package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atinylittleshell/relmat/internal/materials"
)

const (
	StatusOK      = "OK"
	StatusMissing = "MISSING"
)

// WriteScan renders the masked markdown scan table for one project, followed
// by the list of missing required fields.
func WriteScan(w io.Writer, projectRoot string, res materials.Resolution) error {
	var b strings.Builder

	b.WriteString("# Materials Scan\n")
	fmt.Fprintf(&b, "- project_root: `%s`\n\n", projectRoot)
	b.WriteString("| Field | Status | Value (masked) | Source |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, f := range materials.Fields() {
		value := res.Values.Get(f)
		status := StatusOK
		if value == "" {
			status = StatusMissing
		}
		fmt.Fprintf(&b, "| `%s` | %s | `%s` | `%s` |\n", f, status, Mask(f, value), res.Provenance[f])
	}

	b.WriteString("\n## Missing required fields\n")
	missing := res.MissingRequired()
	if len(missing) == 0 {
		b.WriteString("- none\n")
	}
	for _, f := range missing {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type jsonReport struct {
	Resolved   map[string]string `json:"resolved"`
	Provenance map[string]string `json:"provenance"`
}

// WriteJSON writes the raw, unmasked resolution and its provenance.
func WriteJSON(w io.Writer, res materials.Resolution) error {
	out := jsonReport{
		Resolved:   make(map[string]string, len(res.Values)),
		Provenance: make(map[string]string, len(res.Provenance)),
	}
	for _, f := range materials.Fields() {
		out.Resolved[string(f)] = res.Values.Get(f)
		out.Provenance[string(f)] = string(res.Provenance[f])
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode resolution: %w", err)
	}
	return nil
}

// WriteExports writes one shell export line per resolved field. Values are
// raw; only double quotes are escaped.
func WriteExports(w io.Writer, res materials.Resolution) error {
	for _, f := range materials.Fields() {
		value := res.Values.Get(f)
		if value == "" {
			continue
		}
		safe := strings.ReplaceAll(value, `"`, `\"`)
		if _, err := fmt.Fprintf(w, "export %s=\"%s\"\n", f, safe); err != nil {
			return err
		}
	}
	return nil
}
