// Package report renders resolved release materials for humans and scripts.
// The scan table masks sensitive values; the JSON and export channels are raw
// and meant for callers that already hold the secrets.
package report

import (
	"path/filepath"
	"strings"

	"github.com/atinylittleshell/relmat/internal/materials"
)

const (
	maskToken         = "***"
	keyFileTailLength = 10
	shortValueLength  = 6
	keepEdgeLength    = 2
)

// Mask redacts value for display when field is sensitive. Lengths are counted
// in code points.
func Mask(field materials.Field, value string) string {
	if value == "" {
		return ""
	}
	if !field.IsSensitive() {
		return value
	}
	if field == materials.AscKeyFilepath {
		return maskKeyFilepath(value)
	}
	if strings.Contains(value, "@") {
		// tester lists are comma separated; each address is masked on its own
		parts := strings.Split(value, ",")
		for i, part := range parts {
			parts[i] = maskToken
			if part = strings.TrimSpace(part); part != "" {
				parts[i] = maskAddress(part)
			}
		}
		return strings.Join(parts, ",")
	}
	return maskOpaque(value)
}

func maskAddress(value string) string {
	name, domain, ok := strings.Cut(value, "@")
	if !ok {
		return maskOpaque(value)
	}
	local := []rune(name)
	if len(local) < keepEdgeLength {
		return maskToken + "@" + domain
	}
	return string(local[:keepEdgeLength]) + maskToken + "@" + domain
}

func maskOpaque(value string) string {
	r := []rune(value)
	if len(r) <= shortValueLength {
		return maskToken
	}
	return string(r[:keepEdgeLength]) + maskToken + string(r[len(r)-keepEdgeLength:])
}

// maskKeyFilepath keeps the directory and the tail of the file name so a
// long key file stays recognisable without revealing its start.
func maskKeyFilepath(value string) string {
	trimmed := value
	if strings.Trim(trimmed, "/") != "" {
		trimmed = strings.TrimRight(trimmed, "/")
	}
	name := filepath.Base(trimmed)
	if name == "/" || name == "." || name == "" {
		return maskToken
	}

	r := []rune(name)
	if len(r) > keyFileTailLength {
		r = r[len(r)-keyFileTailLength:]
	}
	return filepath.Join(filepath.Dir(trimmed), maskToken+string(r))
}

// MaskValues masks every entry of v.
func MaskValues(v materials.Values) map[string]string {
	out := make(map[string]string, len(v))
	for f, val := range v {
		out[string(f)] = Mask(f, val)
	}
	return out
}
