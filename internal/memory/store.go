// Package memory persists resolved release materials per project so later
// runs can fall back to them. memory.json is the source of truth; memory.md
// is a masked, regenerated view for humans.
package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/atinylittleshell/relmat/internal/materials"
	"go.uber.org/zap"
)

const (
	SchemaVersion = 1

	// TimestampLayout is ISO-8601 local time with second precision.
	TimestampLayout = "2006-01-02T15:04:05"
)

// Record is the remembered state of one project.
type Record struct {
	UpdatedAt string            `json:"updated_at"`
	Values    map[string]string `json:"values"`
}

// Store maps absolute project paths to their records.
type Store struct {
	SchemaVersion int               `json:"schema_version"`
	Projects      map[string]Record `json:"projects"`
}

// New returns an empty store.
func New() *Store {
	return &Store{
		SchemaVersion: SchemaVersion,
		Projects:      map[string]Record{},
	}
}

// Load reads the store at path. A missing file, or one that is not a JSON
// object with an object under "projects", yields an empty store; persisted
// state is never a reason to fail a run. Malformed records and non-string
// values are skipped individually so one bad entry does not hide the rest.
func Load(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Debug("error reading memory file, starting fresh", zap.String("path", path), zap.Error(err))
		}
		return New()
	}

	store, err := decodeStore(data, logger)
	if err != nil {
		logger.Debug("error parsing memory file, starting fresh", zap.String("path", path), zap.Error(err))
		return New()
	}
	return store
}

type rawStore struct {
	SchemaVersion json.RawMessage `json:"schema_version"`
	Projects      json.RawMessage `json:"projects"`
}

type rawRecord struct {
	UpdatedAt json.RawMessage            `json:"updated_at"`
	Values    map[string]json.RawMessage `json:"values"`
}

func decodeStore(data []byte, logger *zap.Logger) (*Store, error) {
	var doc rawStore
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	store := New()
	var version int
	if json.Unmarshal(doc.SchemaVersion, &version) == nil && version != 0 {
		store.SchemaVersion = version
	}

	var projects map[string]json.RawMessage
	if len(doc.Projects) > 0 {
		if err := json.Unmarshal(doc.Projects, &projects); err != nil {
			return nil, fmt.Errorf("projects is not an object: %w", err)
		}
	}

	for project, raw := range projects {
		var rec rawRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Debug("skipping malformed memory record", zap.String("project", project), zap.Error(err))
			continue
		}

		updatedAt, _ := decodeString(rec.UpdatedAt)
		record := Record{UpdatedAt: updatedAt, Values: map[string]string{}}
		for key, value := range rec.Values {
			s, ok := decodeString(value)
			if !ok {
				logger.Debug("skipping non-string memory value", zap.String("project", project), zap.String("field", key))
				continue
			}
			record.Values[key] = s
		}
		store.Projects[project] = record
	}
	return store, nil
}

// decodeString reports whether raw is a JSON string (or null).
func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", true
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	if s == nil {
		return "", true
	}
	return *s, true
}

// Save overwrites path with the whole store, creating parent directories.
func Save(path string, store *Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create memory directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(store); err != nil {
		return fmt.Errorf("failed to marshal memory: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	return nil
}

// Snapshot returns the remembered values of project, restricted to tracked
// fields with non-empty values.
func (s *Store) Snapshot(project string) materials.Values {
	record, ok := s.Projects[project]
	if !ok {
		return materials.Values{}
	}
	return materials.FromStrings(record.Values).NonEmpty()
}

// Put replaces the record of project with the non-empty tracked values. Fields
// remembered before but absent from values are dropped.
func (s *Store) Put(project string, values materials.Values, now time.Time) {
	if s.Projects == nil {
		s.Projects = map[string]Record{}
	}
	s.Projects[project] = Record{
		UpdatedAt: now.Format(TimestampLayout),
		Values:    values.NonEmpty().Strings(),
	}
}

// ProjectPaths returns the remembered project paths in sorted order.
func (s *Store) ProjectPaths() []string {
	paths := make([]string, 0, len(s.Projects))
	for p := range s.Projects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// UpdatedTime parses the record timestamp. ok is false when it is missing or
// malformed.
func (r Record) UpdatedTime() (t time.Time, ok bool) {
	t, err := time.ParseInLocation(TimestampLayout, r.UpdatedAt, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
