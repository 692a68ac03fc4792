package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinylittleshell/relmat/internal/materials"
	"github.com/atinylittleshell/relmat/internal/report"
)

// HumanViewName is the file name of the rendered view, written next to the
// JSON store.
const HumanViewName = "memory.md"

// HumanViewPath returns the sibling markdown path for a JSON store path.
func HumanViewPath(storePath string) string {
	return filepath.Join(filepath.Dir(storePath), HumanViewName)
}

// RenderHumanView regenerates the masked markdown view of store next to
// storePath. The view is never read back.
func RenderHumanView(storePath string, store *Store) error {
	content := HumanView(filepath.Base(storePath), store)
	if err := os.WriteFile(HumanViewPath(storePath), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write memory view: %w", err)
	}
	return nil
}

// HumanView renders store as markdown, one section per project, with every
// sensitive value masked.
func HumanView(storeName string, store *Store) string {
	lines := []string{
		"# iOS TestFlight Remote Release Memory",
		"",
		fmt.Sprintf("> Human-readable view only; `%s` is the source of truth for reads and writes.", storeName),
		"",
	}

	if len(store.Projects) == 0 {
		lines = append(lines,
			"## Recent projects",
			"",
			"No records yet. Run `relmat resolve --write-memory` to create one.",
			"",
		)
		return strings.Join(lines, "\n")
	}

	for _, project := range store.ProjectPaths() {
		record := store.Projects[project]
		lines = append(lines,
			fmt.Sprintf("## Project: `%s`", project),
			"",
			fmt.Sprintf("- updated_at: `%s`", record.UpdatedAt),
		)
		for _, f := range materials.Fields() {
			if v := record.Values[string(f)]; v != "" {
				lines = append(lines, fmt.Sprintf("- %s: `%s`", f, report.Mask(f, v)))
			}
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
