package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// currentSchemaVersion is the document's on-disk schema version. Bumping
// it requires a case in migrateDocument.
const currentSchemaVersion = 1

type documentV1 struct {
	Version   int                 `json:"version"`
	Templates []persistedTemplate `json:"templates"`
}

type persistedTemplate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Formula     string `json:"formula"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// loadDocument reads the library document at path. A missing file is not
// an error: it means this is the first access and the library starts
// empty. A malformed document is read best-effort: templates with an
// empty ID or Name are dropped (with a warning), and a totally
// unparseable document degrades to an empty library rather than
// propagating the error, per §4.6's "unreadable fields are dropped with a
// warning to the host".
func loadDocument(path string) ([]FormulaTemplate, []string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var doc documentV1
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, []string{fmt.Sprintf("library: document at %s is not valid JSON, starting empty: %v", path, err)}, nil
	}

	if doc.Version != currentSchemaVersion {
		doc = migrateDocument(doc)
	}

	var warnings []string
	templates := make([]FormulaTemplate, 0, len(doc.Templates))
	for i, pt := range doc.Templates {
		if pt.ID == "" || pt.Name == "" || pt.Formula == "" {
			warnings = append(warnings, fmt.Sprintf("library: dropping template at index %d, missing id/name/formula", i))
			continue
		}
		templates = append(templates, FormulaTemplate{
			ID:          pt.ID,
			Name:        pt.Name,
			Formula:     pt.Formula,
			Unit:        pt.Unit,
			Description: pt.Description,
		})
	}
	return templates, warnings, nil
}

// migrateDocument best-effort upgrades an older document to
// currentSchemaVersion. There is only one schema version today; this is
// the seam a future version bump hangs off.
func migrateDocument(doc documentV1) documentV1 {
	doc.Version = currentSchemaVersion
	return doc
}

// saveDocument atomically rewrites the library document: write to a
// temp file in the same directory, fsync, then rename over the target.
// A failure at any step before the rename leaves the previous document
// on disk untouched, per §4.6/§7's atomic-persistence guarantee.
func saveDocument(path string, templates []FormulaTemplate) error {
	doc := documentV1{
		Version:   currentSchemaVersion,
		Templates: make([]persistedTemplate, 0, len(templates)),
	}
	for _, t := range templates {
		doc.Templates = append(doc.Templates, persistedTemplate{
			ID:          t.ID,
			Name:        t.Name,
			Formula:     t.Formula,
			Unit:        t.Unit,
			Description: t.Description,
		})
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("library: encoding document: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("library: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".library-*.tmp")
	if err != nil {
		return fmt.Errorf("library: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("library: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("library: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("library: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("library: renaming temp file into place: %w", err)
	}
	return nil
}
