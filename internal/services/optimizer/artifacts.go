package optimizer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"costpilot/pkg/errors"
)

// Persisted artifact names. These are part of the tool's external contract.
const (
	ArtifactDescription = "project_description.txt"
	ArtifactProfile     = "project_profile.json"
	ArtifactBilling     = "mock_billing.json"
	ArtifactReport      = "cost_optimization_report.json"
)

// ArtifactWriter persists pipeline documents as flat files.
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter creates a writer rooted at dir.
func NewArtifactWriter(dir string) *ArtifactWriter {
	if dir == "" {
		dir = "."
	}
	return &ArtifactWriter{dir: dir}
}

// Path returns the full path of a named artifact.
func (w *ArtifactWriter) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteText persists a plain-text artifact.
func (w *ArtifactWriter) WriteText(name, content string) error {
	if err := os.WriteFile(w.Path(name), []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "write artifact %s", name)
	}
	return nil
}

// WriteJSON persists a document as indented JSON.
func (w *ArtifactWriter) WriteJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "marshal artifact %s", name)
	}
	return w.WriteText(name, string(data)+"\n")
}
