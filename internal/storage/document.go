package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/contriboard/contriboard/internal/domain"
	"github.com/contriboard/contriboard/internal/errors"
)

// DocumentStore persists the summary document as one JSON file. Readers
// may hold the file open while a new summary lands, so writes go to a
// temporary file in the same directory followed by a rename.
type DocumentStore struct {
	path string
}

// NewDocumentStore creates a store writing to the given path
func NewDocumentStore(path string) *DocumentStore {
	return &DocumentStore{path: path}
}

// Path returns the file the store reads and writes
func (s *DocumentStore) Path() string {
	return s.path
}

// Save writes the document, replacing any previous one atomically
func (s *DocumentStore) Save(doc *domain.SummaryDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.NewInternalError("failed to encode summary document", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewInternalError("failed to create summary directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".summary-*.json")
	if err != nil {
		return errors.NewInternalError("failed to create temporary summary file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewInternalError("failed to write summary document", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewInternalError("failed to close summary document", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.NewInternalError("failed to set summary permissions", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.NewInternalError("failed to replace summary document", err)
	}
	return nil
}

// Load reads and normalizes the current document. A store that has never
// been written yields the typed no-data error.
func (s *DocumentStore) Load() (*domain.SummaryDocument, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, errors.NewNoDataError("summary document has not been built yet")
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to read summary document", err)
	}

	var doc domain.SummaryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewInternalError("failed to decode summary document", err)
	}
	doc.Normalize()
	return &doc, nil
}
