// Package backup exports and imports the tracker state as a JSON backup file.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// Version is written to every export and ignored on import.
const Version = 1

// Importer receives a validated document; implemented by store.Store.
type Importer interface {
	ImportData(doc *models.Document) models.State
}

// Export is the backup file layout.
type Export struct {
	Library    []models.Book `json:"library"`
	Wishlist   []models.Book `json:"wishlist"`
	Tags       []string      `json:"tags"`
	Following  []string      `json:"following"`
	Topics     []string      `json:"topics"`
	ExportDate string        `json:"exportDate"`
	Version    int           `json:"version"`
}

// ExportDocument renders state as an indented backup document stamped with now.
func ExportDocument(state models.State, now time.Time) ([]byte, error) {
	s := state.Clone()
	out := Export{
		Library:    s.Library,
		Wishlist:   s.Wishlist,
		Tags:       s.Tags,
		Following:  s.Following,
		Topics:     s.Topics,
		ExportDate: now.UTC().Format(time.RFC3339),
		Version:    Version,
	}

	data, err := shared.MarshalJSON(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}

// Filename returns the backup file name for now, e.g. bookshelf-backup-2025-07-01.json.
func Filename(now time.Time) string {
	return fmt.Sprintf("bookshelf-backup-%s.json", now.Format(time.DateOnly))
}

// WriteFile exports state to path, or to [Filename] in the working directory when path is empty.
func WriteFile(state models.State, path string, now time.Time) (string, error) {
	if path == "" {
		path = Filename(now)
	}
	data, err := ExportDocument(state, now)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return path, nil
}

// ParseDocument validates a backup file. library and wishlist must be JSON arrays;
// tags, following and topics are optional. Unknown keys and version are ignored.
func ParseDocument(data []byte) (*models.Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &shared.ImportError{Reason: "invalid format", Err: err}
	}

	for _, key := range []string{"library", "wishlist"} {
		if !isArray(raw[key]) {
			return nil, &shared.ImportError{Reason: "invalid format", Err: fmt.Errorf("%q must be a list", key)}
		}
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &shared.ImportError{Reason: "invalid format", Err: err}
	}

	doc.AuthorProfiles = nil
	return &doc, nil
}

// ImportDocument validates data and replaces the importer's state with it.
// On error the importer is not called.
func ImportDocument(data []byte, into Importer) (*models.Document, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	into.ImportData(doc)
	return doc, nil
}

// ReadFile imports the backup at path.
func ReadFile(path string, into Importer) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return ImportDocument(data, into)
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}
