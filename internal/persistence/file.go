package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// DefaultFilePath is the document file used when no path is configured.
const DefaultFilePath = "db.json"

// FileGateway stores the document as a JSON file on disk.
type FileGateway struct {
	path string
}

// NewFileGateway creates a gateway for the file at path.
func NewFileGateway(path string) *FileGateway {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileGateway{path: path}
}

func (g *FileGateway) Name() string { return BackendFile }

// Path returns the document file location.
func (g *FileGateway) Path() string { return g.path }

// Load reads the file. A missing file is reported as absent.
func (g *FileGateway) Load(ctx context.Context) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &shared.PersistenceError{Op: "load", Backend: BackendFile, Err: err}
	}
	return decode(BackendFile, data)
}

// Save writes the document to a temporary file and renames it over the target.
func (g *FileGateway) Save(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(BackendFile, doc)
	if err != nil {
		return err
	}

	wrap := func(err error) error {
		return &shared.PersistenceError{Op: "save", Backend: BackendFile, Err: err}
	}

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrap(fmt.Errorf("failed to create directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(g.path)+".*.tmp")
	if err != nil {
		return wrap(fmt.Errorf("failed to create temp file: %w", err))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return wrap(fmt.Errorf("failed to write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return wrap(fmt.Errorf("failed to close temp file: %w", err))
	}
	if err := os.Rename(tmp.Name(), g.path); err != nil {
		return wrap(fmt.Errorf("failed to replace document: %w", err))
	}
	return nil
}
