// package persistence loads and saves the whole tracker state as one JSON document.
//
// Three adapters implement [Gateway]:
//   - [FileGateway] writes a local JSON file (db.json)
//   - [RemoteGateway] talks to a persistence server over GET/POST /api/data
//   - [SQLiteGateway] keeps the document in a SQLite database
//
// Every save is a whole-document overwrite. There is no locking or version
// check, so the last writer wins.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/shared"
)

const (
	BackendFile   = "file"
	BackendRemote = "remote"
	BackendSQLite = "sqlite"
)

// Gateway loads and saves the state document.
type Gateway interface {
	// Load returns the stored document. A (nil, nil) result means nothing has been stored yet.
	Load(ctx context.Context) (*models.Document, error)

	// Save overwrites the stored document.
	Save(ctx context.Context, doc *models.Document) error

	// Name identifies the backend in logs and errors.
	Name() string
}

// Open selects a gateway from the storage config section.
//
// The returned close function releases backend resources and is never nil.
func Open(cfg shared.StorageConfig) (Gateway, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", BackendFile:
		return NewFileGateway(cfg.Path), noop, nil
	case BackendRemote:
		client := &http.Client{Timeout: 30 * time.Second}
		return NewRemoteGateway(cfg.URL, client), noop, nil
	case BackendSQLite:
		db, err := shared.OpenMigrated(cfg.Database)
		if err != nil {
			return nil, noop, &shared.PersistenceError{Op: "open", Backend: BackendSQLite, Err: err}
		}
		return NewSQLiteGateway(db), db.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

// decode parses a stored document. Empty input means absent.
func decode(backend string, data []byte) (*models.Document, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &shared.PersistenceError{Op: "load", Backend: backend, Err: fmt.Errorf("malformed document: %w", err)}
	}
	return &doc, nil
}

// encode renders doc the way every backend stores it.
func encode(backend string, doc *models.Document) ([]byte, error) {
	if doc == nil {
		return nil, &shared.PersistenceError{Op: "save", Backend: backend, Err: shared.ErrInvalidInput}
	}
	data, err := shared.MarshalJSON(doc)
	if err != nil {
		return nil, &shared.PersistenceError{Op: "save", Backend: backend, Err: err}
	}
	return data, nil
}
