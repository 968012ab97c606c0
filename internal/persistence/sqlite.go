package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/repositories"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// SQLiteGateway stores the document in the documents table.
type SQLiteGateway struct {
	repo *repositories.DocumentRepository
	name string
}

// NewSQLiteGateway creates a gateway over a migrated database.
func NewSQLiteGateway(db *sql.DB) *SQLiteGateway {
	return &SQLiteGateway{repo: repositories.NewDocumentRepository(db), name: repositories.DefaultDocument}
}

func (g *SQLiteGateway) Name() string { return BackendSQLite }

func (g *SQLiteGateway) Load(ctx context.Context) (*models.Document, error) {
	row, err := g.repo.Get(ctx, g.name)
	if errors.Is(err, shared.ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &shared.PersistenceError{Op: "load", Backend: BackendSQLite, Err: err}
	}
	return decode(BackendSQLite, row.Body)
}

func (g *SQLiteGateway) Save(ctx context.Context, doc *models.Document) error {
	data, err := encode(BackendSQLite, doc)
	if err != nil {
		return err
	}
	if err := g.repo.Put(ctx, g.name, data); err != nil {
		return &shared.PersistenceError{Op: "save", Backend: BackendSQLite, Err: err}
	}
	return nil
}
