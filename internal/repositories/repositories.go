package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/bookshelf/internal/shared"
)

// DefaultDocument is the row name used for the tracker state.
const DefaultDocument = "state"

// Document is a stored row of the documents table.
type Document struct {
	Name      string
	Body      []byte
	UpdatedAt time.Time
}

// DocumentRepository reads and writes named JSON documents.
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new [DocumentRepository] with the given database connection
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Get returns the document called name, or [shared.ErrDocumentNotFound].
func (r *DocumentRepository) Get(ctx context.Context, name string) (*Document, error) {
	query := `SELECT name, body, updated_at FROM documents WHERE name = ?`

	var (
		doc  Document
		body string
	)
	err := r.db.QueryRowContext(ctx, query, name).Scan(&doc.Name, &body, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc.Body = []byte(body)
	return &doc, nil
}

// Put inserts or overwrites the document called name.
func (r *DocumentRepository) Put(ctx context.Context, name string, body []byte) error {
	if shared.IsBlank(name) {
		return fmt.Errorf("%w: document name", shared.ErrMissingArgument)
	}

	query := `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, name, string(body), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Delete removes the document called name. Deleting a missing document is not an error.
func (r *DocumentRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// List returns stored document names ordered by most recent update.
func (r *DocumentRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM documents ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
