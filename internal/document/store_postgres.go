// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the PostgreSQL implementation of [Repository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const documentColumns = `
	id, authorization_id, type, original_name, stored_name,
	size, content_type, created_at, deleted_at`

// Create persists a new document metadata row.
func (repository *PostgresRepository) Create(ctx context.Context, doc *Document) error {
	const query = `
		INSERT INTO portaria.document (
			id, authorization_id, type, original_name, stored_name,
			size, content_type, created_at, deleted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := repository.pool.Exec(ctx, query,
		doc.ID, doc.AuthorizationID, doc.Type, doc.OriginalName, doc.StoredName,
		doc.Size, doc.ContentType, doc.CreatedAt, doc.DeletedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "Document creation")
	}

	return nil
}

// Get retrieves one document by id.
func (repository *PostgresRepository) Get(ctx context.Context, id string) (*Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM portaria.document
		WHERE id = $1`

	doc, err := scanDocument(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Document")
		}
		return nil, dberr.Wrap(err, "Document lookup")
	}

	return doc, nil
}

// ListByAuthorization retrieves all documents of one authorization.
func (repository *PostgresRepository) ListByAuthorization(ctx context.Context, authorizationID string) ([]*Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM portaria.document
		WHERE authorization_id = $1
		ORDER BY created_at DESC`

	rows, err := repository.pool.Query(ctx, query, authorizationID)
	if err != nil {
		return nil, dberr.Wrap(err, "Document list")
	}
	defer rows.Close()

	var results []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Document list")
		}
		results = append(results, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Document list")
	}

	return results, nil
}

// MarkDeleted stamps the deletion time without removing the row.
func (repository *PostgresRepository) MarkDeleted(ctx context.Context, id string) error {
	const query = `
		UPDATE portaria.document
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := repository.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return dberr.Wrap(err, "Document delete")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Document")
	}

	return nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	var doc Document
	err := row.Scan(
		&doc.ID, &doc.AuthorizationID, &doc.Type, &doc.OriginalName, &doc.StoredName,
		&doc.Size, &doc.ContentType, &doc.CreatedAt, &doc.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
