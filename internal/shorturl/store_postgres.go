// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shorturl

import (
	"context"
	"errors"

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

// Create persists a new share link.
func (repository *PostgresRepository) Create(ctx context.Context, link *ShortURL) error {
	const query = `
		INSERT INTO portaria.short_url (
			id, name, phone, unit_code, keyword, created_at, expires_at, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := repository.pool.Exec(ctx, query,
		link.ID, link.Name, link.Phone, link.UnitCode, link.Keyword,
		link.CreatedAt, link.ExpiresAt, link.Active,
	)
	if err != nil {
		return dberr.Wrap(err, "Link creation")
	}

	return nil
}

// Get retrieves one share link by id.
func (repository *PostgresRepository) Get(ctx context.Context, id string) (*ShortURL, error) {
	const query = `
		SELECT id, name, phone, unit_code, keyword, created_at, expires_at, active
		FROM portaria.short_url
		WHERE id = $1`

	var link ShortURL
	err := repository.pool.QueryRow(ctx, query, id).Scan(
		&link.ID, &link.Name, &link.Phone, &link.UnitCode, &link.Keyword,
		&link.CreatedAt, &link.ExpiresAt, &link.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Link")
		}
		return nil, dberr.Wrap(err, "Link lookup")
	}

	return &link, nil
}

// Deactivate clears the active flag of a link.
func (repository *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	const query = `
		UPDATE portaria.short_url
		SET active = FALSE
		WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "Link deactivation")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Link")
	}

	return nil
}
