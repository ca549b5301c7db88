// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package receipt

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

// Upsert inserts or replaces the receipt of an authorization.
func (repository *PostgresRepository) Upsert(ctx context.Context, rec *Receipt) error {
	const query = `
		INSERT INTO portaria.receipt (
			id, authorization_id, file_name, size, created_at, message_id, notified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (authorization_id) DO UPDATE SET
			id = EXCLUDED.id,
			file_name = EXCLUDED.file_name,
			size = EXCLUDED.size,
			created_at = EXCLUDED.created_at,
			message_id = EXCLUDED.message_id,
			notified_at = EXCLUDED.notified_at`

	_, err := repository.pool.Exec(ctx, query,
		rec.ID, rec.AuthorizationID, rec.FileName, rec.Size,
		rec.CreatedAt, rec.MessageID, rec.NotifiedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "Receipt upsert")
	}

	return nil
}

// GetByAuthorization retrieves the receipt of one authorization.
func (repository *PostgresRepository) GetByAuthorization(ctx context.Context, authorizationID string) (*Receipt, error) {
	const query = `
		SELECT id, authorization_id, file_name, size, created_at, message_id, notified_at
		FROM portaria.receipt
		WHERE authorization_id = $1`

	var rec Receipt
	err := repository.pool.QueryRow(ctx, query, authorizationID).Scan(
		&rec.ID, &rec.AuthorizationID, &rec.FileName, &rec.Size,
		&rec.CreatedAt, &rec.MessageID, &rec.NotifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Receipt")
		}
		return nil, dberr.Wrap(err, "Receipt lookup")
	}

	return &rec, nil
}

// MarkNotified records a successful WhatsApp delivery.
func (repository *PostgresRepository) MarkNotified(ctx context.Context, id, messageID string) error {
	const query = `
		UPDATE portaria.receipt
		SET message_id = $2, notified_at = $3
		WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, id, messageID, time.Now())
	if err != nil {
		return dberr.Wrap(err, "Receipt notification update")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Receipt")
	}

	return nil
}
