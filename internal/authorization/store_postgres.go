// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// PostgreSQL implementation of the [Repository] contract.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.

package authorization

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
//
// Histories, the event log and the nested value objects are stored as
// JSONB columns, so an entity row is always written and read as a whole.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the PostgreSQL implementation of [Repository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const authorizationColumns = `
	id, condominium_id, kind, period_kind,
	visitor_name, phone, email, document_number, company,
	start_date, end_date,
	recurrence, vehicle, authorizer, device_info,
	access_code, qr_payload, cancelled,
	created_at, updated_at, created_by,
	check_ins, check_outs, event_log`

// Add persists a brand-new authorization row.
func (repository *PostgresRepository) Add(ctx context.Context, auth *Authorization) error {
	const query = `
		INSERT INTO portaria.authorization (
			id, condominium_id, kind, period_kind,
			visitor_name, phone, email, document_number, company,
			start_date, end_date,
			recurrence, vehicle, authorizer, device_info,
			access_code, qr_payload, cancelled,
			created_at, updated_at, created_by,
			check_ins, check_outs, event_log
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11,
			$12, $13, $14, $15,
			$16, $17, $18,
			$19, $20, $21,
			$22, $23, $24
		)`

	_, err := repository.pool.Exec(ctx, query,
		auth.ID, auth.CondominiumID, auth.Kind, auth.PeriodKind,
		auth.VisitorName, auth.Phone, auth.Email, auth.DocumentNumber, auth.Company,
		auth.StartDate, auth.EndDate,
		auth.Recurrence, auth.Vehicle, auth.Authorizer, auth.Device,
		auth.AccessCode, auth.QRPayload, auth.Cancelled,
		auth.CreatedAt, auth.UpdatedAt, auth.CreatedBy,
		auth.CheckIns, auth.CheckOuts, auth.EventLog,
	)
	if err != nil {
		return dberr.Wrap(err, "Authorization insert")
	}

	return nil
}

// Get retrieves one authorization by id.
func (repository *PostgresRepository) Get(ctx context.Context, id string) (*Authorization, error) {
	query := `SELECT ` + authorizationColumns + `
		FROM portaria.authorization
		WHERE id = $1`

	auth, err := repository.scanRow(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Authorization")
		}
		return nil, dberr.Wrap(err, "Authorization lookup")
	}

	return auth, nil
}

// FindByAccessCode retrieves the newest authorization carrying the code.
//
// Codes are stored uppercase; callers normalize before querying.
func (repository *PostgresRepository) FindByAccessCode(ctx context.Context, code string) (*Authorization, error) {
	query := `SELECT ` + authorizationColumns + `
		FROM portaria.authorization
		WHERE access_code = $1
		ORDER BY created_at DESC
		LIMIT 1`

	auth, err := repository.scanRow(repository.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Authorization")
		}
		return nil, dberr.Wrap(err, "Access code lookup")
	}

	return auth, nil
}

// Query lists authorizations matching the filter, newest-created first.
func (repository *PostgresRepository) Query(ctx context.Context, filter QueryFilter) ([]*Authorization, error) {
	query := `SELECT ` + authorizationColumns + `
		FROM portaria.authorization`

	whereClause, args := buildFilterClause(filter)
	query += whereClause
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := repository.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "Authorization query")
	}
	defer rows.Close()

	var results []*Authorization
	for rows.Next() {
		auth, err := repository.scanRow(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Authorization query")
		}
		results = append(results, auth)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Authorization query")
	}

	return results, nil
}

// Count returns the total matching rows, ignoring pagination.
func (repository *PostgresRepository) Count(ctx context.Context, filter QueryFilter) (int, error) {
	query := `SELECT COUNT(*) FROM portaria.authorization`

	whereClause, args := buildFilterClause(filter)
	query += whereClause

	var total int
	if err := repository.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "Authorization count")
	}

	return total, nil
}

// Update replaces the whole stored record atomically.
func (repository *PostgresRepository) Update(ctx context.Context, auth *Authorization) error {
	const query = `
		UPDATE portaria.authorization SET
			cancelled = $2,
			qr_payload = $3,
			updated_at = $4,
			check_ins = $5,
			check_outs = $6,
			event_log = $7
		WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query,
		auth.ID,
		auth.Cancelled,
		auth.QRPayload,
		auth.UpdatedAt,
		auth.CheckIns,
		auth.CheckOuts,
		auth.EventLog,
	)
	if err != nil {
		return dberr.Wrap(err, "Authorization update")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Authorization")
	}

	return nil
}

// buildFilterClause renders the WHERE clause for the optional filters.
// Unit filtering matches the authorizer's unit code stored inside the
// authorizer JSONB document.
func buildFilterClause(filter QueryFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.CondominiumID != "" {
		args = append(args, filter.CondominiumID)
		conditions = append(conditions, fmt.Sprintf("condominium_id = $%d", len(args)))
	}
	if filter.UnitCode != "" {
		args = append(args, filter.UnitCode)
		conditions = append(conditions, fmt.Sprintf("authorizer->>'unit_code' = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// scanRow hydrates one entity from a row matching authorizationColumns.
func (repository *PostgresRepository) scanRow(row pgx.Row) (*Authorization, error) {
	var auth Authorization

	err := row.Scan(
		&auth.ID, &auth.CondominiumID, &auth.Kind, &auth.PeriodKind,
		&auth.VisitorName, &auth.Phone, &auth.Email, &auth.DocumentNumber, &auth.Company,
		&auth.StartDate, &auth.EndDate,
		&auth.Recurrence, &auth.Vehicle, &auth.Authorizer, &auth.Device,
		&auth.AccessCode, &auth.QRPayload, &auth.Cancelled,
		&auth.CreatedAt, &auth.UpdatedAt, &auth.CreatedBy,
		&auth.CheckIns, &auth.CheckOuts, &auth.EventLog,
	)
	if err != nil {
		return nil, err
	}

	return &auth, nil
}
