// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package authorization

import (
	"context"
)

// QueryFilter narrows List results. Zero-valued fields are ignored.
//
// Status is intentionally absent: it is a derived value, so the service
// filters on freshly computed status after the rows are loaded.
type QueryFilter struct {
	CondominiumID string
	UnitCode      string
	Limit         int
	Offset        int
}

// Repository defines the data access contract for authorizations.
//
// # Review Process
//
// This interface is placed in a separate file from authorization.go so
// entity changes and storage-contract changes can be reviewed independently.
//
// # Implementations
//
// The canonical implementation is PostgreSQL (store_postgres.go). Movement
// histories and the event log travel inside the entity row as JSONB, so
// every write is an atomic whole-record replacement; readers never observe
// a torn record.
type Repository interface {
	// Add persists a brand-new authorization.
	//
	// Returns a wrapped error on id collision; the service regenerates the
	// id and retries.
	Add(ctx context.Context, auth *Authorization) error

	// Get returns the authorization with the given id.
	//
	// Returns [apperr.NotFound] if it does not exist.
	Get(ctx context.Context, id string) (*Authorization, error)

	// FindByAccessCode returns the authorization carrying the given
	// normalized (uppercase) access code.
	//
	// Returns [apperr.NotFound] if no record matches. Access codes are not
	// guaranteed globally unique; the newest match wins.
	FindByAccessCode(ctx context.Context, code string) (*Authorization, error)

	// Query returns authorizations matching all supplied filters,
	// newest-created first.
	Query(ctx context.Context, filter QueryFilter) ([]*Authorization, error)

	// Count returns the total number of rows matching the filter,
	// ignoring pagination.
	Count(ctx context.Context, filter QueryFilter) (int, error)

	// Update replaces the whole stored record.
	//
	// Returns [apperr.NotFound] if the id does not exist.
	Update(ctx context.Context, auth *Authorization) error
}
