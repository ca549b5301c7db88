// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import "context"

// Repository defines the data access contract for document metadata.
//
// # Implementations
//
// The canonical implementation is PostgreSQL (store_postgres.go).
type Repository interface {
	// Create persists the metadata of a freshly stored file.
	Create(ctx context.Context, doc *Document) error

	// Get returns the document with the given id.
	//
	// Returns [apperr.NotFound] if it does not exist.
	Get(ctx context.Context, id string) (*Document, error)

	// ListByAuthorization returns all documents of one authorization,
	// newest first, including ones whose file was already removed.
	ListByAuthorization(ctx context.Context, authorizationID string) ([]*Document, error)

	// MarkDeleted stamps DeletedAt; the row is never removed.
	//
	// Returns [apperr.NotFound] if the id does not exist.
	MarkDeleted(ctx context.Context, id string) error
}
