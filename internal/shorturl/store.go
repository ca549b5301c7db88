// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shorturl

import "context"

// Repository defines the data access contract for share links.
type Repository interface {
	// Create persists a new link. Returns a wrapped error on id
	// collision; the service regenerates and retries.
	Create(ctx context.Context, link *ShortURL) error

	// Get returns the link with the given id.
	//
	// Returns [apperr.NotFound] if it does not exist.
	Get(ctx context.Context, id string) (*ShortURL, error)

	// Deactivate clears the active flag.
	//
	// Returns [apperr.NotFound] if the id does not exist.
	Deactivate(ctx context.Context, id string) error
}
