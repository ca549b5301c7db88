// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package receipt

import "context"

// Repository defines the data access contract for receipt metadata.
type Repository interface {
	// Upsert inserts the receipt row or replaces the existing one for the
	// same authorization (one receipt per authorization).
	Upsert(ctx context.Context, rec *Receipt) error

	// GetByAuthorization returns the receipt of one authorization.
	//
	// Returns [apperr.NotFound] if it does not exist.
	GetByAuthorization(ctx context.Context, authorizationID string) (*Receipt, error)

	// MarkNotified records the gateway message id and delivery time.
	MarkNotified(ctx context.Context, id, messageID string) error
}
