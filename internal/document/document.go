// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package document manages identification documents uploaded for an access
authorization.

Files live on disk under a configured directory with uuid-based stored
names; only metadata goes to PostgreSQL. The authorization service
consults this package during a first check-in to confirm the referenced
document exists and belongs to the same authorization.
*/
package document

import (
	"time"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
)

// MaxUploadSize caps a single document upload.
const MaxUploadSize = 10 << 20 // 10 MB

var (
	ErrFileTooLarge = apperr.Invalid("FILE_TOO_LARGE",
		"Document exceeds the 10 MB upload limit")
	ErrExtensionNotAllowed = apperr.Invalid("EXTENSION_NOT_ALLOWED",
		"Document type not accepted; send jpg, jpeg, png or pdf")
)

// allowedExtensions is the upload allow-list (lowercase, with dot).
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// Document is the stored metadata of one uploaded file.
type Document struct {
	ID              string     `json:"id"`
	AuthorizationID string     `json:"authorization_id"`
	Type            string     `json:"type,omitempty"`
	OriginalName    string     `json:"original_name"`
	StoredName      string     `json:"stored_name"`
	Size            int64      `json:"size"`
	ContentType     string     `json:"content_type"`
	CreatedAt       time.Time  `json:"created_at"`
	// DeletedAt marks the file as removed from disk; the metadata row
	// survives for audit.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the underlying file was removed.
func (d *Document) Deleted() bool { return d.DeletedAt != nil }
