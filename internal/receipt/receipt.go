// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package receipt manages the PDF visit receipt attached to an authorization.

Each authorization has at most one receipt, stored on disk as
"<authorizationID>.pdf"; re-uploading replaces it. After a successful
upload the authorizer is notified over WhatsApp with a download link —
notification failure is logged and never fails the upload.
*/
package receipt

import (
	"time"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
)

// MaxUploadSize caps a single receipt upload.
const MaxUploadSize = 10 << 20 // 10 MB

var (
	ErrFileTooLarge = apperr.Invalid("FILE_TOO_LARGE",
		"Receipt exceeds the 10 MB upload limit")
	ErrNotPDF = apperr.Invalid("EXTENSION_NOT_ALLOWED",
		"Receipts must be PDF files")
)

// Receipt is the stored metadata of one visit receipt.
type Receipt struct {
	ID              string     `json:"id"`
	AuthorizationID string     `json:"authorization_id"`
	FileName        string     `json:"file_name"`
	Size            int64      `json:"size"`
	CreatedAt       time.Time  `json:"created_at"`
	MessageID       string     `json:"message_id,omitempty"`
	NotifiedAt      *time.Time `json:"notified_at,omitempty"`
}
