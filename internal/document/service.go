// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gestaocondominio/portaria/internal/authorization"
	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/clock"
	"github.com/gestaocondominio/portaria/internal/platform/ctxutil"
	"github.com/gestaocondominio/portaria/internal/platform/validate"
	"github.com/gestaocondominio/portaria/pkg/filename"
	"github.com/gestaocondominio/portaria/pkg/uuid"
)

// Service implements the document use cases and the
// [authorization.DocumentFinder] contract.
type Service struct {
	repository Repository
	calendar   *clock.Calendar
	dir        string
}

// NewService constructs a [Service] storing files under dir.
func NewService(repository Repository, calendar *clock.Calendar, dir string) *Service {
	return &Service{repository: repository, calendar: calendar, dir: dir}
}

// UploadInput describes one incoming multipart file.
type UploadInput struct {
	AuthorizationID string
	Type            string
	OriginalName    string
	ContentType     string
	Size            int64
	Content         io.Reader
}

// Upload validates, stores the file on disk and persists its metadata.
//
// # Business Rules
//   - Extension allow-list: jpg, jpeg, png, pdf.
//   - Size cap of [MaxUploadSize]; the reader is hard-limited as well, so
//     a lying Content-Length cannot smuggle a bigger body.
//   - The stored name is uuid-prefixed and sanitized, never the raw
//     client-supplied name.
func (service *Service) Upload(ctx context.Context, input UploadInput) (*Document, error) {
	v := &validate.Validator{}
	v.Required("authorization_id", input.AuthorizationID).
		Required("file", input.OriginalName)
	if err := v.Err(); err != nil {
		return nil, err
	}

	extension := strings.ToLower(filepath.Ext(input.OriginalName))
	if !allowedExtensions[extension] {
		return nil, ErrExtensionNotAllowed
	}
	if input.Size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	doc := &Document{
		ID:              uuid.New(),
		AuthorizationID: input.AuthorizationID,
		Type:            input.Type,
		OriginalName:    input.OriginalName,
		ContentType:     input.ContentType,
		CreatedAt:       service.calendar.Now(),
	}
	doc.StoredName = doc.ID + "-" + filename.Sanitize(input.OriginalName)

	size, err := service.writeFile(doc.StoredName, input.Content)
	if err != nil {
		return nil, err
	}
	doc.Size = size

	if err := service.repository.Create(ctx, doc); err != nil {
		// Orphaned files are worse than a failed upload; best-effort cleanup.
		if removeErr := os.Remove(service.path(doc.StoredName)); removeErr != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "document_cleanup_failed",
				slog.String("stored_name", doc.StoredName),
				slog.Any("error", removeErr),
			)
		}
		return nil, err
	}

	return doc, nil
}

// writeFile streams the upload to disk, enforcing the size cap.
func (service *Service) writeFile(storedName string, content io.Reader) (int64, error) {
	if err := os.MkdirAll(service.dir, 0o755); err != nil {
		return 0, apperr.Internal(fmt.Errorf("document: create dir: %w", err))
	}

	target, err := os.Create(service.path(storedName))
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("document: create file: %w", err))
	}
	defer target.Close()

	// One extra byte distinguishes "exactly at the cap" from "over it".
	written, err := io.Copy(target, io.LimitReader(content, MaxUploadSize+1))
	if err != nil {
		_ = os.Remove(target.Name())
		return 0, apperr.Internal(fmt.Errorf("document: write file: %w", err))
	}
	if written > MaxUploadSize {
		_ = os.Remove(target.Name())
		return 0, ErrFileTooLarge
	}

	return written, nil
}

// Get returns one document's metadata.
func (service *Service) Get(ctx context.Context, id string) (*Document, error) {
	return service.repository.Get(ctx, id)
}

// ListByAuthorization returns all documents of one authorization.
func (service *Service) ListByAuthorization(ctx context.Context, authorizationID string) ([]*Document, error) {
	return service.repository.ListByAuthorization(ctx, authorizationID)
}

// Open returns the metadata and an open reader for a stored file.
// The caller must close the reader.
func (service *Service) Open(ctx context.Context, id string) (*Document, io.ReadCloser, error) {
	doc, err := service.repository.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if doc.Deleted() {
		return nil, nil, apperr.NotFound("Document file")
	}

	file, err := os.Open(service.path(doc.StoredName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperr.NotFound("Document file")
		}
		return nil, nil, apperr.Internal(fmt.Errorf("document: open file: %w", err))
	}

	return doc, file, nil
}

// Delete removes the file from disk; the metadata row stays for audit.
func (service *Service) Delete(ctx context.Context, id string) error {
	doc, err := service.repository.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.Deleted() {
		return apperr.NotFound("Document file")
	}

	if err := os.Remove(service.path(doc.StoredName)); err != nil && !os.IsNotExist(err) {
		return apperr.Internal(fmt.Errorf("document: remove file: %w", err))
	}

	return service.repository.MarkDeleted(ctx, id)
}

// FindDocument implements [authorization.DocumentFinder] for first
// check-in verification.
func (service *Service) FindDocument(ctx context.Context, id string) (*authorization.DocumentRef, error) {
	doc, err := service.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return &authorization.DocumentRef{
		ID:              doc.ID,
		AuthorizationID: doc.AuthorizationID,
	}, nil
}

func (service *Service) path(storedName string) string {
	return filepath.Join(service.dir, storedName)
}
