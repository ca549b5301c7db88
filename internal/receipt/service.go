// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package receipt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gestaocondominio/portaria/internal/authorization"
	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/clock"
	"github.com/gestaocondominio/portaria/internal/platform/ctxutil"
	"github.com/gestaocondominio/portaria/pkg/uuid"
)

// notifyTimeout bounds the detached WhatsApp delivery attempt.
const notifyTimeout = 30 * time.Second

// AuthorizationSource resolves the authorization a receipt belongs to.
// Satisfied by the authorization repository.
type AuthorizationSource interface {
	Get(ctx context.Context, id string) (*authorization.Authorization, error)
}

// Notifier delivers the receipt link. Satisfied by [messaging.Client].
type Notifier interface {
	Enabled() bool
	SendReceipt(ctx context.Context, phone, link, fileName, caption string) (string, error)
}

// Service implements the receipt use cases.
type Service struct {
	repository     Repository
	authorizations AuthorizationSource
	notifier       Notifier
	calendar       *clock.Calendar
	dir            string
	publicBaseURL  string
}

// NewService constructs a [Service] storing files under dir. Links in
// notifications are built on publicBaseURL.
func NewService(
	repository Repository,
	authorizations AuthorizationSource,
	notifier Notifier,
	calendar *clock.Calendar,
	dir string,
	publicBaseURL string,
) *Service {
	return &Service{
		repository:     repository,
		authorizations: authorizations,
		notifier:       notifier,
		calendar:       calendar,
		dir:            dir,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload stores the PDF receipt of an authorization and notifies the
// authorizer with a download link.
//
// # Business Rules
//   - The authorization must exist.
//   - PDF only, capped at [MaxUploadSize].
//   - The stored name is always "<authorizationID>.pdf"; re-upload replaces.
//   - Notification runs detached from the request: its failure is logged,
//     never returned.
func (service *Service) Upload(ctx context.Context, authorizationID, originalName string, size int64, content io.Reader) (*Receipt, error) {
	auth, err := service.authorizations.Get(ctx, authorizationID)
	if err != nil {
		return nil, err
	}

	if strings.ToLower(filepath.Ext(originalName)) != ".pdf" {
		return nil, ErrNotPDF
	}
	if size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	rec := &Receipt{
		ID:              uuid.New(),
		AuthorizationID: auth.ID,
		FileName:        auth.ID + ".pdf",
		CreatedAt:       service.calendar.Now(),
	}

	written, err := service.writeFile(rec.FileName, content)
	if err != nil {
		return nil, err
	}
	rec.Size = written

	if err := service.repository.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	service.notifyAsync(ctx, auth, rec)

	return rec, nil
}

// writeFile streams the upload to disk, enforcing the size cap.
func (service *Service) writeFile(fileName string, content io.Reader) (int64, error) {
	if err := os.MkdirAll(service.dir, 0o755); err != nil {
		return 0, apperr.Internal(fmt.Errorf("receipt: create dir: %w", err))
	}

	target, err := os.Create(filepath.Join(service.dir, fileName))
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("receipt: create file: %w", err))
	}
	defer target.Close()

	written, err := io.Copy(target, io.LimitReader(content, MaxUploadSize+1))
	if err != nil {
		_ = os.Remove(target.Name())
		return 0, apperr.Internal(fmt.Errorf("receipt: write file: %w", err))
	}
	if written > MaxUploadSize {
		_ = os.Remove(target.Name())
		return 0, ErrFileTooLarge
	}

	return written, nil
}

// notifyAsync fires the WhatsApp delivery on a detached context so a
// client disconnect cannot cancel it mid-flight.
func (service *Service) notifyAsync(ctx context.Context, auth *authorization.Authorization, rec *Receipt) {
	if service.notifier == nil || !service.notifier.Enabled() {
		return
	}

	logger := ctxutil.GetLogger(ctx)
	link := service.publicBaseURL + "/api/v1/receipts/" + auth.ID + "/download"
	caption := "Comprovante de visita - " + auth.VisitorName

	go func() {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		messageID, err := service.notifier.SendReceipt(notifyCtx, auth.Authorizer.Phone, link, rec.FileName, caption)
		if err != nil {
			logger.Warn("receipt_notification_failed",
				slog.String("authorization_id", auth.ID),
				slog.Any("error", err),
			)
			return
		}

		if err := service.repository.MarkNotified(notifyCtx, rec.ID, messageID); err != nil {
			logger.Warn("receipt_notification_stamp_failed",
				slog.String("receipt_id", rec.ID),
				slog.Any("error", err),
			)
		}
	}()
}

// Get returns the receipt metadata of one authorization.
func (service *Service) Get(ctx context.Context, authorizationID string) (*Receipt, error) {
	return service.repository.GetByAuthorization(ctx, authorizationID)
}

// Open returns the metadata and an open reader for the stored PDF.
// The caller must close the reader.
func (service *Service) Open(ctx context.Context, authorizationID string) (*Receipt, io.ReadCloser, error) {
	rec, err := service.repository.GetByAuthorization(ctx, authorizationID)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(service.dir, rec.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperr.NotFound("Receipt file")
		}
		return nil, nil, apperr.Internal(fmt.Errorf("receipt: open file: %w", err))
	}

	return rec, file, nil
}
