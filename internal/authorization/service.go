// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Service orchestration for the authorization lifecycle.
//
// # Architecture
//
// The service validates input, applies the entity's own policy methods,
// and talks to collaborators (repository, document finder, QR signer,
// event publisher) through interfaces. It is technology-agnostic and does
// not know about HTTP or SQL.

package authorization

import (
	"context"
	"log/slog"
	"time"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/clock"
	"github.com/gestaocondominio/portaria/internal/platform/ctxutil"
	"github.com/gestaocondominio/portaria/internal/platform/keylock"
	"github.com/gestaocondominio/portaria/internal/platform/sec"
	"github.com/gestaocondominio/portaria/internal/platform/validate"
	"github.com/gestaocondominio/portaria/pkg/accesscode"
	"github.com/gestaocondominio/portaria/pkg/pagination"
	"github.com/gestaocondominio/portaria/pkg/pointer"
	"github.com/gestaocondominio/portaria/pkg/slice"
	"github.com/gestaocondominio/portaria/pkg/uuid"
)

// addRetryLimit bounds id/access-code regeneration on insert collisions.
const addRetryLimit = 3

// DocumentRef is the slice of document metadata the check-in policy needs.
type DocumentRef struct {
	ID              string
	AuthorizationID string
}

// DocumentFinder resolves uploaded documents during first check-in.
type DocumentFinder interface {
	// FindDocument returns the document metadata for the given id.
	//
	// Returns [apperr.NotFound] if no such document exists.
	FindDocument(ctx context.Context, id string) (*DocumentRef, error)
}

// QRSigner mints and verifies the signed QR gate credential.
type QRSigner interface {
	Generate(authorizationID, accessCode, unit string, expiresAt time.Time) (string, error)
	Verify(token string) (*sec.QRClaims, error)
}

// EventPublisher emits fire-and-forget lifecycle events. Implementations
// must never fail the triggering request.
type EventPublisher interface {
	Publish(ctx context.Context, eventKind string, auth *Authorization, actor string)
}

// Service implements the authorization use cases.
type Service struct {
	repository Repository
	documents  DocumentFinder
	signer     QRSigner
	events     EventPublisher
	calendar   *clock.Calendar
	locks      *keylock.KeyLock
}

// NewService constructs a [Service] with its collaborators.
func NewService(
	repository Repository,
	documents DocumentFinder,
	signer QRSigner,
	events EventPublisher,
	calendar *clock.Calendar,
) *Service {
	return &Service{
		repository: repository,
		documents:  documents,
		signer:     signer,
		events:     events,
		calendar:   calendar,
		locks:      keylock.New(),
	}
}

// View is an [Authorization] decorated with its derived state, as returned
// to API callers. Status is recomputed on every read.
type View struct {
	*Authorization
	Status       Status `json:"status"`
	PermittedNow bool   `json:"permitted_now"`
}

// view snapshots the derived state against the current clock.
func (service *Service) view(auth *Authorization) View {
	return View{
		Authorization: auth,
		Status:        auth.Status(service.calendar.Today()),
		PermittedNow:  auth.PermittedAt(service.calendar.Now(), service.calendar.Location()),
	}
}

// # Creation

// CreateInput holds the data required to grant access.
type CreateInput struct {
	CondominiumID string
	Kind          Kind
	PeriodKind    PeriodKind

	VisitorName    string
	Phone          string
	Email          string
	DocumentNumber string
	Company        string

	StartDate clock.Date
	EndDate   clock.Date

	Recurrence *Recurrence
	Vehicle    *Vehicle

	AuthorizerName  string
	AuthorizerPhone string
	UnitCode        string

	// AuthorizerConfirmedAt is when the resident confirmed the request.
	// Nil for grants still awaiting confirmation (form self-registrations).
	AuthorizerConfirmedAt *time.Time

	Device *DeviceInfo
}

// Create validates and persists a new access authorization.
//
// # Business Rules
//   - start date must not be after end date; both inclusive.
//   - recurring grants need a non-empty weekday set and an ordered daily
//     time window.
//   - device info defaults to the current instant and the server-observed
//     client IP when the requester supplies nothing.
//   - the access code is 8 uppercase characters derived from a fresh UUID;
//     an insert collision regenerates id and code and retries.
func (service *Service) Create(ctx context.Context, input CreateInput, creatorID, clientIP string) (*View, error) {
	if err := service.validateCreate(input); err != nil {
		return nil, err
	}

	now := service.calendar.Now()

	auth := &Authorization{
		ID:            uuid.New(),
		CondominiumID: input.CondominiumID,
		Kind:          input.Kind,
		PeriodKind:    input.PeriodKind,

		VisitorName:    input.VisitorName,
		Phone:          input.Phone,
		Email:          input.Email,
		DocumentNumber: input.DocumentNumber,
		Company:        input.Company,

		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Recurrence: input.Recurrence,
		Vehicle:    input.Vehicle,

		Authorizer: Authorizer{
			Name:        input.AuthorizerName,
			Phone:       input.AuthorizerPhone,
			UnitCode:    input.UnitCode,
			RequestedAt: now,
			ConfirmedAt: input.AuthorizerConfirmedAt,
		},

		AccessCode: accesscode.New(),
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  creatorID,
	}

	auth.Device = deviceDefaults(input.Device, now, clientIP)
	auth.appendLog(now, creatorID, EventCreated, "Authorization created")

	service.attachQRPayload(ctx, auth)

	if err := service.persistNew(ctx, auth); err != nil {
		return nil, err
	}

	service.events.Publish(ctx, EventCreated, auth, creatorID)

	result := service.view(auth)
	return &result, nil
}

// persistNew inserts the entity, regenerating identity on collision.
func (service *Service) persistNew(ctx context.Context, auth *Authorization) error {
	var err error
	for attempt := 0; attempt < addRetryLimit; attempt++ {
		if err = ctx.Err(); err != nil {
			return apperr.Internal(err)
		}

		err = service.repository.Add(ctx, auth)
		if err == nil {
			return nil
		}
		if !apperr.HasCode(err, "CONFLICT") {
			return err
		}

		// Collision on id or access code: mint a fresh identity and retry.
		auth.ID = uuid.New()
		auth.AccessCode = accesscode.New()
		service.attachQRPayload(ctx, auth)
	}
	return err
}

// attachQRPayload signs the QR credential. Failure is logged and leaves
// the payload empty: the access code alone remains usable at the gate.
func (service *Service) attachQRPayload(ctx context.Context, auth *Authorization) {
	// The credential stays verifiable until the day after the window ends.
	expiresAt := auth.EndDate.At(service.calendar.Location()).AddDate(0, 0, 1)

	payload, err := service.signer.Generate(auth.ID, auth.AccessCode, auth.Authorizer.UnitCode, expiresAt)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "qr_payload_generation_failed",
			slog.String("authorization_id", auth.ID),
			slog.Any("error", err),
		)
		return
	}
	auth.QRPayload = payload
}

// validateCreate applies the required-field and cross-field rules.
func (service *Service) validateCreate(input CreateInput) error {
	v := &validate.Validator{}

	v.Required("condominium_id", input.CondominiumID).
		OneOf("kind", string(input.Kind), string(KindVisitor), string(KindContractor)).
		OneOf("period_kind", string(input.PeriodKind), string(PeriodSingle), string(PeriodRecurring)).
		Required("visitor_name", input.VisitorName).
		MaxLen("visitor_name", input.VisitorName, 200).
		Required("phone", input.Phone).
		Required("authorizer_name", input.AuthorizerName).
		Required("authorizer_phone", input.AuthorizerPhone).
		Required("unit_code", input.UnitCode).
		DateNotZero("start_date", input.StartDate).
		DateNotZero("end_date", input.EndDate).
		DateOrder("end_date", input.StartDate, input.EndDate)

	if input.Phone != "" {
		v.Phone("phone", input.Phone)
	}

	if input.PeriodKind == PeriodRecurring {
		if input.Recurrence == nil {
			v.Custom("recurrence", true, "Recurring grants require a recurrence window")
		} else {
			v.Custom("recurrence.week_days", len(input.Recurrence.WeekDays) == 0,
				"At least one weekday is required").
				TimeOrder("recurrence.end_time", input.Recurrence.StartTime, input.Recurrence.EndTime)
		}
	}

	return v.Err()
}

// deviceDefaults fills audit device info from server-side observations
// when the requester supplied nothing.
func deviceDefaults(supplied *DeviceInfo, now time.Time, clientIP string) DeviceInfo {
	device := pointer.Fallback(supplied, DeviceInfo{})
	if device.Timestamp.IsZero() {
		device.Timestamp = now
	}
	if device.IP == "" {
		device.IP = clientIP
	}
	return device
}

// # Queries

// Get returns one authorization with freshly computed status.
func (service *Service) Get(ctx context.Context, id string) (*View, error) {
	auth, err := service.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := service.view(auth)
	return &result, nil
}

// ListInput narrows List results. All filters are optional.
type ListInput struct {
	CondominiumID string
	UnitCode      string
	Status        Status
	Page          pagination.Params
}

// List returns authorizations matching all supplied filters, newest first.
//
// The status filter compares against freshly computed status after the
// page is loaded, because status is derived and cannot be pushed into SQL.
// The pagination total therefore counts the rows before status filtering.
func (service *Service) List(ctx context.Context, input ListInput) ([]View, pagination.Meta, error) {
	filter := QueryFilter{
		CondominiumID: input.CondominiumID,
		UnitCode:      input.UnitCode,
		Limit:         input.Page.Limit,
		Offset:        input.Page.Offset(),
	}

	entities, err := service.repository.Query(ctx, filter)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	total, err := service.repository.Count(ctx, filter)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	views := slice.Map(entities, service.view)
	if input.Status != "" {
		views = slice.Filter(views, func(view View) bool {
			return view.Status == input.Status
		})
	}

	return views, pagination.NewMeta(input.Page.Page, input.Page.Limit, total), nil
}

// ValidateCode looks an authorization up by its gate code.
//
// Matching is case-insensitive and mutates nothing; gate staff inspect the
// returned view (including its computed status) before a manual check-in.
func (service *Service) ValidateCode(ctx context.Context, code string) (*View, error) {
	normalized := accesscode.Normalize(code)
	if normalized == "" {
		return nil, ErrInvalidCode
	}

	auth, err := service.repository.FindByAccessCode(ctx, normalized)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	result := service.view(auth)
	return &result, nil
}

// ValidateQR verifies a signed QR payload and resolves its authorization.
//
// The embedded access code must still match the stored record, so a stale
// token from a regenerated credential is rejected.
func (service *Service) ValidateQR(ctx context.Context, token string) (*View, error) {
	claims, err := service.signer.Verify(token)
	if err != nil {
		return nil, ErrInvalidCode
	}

	auth, err := service.repository.Get(ctx, claims.AuthorizationID)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if auth.AccessCode != accesscode.Normalize(claims.AccessCode) {
		return nil, ErrInvalidCode
	}

	result := service.view(auth)
	return &result, nil
}

// # Mutations

// Cancel flags the authorization as cancelled.
//
// Fails with [ErrInvalidStateForCancellation] unless the computed status
// is still Authorized (never used, not expired).
func (service *Service) Cancel(ctx context.Context, id, actorID string) (*View, error) {
	unlock := service.locks.Lock(id)
	defer unlock()

	auth, err := service.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.Cancel(actorID, service.calendar.Now(), service.calendar.Today()); err != nil {
		return nil, err
	}

	if err := service.commit(ctx, auth); err != nil {
		return nil, err
	}

	service.events.Publish(ctx, EventCancelled, auth, actorID)

	result := service.view(auth)
	return &result, nil
}

// CheckIn records a physical entry at the gate.
//
// The first-ever check-in must reference an uploaded document that exists
// and belongs to this same authorization.
func (service *Service) CheckIn(ctx context.Context, id, documentID, staffID, notes string) (*CheckInRecord, error) {
	unlock := service.locks.Lock(id)
	defer unlock()

	auth, err := service.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(auth.CheckIns) == 0 && documentID != "" {
		if err := service.verifyDocument(ctx, auth.ID, documentID); err != nil {
			return nil, err
		}
	}

	record, err := auth.RegisterCheckIn(documentID, staffID, notes, service.calendar.Now())
	if err != nil {
		return nil, err
	}

	if err := service.commit(ctx, auth); err != nil {
		return nil, err
	}

	service.events.Publish(ctx, EventCheckIn, auth, staffID)

	return record, nil
}

// CheckOut records a physical exit, closing the open check-in.
func (service *Service) CheckOut(ctx context.Context, id, staffID, notes string) (*CheckOutRecord, error) {
	unlock := service.locks.Lock(id)
	defer unlock()

	auth, err := service.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	record, err := auth.RegisterCheckOut(staffID, notes, service.calendar.Now())
	if err != nil {
		return nil, err
	}

	if err := service.commit(ctx, auth); err != nil {
		return nil, err
	}

	service.events.Publish(ctx, EventCheckOut, auth, staffID)

	return record, nil
}

// verifyDocument enforces the first-check-in document rules.
func (service *Service) verifyDocument(ctx context.Context, authorizationID, documentID string) error {
	document, err := service.documents.FindDocument(ctx, documentID)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return ErrDocumentMismatch
		}
		return err
	}

	if document.AuthorizationID != authorizationID {
		return ErrDocumentMismatch
	}

	return nil
}

// commit writes the mutated entity back, aborting if the caller has
// already gone away so a half-relevant write never lands.
func (service *Service) commit(ctx context.Context, auth *Authorization) error {
	if err := ctx.Err(); err != nil {
		return apperr.Internal(err)
	}
	return service.repository.Update(ctx, auth)
}
