// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authorization contains the gate-access aggregate and its lifecycle rules.

# Architecture

The Authorization entity is the single aggregate of the system: a
time-bounded grant of physical access for a named visitor or contractor,
carrying its own movement history (check-ins/check-outs) and an append-only
event log.

Status is never stored. It is derived on every read from the persisted
facts (cancellation flag, validity window, movement history) against the
condominium's local calendar day, so it can never drift from the rule set
in [Authorization.Status]. The only status-like field that is ever written
is the cancellation flag.
*/
package authorization

import (
	"slices"
	"time"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/clock"
	"github.com/gestaocondominio/portaria/pkg/uuid"
)

// # Classification

// Kind discriminates who the access grant is for.
type Kind string

const (
	KindVisitor    Kind = "visitor"
	KindContractor Kind = "contractor"
)

// PeriodKind discriminates how the validity window is interpreted.
type PeriodKind string

const (
	// PeriodSingle grants access on any day inside the validity window.
	PeriodSingle PeriodKind = "single"
	// PeriodRecurring additionally restricts access to a weekday set and
	// a daily time window.
	PeriodRecurring PeriodKind = "recurring"
)

// Status is the derived lifecycle state of an authorization.
type Status string

const (
	// StatusAuthorized means the grant is usable (now or in the future).
	StatusAuthorized Status = "authorized"
	// StatusInUse means the visitor is, or was recently, on the premises.
	StatusInUse Status = "in_use"
	// StatusCompleted means the visit cycle closed and the window has passed.
	StatusCompleted Status = "completed"
	// StatusExpired means the window passed without the grant being used.
	StatusExpired Status = "expired"
	// StatusCancelled is terminal and explicit.
	StatusCancelled Status = "cancelled"
)

// # Business Rule Errors

var (
	ErrCheckInAlreadyOpen = apperr.Invalid("CHECK_IN_ALREADY_OPEN",
		"An open check-in already exists for this authorization")
	ErrNoOpenCheckIn = apperr.Invalid("NO_OPEN_CHECK_IN",
		"There is no open check-in to close")
	ErrDocumentRequired = apperr.Invalid("DOCUMENT_REQUIRED",
		"The first check-in requires an identification document")
	ErrDocumentMismatch = apperr.Invalid("DOCUMENT_MISMATCH",
		"The referenced document does not belong to this authorization")
	ErrInvalidStateForCancellation = apperr.Invalid("INVALID_STATE_FOR_CANCELLATION",
		"Only an unused, unexpired authorization can be cancelled")
	ErrInvalidCode = apperr.Invalid("INVALID_CODE",
		"Unknown access code")
)

// # Value Objects

// Recurrence restricts a recurring grant to certain weekdays and a daily
// time window. Only meaningful when PeriodKind is [PeriodRecurring].
type Recurrence struct {
	WeekDays  []time.Weekday  `json:"week_days"`
	StartTime clock.TimeOfDay `json:"start_time"`
	EndTime   clock.TimeOfDay `json:"end_time"`
}

// Vehicle describes the visitor's declared vehicle, if any.
type Vehicle struct {
	Plate string `json:"plate"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

// Authorizer records who granted the access. Immutable once set.
type Authorizer struct {
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	UnitCode    string     `json:"unit_code"`
	RequestedAt time.Time  `json:"requested_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// DeviceInfo captures the requesting device for audit purposes. The IP
// falls back to the server-observed address when the client omits it.
type DeviceInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Device    string    `json:"device,omitempty"`
	Browser   string    `json:"browser,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	Language  string    `json:"language,omitempty"`
	IP        string    `json:"ip,omitempty"`
}

// CheckInRecord is one physical-entry event.
type CheckInRecord struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	DocumentID string    `json:"document_id,omitempty"`
	StaffID    string    `json:"staff_id"`
	Notes      string    `json:"notes,omitempty"`
}

// CheckOutRecord is one physical-exit event.
type CheckOutRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	StaffID   string    `json:"staff_id"`
	Notes     string    `json:"notes,omitempty"`
}

// Event kinds recorded in the audit log.
const (
	EventCreated   = "created"
	EventCheckIn   = "check_in"
	EventCheckOut  = "check_out"
	EventCancelled = "cancelled"
)

// LogEntry is one append-only audit-trail record.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Event     string    `json:"event"`
	Message   string    `json:"message,omitempty"`
}

// # Aggregate

// Authorization is the durable gate-access aggregate.
type Authorization struct {
	ID            string `json:"id"`
	CondominiumID string `json:"condominium_id"`

	Kind       Kind       `json:"kind"`
	PeriodKind PeriodKind `json:"period_kind"`

	// Person
	VisitorName    string `json:"visitor_name"`
	Phone          string `json:"phone"`
	Email          string `json:"email,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	Company        string `json:"company,omitempty"`

	// Validity window, both dates inclusive.
	StartDate clock.Date `json:"start_date"`
	EndDate   clock.Date `json:"end_date"`

	Recurrence *Recurrence `json:"recurrence,omitempty"`
	Vehicle    *Vehicle    `json:"vehicle,omitempty"`
	Authorizer Authorizer  `json:"authorizer"`
	Device     DeviceInfo  `json:"device_info"`

	// Gate credentials.
	AccessCode string `json:"access_code"`
	QRPayload  string `json:"qr_payload,omitempty"`

	// The only persisted status-like fact.
	Cancelled bool `json:"cancelled"`

	// Audit
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by"`

	CheckIns  []CheckInRecord  `json:"check_ins"`
	CheckOuts []CheckOutRecord `json:"check_outs"`
	EventLog  []LogEntry       `json:"event_log"`
}

// # Status Engine

// Status derives the lifecycle state for the given local calendar day.
//
// The rules fire in order; the first match wins:
//
//  1. Cancelled is terminal.
//  2. The window started before today and the grant was never used: Expired.
//  3. Movement history exists and every check-in is closed: Completed once
//     the window has ended, otherwise InUse (the visitor may return).
//  4. A single-period grant with an open check-in inside the window: InUse.
//  5. The window has started: Expired once the end date passed, otherwise
//     Authorized.
//  6. The window has not started yet: Authorized.
//
// For fixed history, dates and cancellation flag this is a pure, total
// function of today: every date maps to exactly one state.
func (a *Authorization) Status(today clock.Date) Status {
	if a.Cancelled {
		return StatusCancelled
	}

	if today.After(a.StartDate) && len(a.CheckIns) == 0 && len(a.CheckOuts) == 0 {
		return StatusExpired
	}

	if len(a.CheckIns) > 0 && !a.HasOpenCheckIn() {
		if !today.Before(a.EndDate) {
			return StatusCompleted
		}
		return StatusInUse
	}

	if a.PeriodKind == PeriodSingle && !today.Before(a.StartDate) && a.HasOpenCheckIn() {
		return StatusInUse
	}

	if !today.Before(a.StartDate) {
		if today.After(a.EndDate) {
			return StatusExpired
		}
		return StatusAuthorized
	}

	return StatusAuthorized
}

// HasOpenCheckIn reports whether the latest check-in has no later check-out.
func (a *Authorization) HasOpenCheckIn() bool {
	if len(a.CheckIns) == 0 {
		return false
	}
	if len(a.CheckOuts) == 0 {
		return true
	}

	lastIn := a.CheckIns[len(a.CheckIns)-1].Timestamp
	lastOut := a.CheckOuts[len(a.CheckOuts)-1].Timestamp
	// An equal-timestamp check-out does not close the cycle: only a
	// strictly later one counts.
	return !lastIn.Before(lastOut)
}

// PermittedAt evaluates the recurrence window against an instant in the
// condominium's zone. Single-period grants carry no daily restriction, so
// they are always permitted here; the validity window itself is enforced
// by [Authorization.Status].
func (a *Authorization) PermittedAt(instant time.Time, loc *time.Location) bool {
	if a.PeriodKind != PeriodRecurring || a.Recurrence == nil {
		return true
	}

	local := instant.In(loc)
	if !slices.Contains(a.Recurrence.WeekDays, local.Weekday()) {
		return false
	}

	timeOfDay := clock.TimeOfDayFrom(local)
	return timeOfDay >= a.Recurrence.StartTime && timeOfDay <= a.Recurrence.EndTime
}

// # Movement Policy

// RegisterCheckIn appends a physical-entry record.
//
// Preconditions:
//   - No open check-in exists ([ErrCheckInAlreadyOpen]).
//   - The first-ever check-in must carry a document id
//     ([ErrDocumentRequired]). Whether that document exists and belongs to
//     this authorization is verified by the service before calling here.
func (a *Authorization) RegisterCheckIn(documentID, staffID, notes string, now time.Time) (*CheckInRecord, error) {
	if a.HasOpenCheckIn() {
		return nil, ErrCheckInAlreadyOpen
	}

	if len(a.CheckIns) == 0 && documentID == "" {
		return nil, ErrDocumentRequired
	}

	record := CheckInRecord{
		ID:         uuid.New(),
		Timestamp:  now,
		DocumentID: documentID,
		StaffID:    staffID,
		Notes:      notes,
	}

	a.CheckIns = append(a.CheckIns, record)
	a.appendLog(now, staffID, EventCheckIn, "Check-in registered")
	a.UpdatedAt = now

	return &record, nil
}

// RegisterCheckOut appends a physical-exit record closing the open check-in.
func (a *Authorization) RegisterCheckOut(staffID, notes string, now time.Time) (*CheckOutRecord, error) {
	if !a.HasOpenCheckIn() {
		return nil, ErrNoOpenCheckIn
	}

	record := CheckOutRecord{
		ID:        uuid.New(),
		Timestamp: now,
		StaffID:   staffID,
		Notes:     notes,
	}

	a.CheckOuts = append(a.CheckOuts, record)
	a.appendLog(now, staffID, EventCheckOut, "Check-out registered")
	a.UpdatedAt = now

	return &record, nil
}

// Cancel sets the cancellation flag.
//
// Cancellation is only valid while the authorization has not been used and
// has not expired; every other computed state fails with
// [ErrInvalidStateForCancellation].
func (a *Authorization) Cancel(actorID string, now time.Time, today clock.Date) error {
	if a.Status(today) != StatusAuthorized {
		return ErrInvalidStateForCancellation
	}

	a.Cancelled = true
	a.appendLog(now, actorID, EventCancelled, "Authorization cancelled")
	a.UpdatedAt = now

	return nil
}

// appendLog grows the append-only audit trail. Entries are never mutated
// or removed.
func (a *Authorization) appendLog(now time.Time, actor, event, message string) {
	a.EventLog = append(a.EventLog, LogEntry{
		Timestamp: now,
		Actor:     actor,
		Event:     event,
		Message:   message,
	})
}
