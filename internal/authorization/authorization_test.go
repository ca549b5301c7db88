// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package authorization_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaocondominio/portaria/internal/authorization"
	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/clock"
)

// baseAuthorization builds a single-period grant valid 2025-01-10..2025-01-12.
func baseAuthorization() *authorization.Authorization {
	return &authorization.Authorization{
		ID:            "auth-1",
		CondominiumID: "condo-1",
		Kind:          authorization.KindVisitor,
		PeriodKind:    authorization.PeriodSingle,
		VisitorName:   "Carlos Pereira",
		Phone:         "11987654321",
		StartDate:     clock.NewDate(2025, time.January, 10),
		EndDate:       clock.NewDate(2025, time.January, 12),
		AccessCode:    "A1B2C3D4",
	}
}

func at(day int, hour int) time.Time {
	return time.Date(2025, time.January, day, hour, 0, 0, 0, time.UTC)
}

func withOpenCheckIn(auth *authorization.Authorization) *authorization.Authorization {
	auth.CheckIns = append(auth.CheckIns, authorization.CheckInRecord{
		ID: "ci-1", Timestamp: at(10, 9), DocumentID: "doc-1", StaffID: "staff-1",
	})
	return auth
}

func withClosedCycle(auth *authorization.Authorization) *authorization.Authorization {
	withOpenCheckIn(auth)
	auth.CheckOuts = append(auth.CheckOuts, authorization.CheckOutRecord{
		ID: "co-1", Timestamp: at(10, 17), StaffID: "staff-1",
	})
	return auth
}

func TestStatusEngine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		auth  *authorization.Authorization
		today clock.Date
		want  authorization.Status
	}{
		{
			name:  "before window starts",
			auth:  baseAuthorization(),
			today: clock.NewDate(2025, time.January, 9),
			want:  authorization.StatusAuthorized,
		},
		{
			name:  "window started no movement",
			auth:  baseAuthorization(),
			today: clock.NewDate(2025, time.January, 10),
			want:  authorization.StatusAuthorized,
		},
		{
			name:  "day after start never used",
			auth:  baseAuthorization(),
			today: clock.NewDate(2025, time.January, 11),
			want:  authorization.StatusExpired,
		},
		{
			name: "cancelled wins over everything",
			auth: func() *authorization.Authorization {
				a := withClosedCycle(baseAuthorization())
				a.Cancelled = true
				return a
			}(),
			today: clock.NewDate(2025, time.January, 20),
			want:  authorization.StatusCancelled,
		},
		{
			name:  "open check-in inside window",
			auth:  withOpenCheckIn(baseAuthorization()),
			today: clock.NewDate(2025, time.January, 10),
			want:  authorization.StatusInUse,
		},
		{
			name:  "closed cycle before end date may return",
			auth:  withClosedCycle(baseAuthorization()),
			today: clock.NewDate(2025, time.January, 11),
			want:  authorization.StatusInUse,
		},
		{
			name:  "closed cycle on end date",
			auth:  withClosedCycle(baseAuthorization()),
			today: clock.NewDate(2025, time.January, 12),
			want:  authorization.StatusCompleted,
		},
		{
			name:  "closed cycle after end date",
			auth:  withClosedCycle(baseAuthorization()),
			today: clock.NewDate(2025, time.January, 20),
			want:  authorization.StatusCompleted,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.auth.Status(tc.today))
		})
	}
}

// TestStatusSingleDayRoundTrip walks a one-day grant through the three
// days around its window.
func TestStatusSingleDayRoundTrip(t *testing.T) {
	t.Parallel()

	auth := baseAuthorization()
	auth.StartDate = clock.NewDate(2025, time.January, 10)
	auth.EndDate = clock.NewDate(2025, time.January, 10)

	assert.Equal(t, authorization.StatusAuthorized, auth.Status(clock.NewDate(2025, time.January, 9)))
	assert.Equal(t, authorization.StatusAuthorized, auth.Status(clock.NewDate(2025, time.January, 10)))
	assert.Equal(t, authorization.StatusExpired, auth.Status(clock.NewDate(2025, time.January, 11)))
}

func TestHasOpenCheckIn(t *testing.T) {
	t.Parallel()

	auth := baseAuthorization()
	assert.False(t, auth.HasOpenCheckIn())

	withOpenCheckIn(auth)
	assert.True(t, auth.HasOpenCheckIn())

	auth.CheckOuts = append(auth.CheckOuts, authorization.CheckOutRecord{
		ID: "co-1", Timestamp: at(10, 17), StaffID: "staff-1",
	})
	assert.False(t, auth.HasOpenCheckIn())

	// A later re-entry reopens.
	auth.CheckIns = append(auth.CheckIns, authorization.CheckInRecord{
		ID: "ci-2", Timestamp: at(11, 9), StaffID: "staff-1",
	})
	assert.True(t, auth.HasOpenCheckIn())

	// A check-out stamped at the same instant as the check-in does not
	// close it: only a strictly later one counts.
	auth.CheckOuts = append(auth.CheckOuts, authorization.CheckOutRecord{
		ID: "co-2", Timestamp: at(11, 9), StaffID: "staff-1",
	})
	assert.True(t, auth.HasOpenCheckIn())
}

func TestRegisterCheckIn(t *testing.T) {
	t.Parallel()

	t.Run("first check-in requires a document", func(t *testing.T) {
		t.Parallel()

		auth := baseAuthorization()
		_, err := auth.RegisterCheckIn("", "staff-1", "", at(10, 9))
		assert.ErrorIs(t, err, authorization.ErrDocumentRequired)
		assert.Empty(t, auth.CheckIns)
	})

	t.Run("second check-in without check-out is rejected", func(t *testing.T) {
		t.Parallel()

		auth := baseAuthorization()
		_, err := auth.RegisterCheckIn("doc-1", "staff-1", "", at(10, 9))
		require.NoError(t, err)
		assert.True(t, auth.HasOpenCheckIn())

		_, err = auth.RegisterCheckIn("doc-1", "staff-1", "", at(10, 10))
		assert.ErrorIs(t, err, authorization.ErrCheckInAlreadyOpen)
		assert.Len(t, auth.CheckIns, 1)
	})

	t.Run("re-entry after check-out needs no document", func(t *testing.T) {
		t.Parallel()

		auth := withClosedCycle(baseAuthorization())
		record, err := auth.RegisterCheckIn("", "staff-2", "returned for second visit", at(11, 9))
		require.NoError(t, err)
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "staff-2", record.StaffID)
		assert.Len(t, auth.CheckIns, 2)
	})

	t.Run("appends an audit entry and bumps updated_at", func(t *testing.T) {
		t.Parallel()

		auth := baseAuthorization()
		now := at(10, 9)
		_, err := auth.RegisterCheckIn("doc-1", "staff-1", "", now)
		require.NoError(t, err)

		require.NotEmpty(t, auth.EventLog)
		last := auth.EventLog[len(auth.EventLog)-1]
		assert.Equal(t, authorization.EventCheckIn, last.Event)
		assert.Equal(t, "staff-1", last.Actor)
		assert.Equal(t, now, auth.UpdatedAt)
	})
}

func TestRegisterCheckOut(t *testing.T) {
	t.Parallel()

	t.Run("without open check-in fails", func(t *testing.T) {
		t.Parallel()

		auth := baseAuthorization()
		_, err := auth.RegisterCheckOut("staff-1", "", at(10, 17))
		assert.ErrorIs(t, err, authorization.ErrNoOpenCheckIn)
	})

	t.Run("closes the open check-in", func(t *testing.T) {
		t.Parallel()

		auth := withOpenCheckIn(baseAuthorization())
		record, err := auth.RegisterCheckOut("staff-1", "left through main gate", at(10, 17))
		require.NoError(t, err)
		assert.NotEmpty(t, record.ID)
		assert.False(t, auth.HasOpenCheckIn())

		last := auth.EventLog[len(auth.EventLog)-1]
		assert.Equal(t, authorization.EventCheckOut, last.Event)
	})
}

func TestCancel(t *testing.T) {
	t.Parallel()

	t.Run("unused authorization cancels", func(t *testing.T) {
		t.Parallel()

		auth := baseAuthorization()
		today := clock.NewDate(2025, time.January, 9)

		require.NoError(t, auth.Cancel("MORADOR:ana", at(9, 12), today))
		assert.True(t, auth.Cancelled)
		assert.Equal(t, authorization.StatusCancelled, auth.Status(today))
	})

	t.Run("used authorization rejects cancellation", func(t *testing.T) {
		t.Parallel()

		auth := withClosedCycle(baseAuthorization())
		err := auth.Cancel("MORADOR:ana", at(11, 12), clock.NewDate(2025, time.January, 11))
		assert.ErrorIs(t, err, authorization.ErrInvalidStateForCancellation)
		assert.False(t, auth.Cancelled)
	})

	t.Run("expired authorization rejects cancellation", func(t *testing.T) {
		t.Parallel()

		auth := baseAuthorization()
		err := auth.Cancel("MORADOR:ana", at(20, 12), clock.NewDate(2025, time.January, 20))
		assert.ErrorIs(t, err, authorization.ErrInvalidStateForCancellation)
	})

	t.Run("double cancellation is rejected", func(t *testing.T) {
		t.Parallel()

		auth := baseAuthorization()
		today := clock.NewDate(2025, time.January, 9)
		require.NoError(t, auth.Cancel("MORADOR:ana", at(9, 12), today))

		err := auth.Cancel("MORADOR:ana", at(9, 13), today)
		assert.ErrorIs(t, err, authorization.ErrInvalidStateForCancellation)
	})
}

func TestPermittedAt(t *testing.T) {
	t.Parallel()

	start, _ := clock.ParseTimeOfDay("08:00")
	end, _ := clock.ParseTimeOfDay("18:00")

	recurring := baseAuthorization()
	recurring.PeriodKind = authorization.PeriodRecurring
	recurring.Recurrence = &authorization.Recurrence{
		WeekDays:  []time.Weekday{time.Monday},
		StartTime: start,
		EndTime:   end,
	}

	// 2025-01-13 is a Monday, 2025-01-14 a Tuesday.
	monday0800 := time.Date(2025, time.January, 13, 8, 0, 0, 0, time.UTC)
	monday0900 := time.Date(2025, time.January, 13, 9, 0, 0, 0, time.UTC)
	monday1800 := time.Date(2025, time.January, 13, 18, 0, 0, 0, time.UTC)
	monday1900 := time.Date(2025, time.January, 13, 19, 0, 0, 0, time.UTC)
	tuesday0900 := time.Date(2025, time.January, 14, 9, 0, 0, 0, time.UTC)

	assert.True(t, recurring.PermittedAt(monday0900, time.UTC))
	assert.False(t, recurring.PermittedAt(monday1900, time.UTC))
	assert.False(t, recurring.PermittedAt(tuesday0900, time.UTC))

	// Window edges are inclusive on both sides.
	assert.True(t, recurring.PermittedAt(monday0800, time.UTC))
	assert.True(t, recurring.PermittedAt(monday1800, time.UTC))

	// A zero-width window permits exactly its minute.
	pointWindow := baseAuthorization()
	pointWindow.PeriodKind = authorization.PeriodRecurring
	pointWindow.Recurrence = &authorization.Recurrence{
		WeekDays:  []time.Weekday{time.Monday},
		StartTime: start,
		EndTime:   start,
	}
	assert.True(t, pointWindow.PermittedAt(monday0800, time.UTC))
	assert.False(t, pointWindow.PermittedAt(monday0900, time.UTC))

	// Single-period grants carry no daily restriction.
	single := baseAuthorization()
	assert.True(t, single.PermittedAt(monday1900, time.UTC))
}

func TestBusinessRuleErrorCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		code string
	}{
		{authorization.ErrCheckInAlreadyOpen, "CHECK_IN_ALREADY_OPEN"},
		{authorization.ErrNoOpenCheckIn, "NO_OPEN_CHECK_IN"},
		{authorization.ErrDocumentRequired, "DOCUMENT_REQUIRED"},
		{authorization.ErrDocumentMismatch, "DOCUMENT_MISMATCH"},
		{authorization.ErrInvalidStateForCancellation, "INVALID_STATE_FOR_CANCELLATION"},
		{authorization.ErrInvalidCode, "INVALID_CODE"},
	}

	for _, tc := range tests {
		ae := apperr.As(tc.err)
		require.NotNil(t, ae)
		assert.Equal(t, tc.code, ae.Code)
		assert.Equal(t, 400, ae.HTTPStatus)
	}
}
