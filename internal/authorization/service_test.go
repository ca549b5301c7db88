// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package authorization_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaocondominio/portaria/internal/authorization"
	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/clock"
	"github.com/gestaocondominio/portaria/internal/platform/sec"
	"github.com/gestaocondominio/portaria/pkg/pagination"
)

// # Test Doubles

type memoryRepository struct {
	mu    sync.Mutex
	items map[string]*authorization.Authorization
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: make(map[string]*authorization.Authorization)}
}

func (r *memoryRepository) Add(_ context.Context, auth *authorization.Authorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[auth.ID]; exists {
		return apperr.Conflict("Authorization id already exists")
	}
	r.items[auth.ID] = auth
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (*authorization.Authorization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	auth, ok := r.items[id]
	if !ok {
		return nil, apperr.NotFound("Authorization")
	}
	return auth, nil
}

func (r *memoryRepository) FindByAccessCode(_ context.Context, code string) (*authorization.Authorization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, auth := range r.items {
		if auth.AccessCode == code {
			return auth, nil
		}
	}
	return nil, apperr.NotFound("Authorization")
}

func (r *memoryRepository) Query(_ context.Context, filter authorization.QueryFilter) ([]*authorization.Authorization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var results []*authorization.Authorization
	for _, auth := range r.items {
		if filter.CondominiumID != "" && auth.CondominiumID != filter.CondominiumID {
			continue
		}
		if filter.UnitCode != "" && auth.Authorizer.UnitCode != filter.UnitCode {
			continue
		}
		results = append(results, auth)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

func (r *memoryRepository) Count(ctx context.Context, filter authorization.QueryFilter) (int, error) {
	results, err := r.Query(ctx, filter)
	return len(results), err
}

func (r *memoryRepository) Update(_ context.Context, auth *authorization.Authorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[auth.ID]; !ok {
		return apperr.NotFound("Authorization")
	}
	r.items[auth.ID] = auth
	return nil
}

type memoryDocuments struct {
	docs map[string]string // document id -> authorization id
}

func (d *memoryDocuments) FindDocument(_ context.Context, id string) (*authorization.DocumentRef, error) {
	authorizationID, ok := d.docs[id]
	if !ok {
		return nil, apperr.NotFound("Document")
	}
	return &authorization.DocumentRef{ID: id, AuthorizationID: authorizationID}, nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (p *eventRecorder) Publish(_ context.Context, eventKind string, _ *authorization.Authorization, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventKind)
}

func (p *eventRecorder) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// # Fixture

type fixture struct {
	service    *authorization.Service
	repository *memoryRepository
	documents  *memoryDocuments
	events     *eventRecorder
}

// newFixture wires a service frozen at 2025-01-10 12:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	calendar, err := clock.NewCalendar(
		clock.Fixed(time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)), "UTC")
	require.NoError(t, err)

	signer, err := sec.NewQRTokenService("test-secret", "portaria.test")
	require.NoError(t, err)

	repository := newMemoryRepository()
	documents := &memoryDocuments{docs: make(map[string]string)}
	events := &eventRecorder{}

	return &fixture{
		service:    authorization.NewService(repository, documents, signer, events, calendar),
		repository: repository,
		documents:  documents,
		events:     events,
	}
}

func validInput() authorization.CreateInput {
	return authorization.CreateInput{
		CondominiumID:   "condo-1",
		Kind:            authorization.KindVisitor,
		PeriodKind:      authorization.PeriodSingle,
		VisitorName:     "Carlos Pereira",
		Phone:           "11987654321",
		StartDate:       clock.NewDate(2025, time.January, 10),
		EndDate:         clock.NewDate(2025, time.January, 12),
		AuthorizerName:  "Ana Souza",
		AuthorizerPhone: "11912345678",
		UnitCode:        "Bloco A - 101",
	}
}

// # Tests

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	t.Run("success populates identity and credentials", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		view, err := f.service.Create(context.Background(), validInput(), "MORADOR:ana", "10.0.0.9")
		require.NoError(t, err)

		assert.NotEmpty(t, view.ID)
		assert.Len(t, view.AccessCode, 8)
		assert.NotEmpty(t, view.QRPayload)
		assert.Equal(t, "MORADOR:ana", view.CreatedBy)
		assert.Equal(t, authorization.StatusAuthorized, view.Status)
		assert.Equal(t, "10.0.0.9", view.Device.IP)

		require.Len(t, view.EventLog, 1)
		assert.Equal(t, authorization.EventCreated, view.EventLog[0].Event)
		assert.Equal(t, []string{authorization.EventCreated}, f.events.recorded())
	})

	t.Run("missing required fields", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		input := validInput()
		input.VisitorName = ""
		input.Phone = ""

		_, err := f.service.Create(context.Background(), input, "MORADOR:ana", "")
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
		assert.NotEmpty(t, ae.Details)
	})

	t.Run("inverted dates", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		input := validInput()
		input.StartDate = clock.NewDate(2025, time.January, 12)
		input.EndDate = clock.NewDate(2025, time.January, 10)

		_, err := f.service.Create(context.Background(), input, "MORADOR:ana", "")
		assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
	})

	t.Run("recurring without recurrence window", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		input := validInput()
		input.PeriodKind = authorization.PeriodRecurring

		_, err := f.service.Create(context.Background(), input, "MORADOR:ana", "")
		assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
	})

	t.Run("recurring with zero-width daily window", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		eight, err := clock.ParseTimeOfDay("08:00")
		require.NoError(t, err)

		input := validInput()
		input.PeriodKind = authorization.PeriodRecurring
		input.Recurrence = &authorization.Recurrence{
			WeekDays:  []time.Weekday{time.Friday},
			StartTime: eight,
			EndTime:   eight,
		}

		view, err := f.service.Create(context.Background(), input, "MORADOR:ana", "")
		require.NoError(t, err)

		// 2025-01-10 is a Friday; the fixture clock reads 12:00.
		assert.False(t, view.PermittedNow)
	})

	t.Run("authorizer confirmation timestamp is kept", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		confirmedAt := time.Date(2025, time.January, 9, 20, 30, 0, 0, time.UTC)

		input := validInput()
		input.AuthorizerConfirmedAt = &confirmedAt

		view, err := f.service.Create(context.Background(), input, "MORADOR:ana", "")
		require.NoError(t, err)

		require.NotNil(t, view.Authorizer.ConfirmedAt)
		assert.Equal(t, confirmedAt, *view.Authorizer.ConfirmedAt)

		// Absent confirmation stays absent.
		unconfirmed, err := f.service.Create(context.Background(), validInput(), "MORADOR:ana", "")
		require.NoError(t, err)
		assert.Nil(t, unconfirmed.Authorizer.ConfirmedAt)
	})

	t.Run("supplied device info keeps its fields", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		input := validInput()
		input.Device = &authorization.DeviceInfo{Browser: "Safari", IP: "192.168.0.5"}

		view, err := f.service.Create(context.Background(), input, "MORADOR:ana", "10.0.0.9")
		require.NoError(t, err)
		assert.Equal(t, "Safari", view.Device.Browser)
		assert.Equal(t, "192.168.0.5", view.Device.IP)
		assert.False(t, view.Device.Timestamp.IsZero())
	})
}

func TestServiceGet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	created, err := f.service.Create(context.Background(), validInput(), "MORADOR:ana", "")
	require.NoError(t, err)

	view, err := f.service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)
	assert.Equal(t, authorization.StatusAuthorized, view.Status)

	_, err = f.service.Get(context.Background(), "missing")
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
}

func TestServiceListStatusFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	active, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
	require.NoError(t, err)

	cancelled, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
	require.NoError(t, err)
	_, err = f.service.Cancel(ctx, cancelled.ID, "MORADOR:ana")
	require.NoError(t, err)

	page := pagination.Params{Page: 1, Limit: 20}

	views, _, err := f.service.List(ctx, authorization.ListInput{
		Status: authorization.StatusAuthorized,
		Page:   page,
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, active.ID, views[0].ID)

	views, _, err = f.service.List(ctx, authorization.ListInput{
		Status: authorization.StatusCancelled,
		Page:   page,
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, cancelled.ID, views[0].ID)
}

func TestServiceCheckInDocumentRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first check-in without document", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		created, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
		require.NoError(t, err)

		_, err = f.service.CheckIn(ctx, created.ID, "", "PORTARIA:joao", "")
		assert.ErrorIs(t, err, authorization.ErrDocumentRequired)
	})

	t.Run("document of another authorization", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		created, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
		require.NoError(t, err)
		f.documents.docs["doc-other"] = "some-other-authorization"

		_, err = f.service.CheckIn(ctx, created.ID, "doc-other", "PORTARIA:joao", "")
		assert.ErrorIs(t, err, authorization.ErrDocumentMismatch)
	})

	t.Run("unknown document", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		created, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
		require.NoError(t, err)

		_, err = f.service.CheckIn(ctx, created.ID, "doc-ghost", "PORTARIA:joao", "")
		assert.ErrorIs(t, err, authorization.ErrDocumentMismatch)
	})

	t.Run("matching document succeeds and persists", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		created, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
		require.NoError(t, err)
		f.documents.docs["doc-1"] = created.ID

		record, err := f.service.CheckIn(ctx, created.ID, "doc-1", "PORTARIA:joao", "arrived on foot")
		require.NoError(t, err)
		assert.Equal(t, "doc-1", record.DocumentID)

		stored, err := f.service.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, authorization.StatusInUse, stored.Status)
		assert.Contains(t, f.events.recorded(), authorization.EventCheckIn)
	})
}

func TestServiceCheckOutFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
	require.NoError(t, err)

	_, err = f.service.CheckOut(ctx, created.ID, "PORTARIA:joao", "")
	assert.ErrorIs(t, err, authorization.ErrNoOpenCheckIn)

	f.documents.docs["doc-1"] = created.ID
	_, err = f.service.CheckIn(ctx, created.ID, "doc-1", "PORTARIA:joao", "")
	require.NoError(t, err)

	_, err = f.service.CheckOut(ctx, created.ID, "PORTARIA:joao", "left 17h")
	require.NoError(t, err)

	// Window end is 2025-01-12 and the frozen clock says 2025-01-10, so
	// the closed cycle still reads as InUse (the visitor may return).
	stored, err := f.service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, authorization.StatusInUse, stored.Status)
}

func TestServiceCancel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
	require.NoError(t, err)

	view, err := f.service.Cancel(ctx, created.ID, "MORADOR:ana")
	require.NoError(t, err)
	assert.Equal(t, authorization.StatusCancelled, view.Status)

	_, err = f.service.Cancel(ctx, created.ID, "MORADOR:ana")
	assert.ErrorIs(t, err, authorization.ErrInvalidStateForCancellation)

	_, err = f.service.Cancel(ctx, "missing", "MORADOR:ana")
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
}

func TestServiceValidateCode(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
	require.NoError(t, err)

	// Case-insensitive match, nothing mutated.
	view, err := f.service.ValidateCode(ctx, "  "+strings.ToLower(created.AccessCode)+" ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)
	assert.Len(t, view.EventLog, 1)

	_, err = f.service.ValidateCode(ctx, "ZZZZ9999")
	assert.ErrorIs(t, err, authorization.ErrInvalidCode)

	_, err = f.service.ValidateCode(ctx, "   ")
	assert.ErrorIs(t, err, authorization.ErrInvalidCode)
}

func TestServiceValidateQR(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput(), "MORADOR:ana", "")
	require.NoError(t, err)
	require.NotEmpty(t, created.QRPayload)

	view, err := f.service.ValidateQR(ctx, created.QRPayload)
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)

	_, err = f.service.ValidateQR(ctx, created.QRPayload+"tampered")
	assert.ErrorIs(t, err, authorization.ErrInvalidCode)
}
