// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shorturl_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/clock"
	"github.com/gestaocondominio/portaria/internal/shorturl"
)

// memoryRepository is an in-memory shorturl.Repository for service tests.
type memoryRepository struct {
	mu    sync.Mutex
	links map[string]shorturl.ShortURL
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{links: make(map[string]shorturl.ShortURL)}
}

func (repository *memoryRepository) Create(_ context.Context, link *shorturl.ShortURL) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, exists := repository.links[link.ID]; exists {
		return apperr.Conflict("link id already exists")
	}
	repository.links[link.ID] = *link
	return nil
}

func (repository *memoryRepository) Get(_ context.Context, id string) (*shorturl.ShortURL, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	link, exists := repository.links[id]
	if !exists {
		return nil, apperr.NotFound("Short link")
	}
	return &link, nil
}

func (repository *memoryRepository) Deactivate(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	link, exists := repository.links[id]
	if !exists {
		return apperr.NotFound("Short link")
	}
	link.Active = false
	repository.links[id] = link
	return nil
}

func newFixedCalendar(t *testing.T, at time.Time) *clock.Calendar {
	t.Helper()
	calendar, err := clock.NewCalendar(clock.Fixed(at), "UTC")
	require.NoError(t, err)
	return calendar
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id, err := shorturl.NewID()
		require.NoError(t, err)
		assert.Len(t, id, shorturl.IDLength)
		for _, r := range id {
			assert.True(t,
				(r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'),
				"unexpected character %q in id %q", r, id)
		}
		seen[id] = true
	}

	// 100 draws from a 62^8 space should never collide.
	assert.Len(t, seen, 100)
}

func TestUsable(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	link := &shorturl.ShortURL{Active: true, ExpiresAt: now.Add(time.Hour)}

	assert.True(t, link.Usable(now))
	assert.False(t, link.Usable(now.Add(2*time.Hour)), "expired link should not be usable")

	link.Active = false
	assert.False(t, link.Usable(now), "deactivated link should not be usable")
}

func TestFormURL(t *testing.T) {
	link := &shorturl.ShortURL{
		Name:     "Maria Silva",
		Phone:    "5511988887777",
		UnitCode: "A-101",
		Keyword:  "mudança",
	}

	got := link.FormURL("https://forms.example.com/visita")

	assert.True(t, strings.HasPrefix(got, "https://forms.example.com/visita?"))
	assert.Contains(t, got, "nome=Maria+Silva")
	assert.Contains(t, got, "telefone=5511988887777")
	assert.Contains(t, got, "unidade=A-101")
	assert.Contains(t, got, "palavra=mudan%C3%A7a")
}

func TestFormURLOmitsEmptyKeyword(t *testing.T) {
	link := &shorturl.ShortURL{Name: "Maria", Phone: "5511988887777", UnitCode: "A-101"}

	assert.NotContains(t, link.FormURL("https://forms.example.com/visita"), "palavra")
}

func TestServiceCreate(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	service := shorturl.NewService(newMemoryRepository(), newFixedCalendar(t, now))

	link, err := service.Create(context.Background(), shorturl.CreateInput{
		Name:     "Maria Silva",
		Phone:    "5511988887777",
		UnitCode: "A-101",
	})
	require.NoError(t, err)

	assert.Len(t, link.ID, shorturl.IDLength)
	assert.True(t, link.Active)
	assert.Equal(t, now, link.CreatedAt)
	assert.Equal(t, now.Add(shorturl.DefaultTTL), link.ExpiresAt)
}

func TestServiceCreateValidation(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	service := shorturl.NewService(newMemoryRepository(), newFixedCalendar(t, now))

	tests := []struct {
		name  string
		input shorturl.CreateInput
	}{
		{
			name:  "missing name",
			input: shorturl.CreateInput{Phone: "5511988887777", UnitCode: "A-101"},
		},
		{
			name:  "missing phone",
			input: shorturl.CreateInput{Name: "Maria", UnitCode: "A-101"},
		},
		{
			name:  "missing unit",
			input: shorturl.CreateInput{Name: "Maria", Phone: "5511988887777"},
		},
		{
			name:  "malformed phone",
			input: shorturl.CreateInput{Name: "Maria", Phone: "not-a-phone", UnitCode: "A-101"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), tc.input)
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
		})
	}
}

func TestServiceResolve(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	repository := newMemoryRepository()
	service := shorturl.NewService(repository, newFixedCalendar(t, now))

	created, err := service.Create(context.Background(), shorturl.CreateInput{
		Name:     "Maria Silva",
		Phone:    "5511988887777",
		UnitCode: "A-101",
	})
	require.NoError(t, err)

	resolved, err := service.Resolve(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)

	_, err = service.Resolve(context.Background(), "missing00")
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
}

func TestServiceResolveExpired(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	repository := newMemoryRepository()
	service := shorturl.NewService(repository, newFixedCalendar(t, now))

	created, err := service.Create(context.Background(), shorturl.CreateInput{
		Name:     "Maria Silva",
		Phone:    "5511988887777",
		UnitCode: "A-101",
	})
	require.NoError(t, err)

	late := shorturl.NewService(repository, newFixedCalendar(t, now.Add(shorturl.DefaultTTL+time.Minute)))

	_, err = late.Resolve(context.Background(), created.ID)
	assert.True(t, apperr.HasCode(err, "LINK_GONE"))
}

func TestServiceDeactivate(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	repository := newMemoryRepository()
	service := shorturl.NewService(repository, newFixedCalendar(t, now))

	created, err := service.Create(context.Background(), shorturl.CreateInput{
		Name:     "Maria Silva",
		Phone:    "5511988887777",
		UnitCode: "A-101",
	})
	require.NoError(t, err)

	require.NoError(t, service.Deactivate(context.Background(), created.ID))

	_, err = service.Resolve(context.Background(), created.ID)
	assert.True(t, apperr.HasCode(err, "LINK_GONE"))
}
