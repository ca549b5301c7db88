// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shorturl

import (
	"context"

	"github.com/gestaocondominio/portaria/internal/platform/apperr"
	"github.com/gestaocondominio/portaria/internal/platform/clock"
	"github.com/gestaocondominio/portaria/internal/platform/validate"
)

// createRetryLimit bounds id regeneration on insert collisions.
const createRetryLimit = 3

// Service implements the share-link use cases.
type Service struct {
	repository Repository
	calendar   *clock.Calendar
}

// NewService constructs a [Service].
func NewService(repository Repository, calendar *clock.Calendar) *Service {
	return &Service{repository: repository, calendar: calendar}
}

// CreateInput holds the resident data pre-filled into the form link.
type CreateInput struct {
	Name     string
	Phone    string
	UnitCode string
	Keyword  string
}

// Create mints and persists a new share link with the default TTL.
func (service *Service) Create(ctx context.Context, input CreateInput) (*ShortURL, error) {
	v := &validate.Validator{}
	v.Required("name", input.Name).
		Required("phone", input.Phone).
		Required("unit_code", input.UnitCode)
	if input.Phone != "" {
		v.Phone("phone", input.Phone)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := service.calendar.Now()
	link := &ShortURL{
		Name:      input.Name,
		Phone:     input.Phone,
		UnitCode:  input.UnitCode,
		Keyword:   input.Keyword,
		CreatedAt: now,
		ExpiresAt: now.Add(DefaultTTL),
		Active:    true,
	}

	var err error
	for attempt := 0; attempt < createRetryLimit; attempt++ {
		link.ID, err = NewID()
		if err != nil {
			return nil, apperr.Internal(err)
		}

		err = service.repository.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !apperr.HasCode(err, "CONFLICT") {
			return nil, err
		}
	}
	return nil, err
}

// Resolve returns a usable link or [ErrLinkGone] when it expired or was
// deactivated.
func (service *Service) Resolve(ctx context.Context, id string) (*ShortURL, error) {
	link, err := service.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !link.Usable(service.calendar.Now()) {
		return nil, ErrLinkGone
	}
	return link, nil
}

// Deactivate turns a link off before its natural expiry.
func (service *Service) Deactivate(ctx context.Context, id string) error {
	return service.repository.Deactivate(ctx, id)
}
