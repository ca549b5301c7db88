// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package unit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gestaocondominio/portaria/internal/messaging"
	"github.com/gestaocondominio/portaria/internal/platform/constants"
	"github.com/gestaocondominio/portaria/internal/platform/ctxutil"
)

// cacheTTL bounds how long a phone resolution may outlive the directory.
const cacheTTL = 10 * time.Minute

// Service wraps the [Directory] with a Redis read-through cache on the
// phone lookup hot path. The cache is a pure accelerator: every Redis
// failure falls back to the in-memory directory.
type Service struct {
	directory *Directory
	cache     *redis.Client
}

// NewService constructs a [Service]. A nil cache disables Redis entirely.
func NewService(directory *Directory, cache *redis.Client) *Service {
	return &Service{directory: directory, cache: cache}
}

// Reload forces a directory re-read. The generation bump makes every
// cached phone entry unreachable, so no explicit invalidation is needed.
func (service *Service) Reload() error {
	return service.directory.Reload()
}

// Condominiums returns the current directory content.
func (service *Service) Condominiums() ([]Condominium, error) {
	return service.directory.Condominiums()
}

// FindByPhone resolves a phone to its registered unit(s), consulting the
// cache first.
func (service *Service) FindByPhone(ctx context.Context, condominiumID, phone string) ([]Match, error) {
	key := service.cacheKey(condominiumID, phone)

	if matches, ok := service.cacheGet(ctx, key); ok {
		return matches, nil
	}

	matches, err := service.directory.FindByPhone(condominiumID, phone)
	if err != nil {
		return nil, err
	}

	service.cacheSet(ctx, key, matches)
	return matches, nil
}

// cacheKey embeds the directory generation so a reload orphans old entries.
func (service *Service) cacheKey(condominiumID, phone string) string {
	return fmt.Sprintf("%s%d:%s:%s",
		constants.RedisPrefixUnitPhone,
		service.directory.Generation(),
		condominiumID,
		messaging.NormalizePhone(phone),
	)
}

func (service *Service) cacheGet(ctx context.Context, key string) ([]Match, bool) {
	if service.cache == nil {
		return nil, false
	}

	raw, err := service.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var matches []Match
	if err := json.Unmarshal(raw, &matches); err != nil {
		return nil, false
	}
	return matches, true
}

func (service *Service) cacheSet(ctx context.Context, key string, matches []Match) {
	if service.cache == nil {
		return
	}

	raw, err := json.Marshal(matches)
	if err != nil {
		return
	}

	if err := service.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		ctxutil.GetLogger(ctx).DebugContext(ctx, "unit_cache_set_failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}
