// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"blogpress/internal/models"
)

const (
	// categoriesKey holds the JSON-encoded category list.
	categoriesKey = "nav:categories"

	// DefaultCategoryTTL bounds staleness if an invalidation is missed.
	DefaultCategoryTTL = 10 * time.Minute
)

// CategoryLoader fetches the authoritative category list on a cache miss.
type CategoryLoader func() ([]models.Category, error)

// CategoryCache keeps the navigation category list in Valkey. Cache errors
// are logged and fall through to the loader, so Valkey outages only cost
// an extra query.
type CategoryCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	load   CategoryLoader
}

// NewCategoryCache creates a category cache backed by the given Valkey client.
func NewCategoryCache(client *redis.Client, ttl time.Duration, load CategoryLoader) *CategoryCache {
	if ttl == 0 {
		ttl = DefaultCategoryTTL
	}
	return &CategoryCache{client: client, key: categoriesKey, ttl: ttl, load: load}
}

// List returns the cached categories, loading and storing them on a miss.
func (cc *CategoryCache) List(ctx context.Context) ([]models.Category, error) {
	val, err := cc.client.Get(ctx, cc.key).Bytes()
	switch {
	case err == nil:
		var cats []models.Category
		if jerr := json.Unmarshal(val, &cats); jerr == nil {
			slog.Debug("category cache hit")
			return cats, nil
		}
		slog.Warn("category cache decode error, reloading")
	case err != redis.Nil:
		slog.Warn("category cache get error", "error", err)
	}

	cats, err := cc.load()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cats)
	if err == nil {
		if err := cc.client.Set(ctx, cc.key, payload, cc.ttl).Err(); err != nil {
			slog.Warn("category cache set error", "error", err)
		}
	}
	return cats, nil
}

// Invalidate drops the cached list. Call after any category mutation.
func (cc *CategoryCache) Invalidate(ctx context.Context) {
	if err := cc.client.Del(ctx, cc.key).Err(); err != nil {
		slog.Warn("category cache invalidate error", "error", err)
		return
	}
	slog.Debug("category cache invalidated")
}
