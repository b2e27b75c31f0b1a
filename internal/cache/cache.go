// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache memoizes metadata lookups. Every backend is best-effort:
// failures are logged and reported as a miss, never returned to the caller.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pdiddy/citeformat/pkg/types"
)

// Key namespaces.
const (
	doiPrefix    = "cf:doi:"
	searchPrefix = "cf:search:"
)

// DefaultSearchTTL bounds the lifetime of cached search results.
const DefaultSearchTTL = 7 * 24 * time.Hour

// Cache is a fail-silent key/value store. A zero ttl means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Backend is a cache that holds resources.
type Backend interface {
	Cache
	io.Closer
}

// DOIKey is the key for an exact lookup.
func DOIKey(doi string) string {
	return doiPrefix + strings.ToLower(strings.TrimSpace(doi))
}

// SearchKey is the key for a search, derived from the query parameters.
// encoding/json sorts map keys, so equal parameter sets hash equally.
func SearchKey(params map[string]string) string {
	data, _ := json.Marshal(params)
	sum := md5.Sum(data)
	return searchPrefix + hex.EncodeToString(sum[:])
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Nop) Set(context.Context, string, []byte, time.Duration) {}

func (Nop) Close() error { return nil }

// Counting wraps a cache and counts hits and misses.
type Counting struct {
	Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCounting wraps c.
func NewCounting(c Cache) *Counting {
	return &Counting{Cache: c}
}

// Get forwards to the wrapped cache and records the outcome.
func (c *Counting) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := c.Cache.Get(ctx, key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Stats returns the hit and miss counts so far.
func (c *Counting) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Open returns the backend selected by cfg. A backend that cannot be opened
// is logged and replaced by Nop.
func Open(cfg types.CacheConfig, logger *slog.Logger) Backend {
	logger = orDiscard(logger)

	var (
		b   Backend
		err error
	)
	switch cfg.Backend {
	case types.CacheSQLite:
		b, err = OpenSQLite(cfg.Path, logger)
	case types.CacheBadger:
		b, err = OpenBadger(cfg.Path, logger)
	case types.CacheUpstash:
		b, err = NewUpstash(cfg.UpstashURL, cfg.UpstashToken, logger)
	default:
		return Nop{}
	}
	if err != nil {
		logger.Warn("cache disabled", "backend", cfg.Backend, "error", err)
		return Nop{}
	}
	logger.Debug("cache opened", "backend", cfg.Backend)
	return b
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
