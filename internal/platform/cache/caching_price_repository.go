// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_watcher/internal/feature/stocks/domain/entity"
	"stock_watcher/internal/feature/stocks/usecase"
)

// CachingPriceRepository decorates a PriceRepository with Redis caching for
// the read paths that back GetStocks (latest record and the moving-average
// window). Writes and deletes invalidate the affected symbol's keys, so
// reads never serve a price that predates a newer observation by more than
// the TTL. It implements the decorator pattern, transparently adding caching
// without modifying the underlying repository.
type CachingPriceRepository struct {
	inner     usecase.PriceRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates a PriceRepository with Redis caching.
// If ttl is 0, it defaults to 30 seconds. If namespace is empty, it uses "stocks".
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceRepository, namespace string) *CachingPriceRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if namespace == "" {
		namespace = "stocks"
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// InsertOne persists the record and invalidates the symbol's cached reads.
func (c *CachingPriceRepository) InsertOne(ctx context.Context, symbol string, price float64) (entity.PriceRecord, error) {
	record, err := c.inner.InsertOne(ctx, symbol, price)
	if err != nil {
		return entity.PriceRecord{}, err
	}
	c.invalidateSymbol(ctx, symbol)
	return record, nil
}

// InsertMany persists the batch and invalidates each touched symbol's cached reads.
func (c *CachingPriceRepository) InsertMany(ctx context.Context, records []entity.PriceRecord) error {
	if err := c.inner.InsertMany(ctx, records); err != nil {
		return err
	}
	if c.rdb == nil || len(records) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	for _, r := range records {
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		c.invalidateSymbol(ctx, r.Symbol)
	}
	return nil
}

// MostRecent retrieves the latest record, checking cache first then falling
// back to the database.
func (c *CachingPriceRepository) MostRecent(ctx context.Context, symbol string) (entity.PriceRecord, error) {
	if c.rdb == nil {
		return c.inner.MostRecent(ctx, symbol)
	}

	key := c.cacheKey(symbol, "latest")

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.PriceRecord
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.MostRecent(ctx, symbol)
	if err != nil {
		// Not-found is not cached: a symbol becomes tracked the moment its
		// first record lands, and a stale negative entry would hide it.
		return entity.PriceRecord{}, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// MostRecentN retrieves the latest n records, checking cache first then
// falling back to the database.
func (c *CachingPriceRepository) MostRecentN(ctx context.Context, symbol string, n int) ([]entity.PriceRecord, error) {
	if c.rdb == nil {
		return c.inner.MostRecentN(ctx, symbol, n)
	}

	key := c.cacheKey(symbol, fmt.Sprintf("recent:%d", n))

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.PriceRecord
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.MostRecentN(ctx, symbol, n)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// DistinctSymbols is never cached: the tracked-symbol set is defined as this
// query, and the refresh scheduler must see a newly added symbol on its next
// tick.
func (c *CachingPriceRepository) DistinctSymbols(ctx context.Context) ([]string, error) {
	return c.inner.DistinctSymbols(ctx)
}

// DeleteBySymbol deletes the symbol's records and invalidates its cached reads.
func (c *CachingPriceRepository) DeleteBySymbol(ctx context.Context, symbol string) (int64, error) {
	count, err := c.inner.DeleteBySymbol(ctx, symbol)
	if err != nil {
		return 0, err
	}
	c.invalidateSymbol(ctx, symbol)
	return count, nil
}

// DeleteOlderThan prunes old records across all symbols and flushes the whole
// namespace, since any symbol's window may have shrunk.
func (c *CachingPriceRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	count, err := c.inner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if c.rdb != nil && count > 0 {
		_ = c.deleteByPattern(ctx, c.namespace+":*")
	}
	return count, nil
}

// invalidateSymbol removes all cached entries for one symbol (best effort).
func (c *CachingPriceRepository) invalidateSymbol(ctx context.Context, symbol string) {
	if c.rdb == nil {
		return
	}
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(symbol)+"*")
}

// cacheKey generates a cache key for a specific query.
func (c *CachingPriceRepository) cacheKey(symbol, suffix string) string {
	return c.cacheKeyPrefix(symbol) + suffix
}

// cacheKeyPrefix generates a prefix for invalidating a symbol's cache entries.
func (c *CachingPriceRepository) cacheKeyPrefix(symbol string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(symbol))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
