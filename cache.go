// Package s3fifo provides an in-memory cache with S3-FIFO eviction and
// optional durable persistence.
package s3fifo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wrenfield-dev/s3fifo/persist"
)

// Cache is the top-level, concurrency-safe cache: an S3-FIFO engine backed
// in memory by Sync, fronting an optional Store for durability. Memory is
// always authoritative — a persistence failure is logged and surfaced to
// the caller but never discards an in-memory write.
type Cache[K comparable, V any] struct {
	memory  *Sync[K, V]
	persist persist.Store[K, V]
	opts    *cacheOptions
}

// NewCache constructs a Cache. With no options it is a memory-only cache of
// 10,000 entries; WithLocalStore/WithCloudDatastore/WithValkey/WithBestStore
// add a durability tier.
//
// Named NewCache rather than New because the package already uses New for
// the bare S3-FIFO engine constructor (S3FIFO::new in spec.md terms); Cache
// is the ambient wrapper around it, in the same spirit as NewSync.
func NewCache[K comparable, V any](ctx context.Context, options ...CacheOption) (*Cache[K, V], error) {
	opts := defaultCacheOptions()
	for _, opt := range options {
		opt(opts)
	}

	engineOpts := []Option{WithSmallRatio(opts.smallRatio)}
	if opts.metrics != nil {
		engineOpts = append(engineOpts, WithEventMetrics(opts.metrics))
	}

	c := &Cache[K, V]{
		memory: NewSync[K, V](opts.size, engineOpts...),
		opts:   opts,
	}

	if opts.cacheID == "" {
		return c, nil
	}

	var err error
	switch opts.persistKind {
	case "local":
		c.persist, err = persist.NewLocalFS[K, V](opts.cacheID, "", opts.compressor)
	case "datastore":
		c.persist, err = persist.NewDatastore[K, V](ctx, opts.cacheID, opts.compressor)
	case "valkey":
		c.persist, err = persist.NewValkey[K, V](ctx, opts.cacheID, opts.valkeyAddr, opts.compressor)
	case "cloudrun":
		c.persist, err = persist.NewCloudRun[K, V](ctx, opts.cacheID, opts.compressor)
	}
	if err != nil {
		slog.Warn("failed to initialize persistence, continuing with memory-only cache",
			"error", err, "cache_id", opts.cacheID, "kind", opts.persistKind)
		c.persist = nil
	} else if c.persist != nil {
		slog.Info("initialized cache persistence", "cache_id", opts.cacheID, "kind", opts.persistKind)
	}

	if c.persist != nil && opts.cleanupEnabled {
		go func() {
			deleted, err := c.persist.Cleanup(ctx, opts.cleanupMaxAge)
			if err != nil {
				slog.Warn("error during cache cleanup", "error", err)
				return
			}
			if deleted > 0 {
				slog.Info("cache cleanup complete", "deleted", deleted)
			}
		}()
	}

	if c.persist != nil && opts.warmupLimit > 0 {
		go c.warmup(ctx)
	}

	return c, nil
}

// warmup loads up to opts.warmupLimit entries from persistence into
// memory. Backends that don't implement persist.EntryLister (Valkey,
// Datastore) are skipped silently — there is nothing to iterate.
func (c *Cache[K, V]) warmup(ctx context.Context) {
	lister, ok := c.persist.(persist.EntryLister[K, V])
	if !ok {
		return
	}

	entryCh, errCh := lister.Entries(ctx)

	loaded := 0
	for entry := range entryCh {
		if loaded >= c.opts.warmupLimit {
			break
		}
		c.memory.Put(entry.Key, entry.Value)
		loaded++
	}

	select {
	case err := <-errCh:
		if err != nil {
			slog.Warn("error during cache warmup", "error", err, "loaded", loaded)
		}
	default:
	}

	if loaded > 0 {
		slog.Info("cache warmup complete", "loaded", loaded)
	}
}

// Get retrieves a value, checking memory first and falling back to
// persistence on a memory miss. A persistence hit is promoted back into
// memory so subsequent lookups stay in the fast path.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	if val, ok := c.memory.Get(key); ok {
		return val, true, nil
	}

	var zero V
	if c.persist == nil {
		return zero, false, nil
	}

	if err := c.persist.ValidateKey(key); err != nil {
		slog.Warn("invalid key for persistence", "error", err)
		return zero, false, nil
	}

	val, _, found, err := c.persist.Get(ctx, key)
	if err != nil {
		slog.Warn("persistence load failed", "error", err)
		return zero, false, nil
	}
	if !found {
		return zero, false, nil
	}

	c.memory.Put(key, val)
	return val, true, nil
}

// Set stores value under key with an optional TTL (zero uses the cache's
// DefaultTTL, if any; a nonzero TTL always overrides it). The TTL reaches
// only the persisted copy; the memory tier has no expiry. When persistence
// is configured, a key the backend rejects is returned as an error before
// anything is written. Otherwise the value is written to memory, and a
// persistence write failure is returned as an error but never rolled back
// out of memory.
func (c *Cache[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) error {
	var expiry time.Time
	switch {
	case ttl > 0:
		expiry = time.Now().Add(ttl)
	case c.opts.defaultTTL > 0:
		expiry = time.Now().Add(c.opts.defaultTTL)
	}

	if c.persist != nil {
		if err := c.persist.ValidateKey(key); err != nil {
			return err
		}
	}

	c.memory.Put(key, value)

	if c.persist != nil {
		if err := c.persist.Set(ctx, key, value, expiry); err != nil {
			return fmt.Errorf("persistence store failed: %w", err)
		}
	}
	return nil
}

// Delete removes key from memory and, if configured, from persistence.
// Persistence errors are logged, not returned — a cache delete is
// best-effort beyond the in-memory tier.
func (c *Cache[K, V]) Delete(ctx context.Context, key K) {
	c.memory.Delete(key)

	if c.persist == nil {
		return
	}
	if err := c.persist.ValidateKey(key); err != nil {
		slog.Warn("invalid key for persistence delete", "error", err)
		return
	}
	if err := c.persist.Delete(ctx, key); err != nil {
		slog.Warn("persistence delete failed", "error", err)
	}
}

// Len returns the number of entries in the memory tier.
func (c *Cache[K, V]) Len() int {
	return c.memory.Len()
}

// Close releases resources held by the persistence tier, if any.
func (c *Cache[K, V]) Close() error {
	if c.persist != nil {
		if err := c.persist.Close(); err != nil {
			return fmt.Errorf("close persistence: %w", err)
		}
	}
	return nil
}
