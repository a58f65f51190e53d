package s3fifo

import (
	"os"
	"time"

	"github.com/wrenfield-dev/s3fifo/compress"
)

// cacheOptions configures a Cache instance.
type cacheOptions struct {
	size           int
	smallRatio     float64
	defaultTTL     time.Duration
	warmupLimit    int
	cleanupEnabled bool
	cleanupMaxAge  time.Duration
	compressor     compress.Compressor
	metrics        *Metrics

	persistKind string // "", "local", "datastore", "valkey", "cloudrun"
	cacheID     string
	valkeyAddr  string
}

// CacheOption is a functional option for configuring a Cache.
type CacheOption func(*cacheOptions)

// defaultCacheOptions returns the default configuration: a memory-only
// cache of 10,000 entries with the paper's recommended 0.1 small-queue
// ratio and no persistence.
func defaultCacheOptions() *cacheOptions {
	return &cacheOptions{
		size:       10000,
		smallRatio: defaultSmallRatio,
	}
}

// WithSize sets the cache's total capacity (Small+Main).
func WithSize(n int) CacheOption {
	return func(o *cacheOptions) { o.size = n }
}

// WithCacheSmallRatio sets the fraction of capacity assigned to the Small
// queue, overriding the package default of 0.1.
func WithCacheSmallRatio(r float64) CacheOption {
	return func(o *cacheOptions) { o.smallRatio = r }
}

// WithTTL sets the default time-to-live applied to persisted entries whose
// Set call doesn't specify one. TTL is a Cache-layer concern (§5's
// out-of-scope list for the core engine); the engine itself knows nothing
// about time, so the in-memory copy of an entry never expires.
func WithTTL(d time.Duration) CacheOption {
	return func(o *cacheOptions) { o.defaultTTL = d }
}

// WithLocalStore enables local-file persistence under cacheID.
func WithLocalStore(cacheID string) CacheOption {
	return func(o *cacheOptions) {
		o.cacheID = cacheID
		o.persistKind = "local"
	}
}

// WithCloudDatastore enables Google Cloud Datastore persistence, using
// cacheID as the Datastore database name.
func WithCloudDatastore(cacheID string) CacheOption {
	return func(o *cacheOptions) {
		o.cacheID = cacheID
		o.persistKind = "datastore"
	}
}

// WithValkey enables Valkey/Redis persistence against addr.
func WithValkey(cacheID, addr string) CacheOption {
	return func(o *cacheOptions) {
		o.cacheID = cacheID
		o.valkeyAddr = addr
		o.persistKind = "valkey"
	}
}

// WithBestStore auto-selects Cloud Datastore when K_SERVICE is set (Cloud
// Run/Knative), falling back to local-file persistence otherwise.
func WithBestStore(cacheID string) CacheOption {
	return func(o *cacheOptions) {
		o.cacheID = cacheID
		if os.Getenv("K_SERVICE") != "" {
			o.persistKind = "cloudrun"
		} else {
			o.persistKind = "local"
		}
	}
}

// WithCompression sets the codec persistence backends use to encode
// values. Ignored for a memory-only cache.
func WithCompression(c compress.Compressor) CacheOption {
	return func(o *cacheOptions) { o.compressor = c }
}

// WithWarmup enables loading up to n entries from persistence into memory
// at construction time.
func WithWarmup(n int) CacheOption {
	return func(o *cacheOptions) { o.warmupLimit = n }
}

// WithCleanup enables a background goroutine that, at startup, deletes
// persisted entries whose expiry passed more than maxAge ago (entries with
// no expiry are kept) — a safety net alongside whatever native TTL the
// backend already enforces.
func WithCleanup(maxAge time.Duration) CacheOption {
	return func(o *cacheOptions) {
		o.cleanupEnabled = true
		o.cleanupMaxAge = maxAge
	}
}

// WithMetrics attaches a Metrics instance that every cache operation
// reports to. Nil (the default) disables metrics entirely at zero cost.
func WithMetrics(m *Metrics) CacheOption {
	return func(o *cacheOptions) { o.metrics = m }
}
