package s3fifo

// S3FIFO is the S3-FIFO eviction engine: three fifoCache queues (Small,
// Main, Ghost) plus the state machine that moves entries between them.
//
// The type is single-threaded cooperative by design (see package doc and
// spec.md §5): every method runs to completion before returning, and
// nothing here takes a lock. Concurrent callers must serialize access
// themselves — Sync, in sync.go, does exactly that.
type S3FIFO[K comparable, V any] struct {
	capacity int
	smallCap int
	mainCap  int
	ghostCap int

	small *fifoCache[K, V]
	main  *fifoCache[K, V]
	ghost *fifoCache[K, V]

	// deadSmall/deadMain count tombstoned-but-not-yet-evicted slots in
	// their respective queues, so Len/IsFull can still report live
	// occupancy without the ring supporting arbitrary removal.
	deadSmall int
	deadMain  int

	metrics *Metrics
}

// Option configures an S3FIFO at construction time.
type Option func(*config)

type config struct {
	smallRatio float64
	metrics    *Metrics
}

// defaultSmallRatio matches the S3-FIFO paper's recommendation and the
// reference implementation's NewWithDefaultRatio.
const defaultSmallRatio = 0.1

func defaultConfig() *config {
	return &config{smallRatio: defaultSmallRatio}
}

// WithSmallRatio sets the fraction of total capacity assigned to the Small
// queue. Must be in (0, 1); the default is 0.1.
func WithSmallRatio(r float64) Option {
	return func(c *config) {
		c.smallRatio = r
	}
}

// WithEventMetrics attaches a Metrics instance the engine reports hits,
// misses, insertions, and per-queue eviction outcomes to. A nil Metrics
// (the default) disables instrumentation at zero cost. Cache wires this
// automatically from its own WithMetrics option; set it directly only when
// using S3FIFO without the Cache collaborator.
func WithEventMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// New constructs an S3FIFO with the given total capacity. capacity must be
// at least 2 and the configured small-queue ratio must leave both queues
// non-empty; violating either is a programmer error and panics, matching
// the reference implementation's assert-and-abort construction contract
// (see spec.md §4.4).
func New[K comparable, V any](capacity int, opts ...Option) *S3FIFO[K, V] {
	if capacity < 2 {
		panic("s3fifo: capacity must be >= 2")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.smallRatio <= 0 || cfg.smallRatio >= 1 {
		panic("s3fifo: small ratio must be in (0, 1)")
	}

	smallCap := int(float64(capacity) * cfg.smallRatio)
	if smallCap < 1 {
		smallCap = 1
	}
	mainCap := capacity - smallCap
	if mainCap <= 0 {
		panic("s3fifo: small ratio leaves no room for the main queue")
	}
	ghostCap := mainCap

	return &S3FIFO[K, V]{
		capacity: capacity,
		smallCap: smallCap,
		mainCap:  mainCap,
		ghostCap: ghostCap,
		small:    newFIFOCache[K, V](smallCap),
		main:     newFIFOCache[K, V](mainCap),
		ghost:    newFIFOCache[K, V](ghostCap),
		metrics:  cfg.metrics,
	}
}

// NewWithDefaultRatio is equivalent to New(capacity, WithSmallRatio(0.1)).
//
// The reference Rust implementation this package is grounded on defines
// new_with_default_ratio without a return statement, silently discarding
// the constructed cache — a latent bug spec.md calls out explicitly. This
// implementation returns the cache, as any correct port must.
func NewWithDefaultRatio[K comparable, V any](capacity int) *S3FIFO[K, V] {
	return New[K, V](capacity, WithSmallRatio(defaultSmallRatio))
}

// Get probes Small then Main (never Ghost — a Ghost hit is still a miss to
// the caller) and returns the value and true on hit. A hit increments the
// entry's frequency counter, which is the reuse signal evictSmall/evictMain
// act on; Get is therefore a mutating operation despite the read-only name.
func (c *S3FIFO[K, V]) Get(k K) (V, bool) {
	if e, ok := c.small.find(k); ok {
		c.recordHit()
		return e.value, true
	}
	if e, ok := c.main.find(k); ok {
		c.recordHit()
		return e.value, true
	}
	c.recordMiss()
	var zero V
	return zero, false
}

func (c *S3FIFO[K, V]) recordHit() {
	if c.metrics != nil {
		c.metrics.Hit.Inc()
	}
}

func (c *S3FIFO[K, V]) recordMiss() {
	if c.metrics != nil {
		c.metrics.Miss.Inc()
	}
}

// GetCopy is identical to Get: Go values are always returned by copy, so
// there is no borrow-vs-owned distinction to preserve from the reference
// implementation's get vs get_copy split (see SPEC_FULL.md Open Question
// resolutions).
func (c *S3FIFO[K, V]) GetCopy(k K) (V, bool) {
	return c.Get(k)
}

// Put inserts k/v, or overwrites the value in place if k is already live
// in Small or Main. An overwrite touches neither the frequency counter nor
// the entry's queue position.
//
// A tombstoned entry (deleted but not yet evicted) does not count as
// present: delete only flips live to false and leaves the map/ring slot in
// place, so index[k] still exists for a deleted key. Put must look past
// that and revive the slot in place rather than call update, which is a
// no-op for non-live entries and would otherwise silently drop the write.
func (c *S3FIFO[K, V]) Put(k K, v V) {
	if e, ok := c.small.index[k]; ok && e.live {
		c.small.update(k, v)
		return
	}
	if e, ok := c.main.index[k]; ok && e.live {
		c.main.update(k, v)
		return
	}
	if c.small.revive(k, v) {
		c.deadSmall--
		return
	}
	if c.main.revive(k, v) {
		c.deadMain--
		return
	}
	c.insert(k, v)
}

// IsFull reports whether the aggregate S+M size has reached total
// capacity. Size is derived rather than tracked separately, so this can
// never drift out of sync with the underlying queues.
func (c *S3FIFO[K, V]) IsFull() bool {
	return c.Len() == c.capacity
}

// Len returns the number of live entries (Small+Main; Ghost is excluded,
// matching the aggregate size accounting spec.md §4.3 defines). Tombstoned
// slots awaiting natural eviction are excluded from the count.
func (c *S3FIFO[K, V]) Len() int {
	return c.small.len() + c.main.len() - c.deadSmall - c.deadMain
}

// Delete tombstones k if present in Small or Main, so it stops being
// returned by Get immediately. Its ring slot is reclaimed the next time
// eviction sweeps past it. Deleting an absent key is a no-op. Ghost is
// never searched, so a Ghost entry for k is left in place. A later Put of
// k while its tombstone is still in Small or Main revives that slot in
// place, in the same queue, with a fresh counter.
func (c *S3FIFO[K, V]) Delete(k K) {
	if c.small.delete(k) {
		c.deadSmall++
		return
	}
	if c.main.delete(k) {
		c.deadMain++
	}
}

// insert admits a new key. A key found in Ghost is admitted directly to
// Main (the ghost-hit fast path); otherwise it starts in Small.
//
// Each admit call checks the TARGET queue's own fullness before inserting
// into it, not just the aggregate S+M size. fifoCache.insert's contract
// (see fifocache.go) obligates the caller to ensure room exists before
// every call, since the ring overwrites silently on overflow; checking
// only the aggregate is not sufficient whenever Small alone can fill up
// while Main still has room (e.g. a small ratio that leaves Cs small
// relative to Cm), so admission always evicts from the specific queue
// it's about to grow.
func (c *S3FIFO[K, V]) insert(k K, v V) {
	if c.metrics != nil {
		c.metrics.Insertion.Inc()
		defer c.metrics.Length.Set(float64(c.Len()))
	}
	if _, ok := c.ghost.find(k); ok {
		c.admitMain(k, v)
	} else {
		c.admitSmall(k, v)
	}
}

// admitSmall makes room in Small if needed, then inserts.
func (c *S3FIFO[K, V]) admitSmall(k K, v V) {
	if c.small.isFull() {
		c.evictSmall()
	}
	c.small.insert(k, v)
}

// admitMain makes room in Main if needed, then inserts with a fresh
// (zero) frequency counter — promotions and ghost-hit admissions both
// start a new lap count in Main, matching the reference implementation's
// use of a plain insert rather than insert_with_meta at this step.
func (c *S3FIFO[K, V]) admitMain(k K, v V) {
	if c.main.isFull() {
		c.evictMain()
	}
	c.main.insert(k, v)
}

// admitGhost makes room in Ghost if needed, then inserts. Ghost has no
// further demotion target: making room just drops the oldest entry.
func (c *S3FIFO[K, V]) admitGhost(k K, v V) {
	if c.ghost.isFull() {
		c.ghost.evict()
	}
	c.ghost.insert(k, v)
}

// evictSmall pops entries from Small until one is either promoted to Main
// (freq > 1, a survivor — the loop continues since nothing left the
// cache), dropped into Ghost (freq <= 1, eviction complete), or found to
// already be a tombstone: popping a tombstone removes it from the ring
// for good, which already satisfies the caller's room requirement, so the
// loop stops there rather than evicting a live neighbor it didn't need to.
func (c *S3FIFO[K, V]) evictSmall() {
	for !c.small.empty() {
		k, e, ok := c.small.evict()
		if !ok {
			return
		}
		if !e.live {
			c.deadSmall--
			return
		}
		if e.meta.freq > 1 {
			if c.metrics != nil {
				c.metrics.EvictSmallToMain.Inc()
			}
			c.admitMain(k, e.value)
			continue
		}
		if c.metrics != nil {
			c.metrics.EvictSmallToGhost.Inc()
		}
		c.admitGhost(k, e.value)
		return
	}
}

// evictMain pops entries from Main until one is dropped (freq == 0,
// eviction complete), given another lap (freq > 0 entries are decremented
// and reinserted at the tail, which counts as a survival, not a completed
// eviction, so the loop continues), or found to already be a tombstone: a
// tombstone pop is a genuine, permanent removal from the ring — unlike a
// survivor it is never reinserted — so it already makes the room the
// caller needed and the loop stops rather than evicting a live neighbor.
func (c *S3FIFO[K, V]) evictMain() {
	for !c.main.empty() {
		k, e, ok := c.main.evict()
		if !ok {
			return
		}
		if !e.live {
			c.deadMain--
			return
		}
		if e.meta.freq > 0 {
			e.meta.dec()
			c.main.insertWithMeta(k, e.value, e.meta)
			if c.metrics != nil {
				c.metrics.EvictMainSurvive.Inc()
			}
			continue
		}
		if c.metrics != nil {
			c.metrics.EvictMainDrop.Inc()
		}
		return
	}
}
