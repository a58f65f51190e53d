package s3fifo

// freqMax is the saturation cap for the per-entry frequency counter. The
// published S3-FIFO policy caps laps at 3; raising it would let Main
// entries survive more demotion laps before eviction.
const freqMax = 3

// meta is a saturating reference counter tracking reuse of an entry while
// it sits in a queue. It increments on every hit (get/find) and decrements
// by one each time a Main-queue entry survives an eviction sweep.
type meta struct {
	freq uint8
}

func (m *meta) inc() {
	if m.freq < freqMax {
		m.freq++
	}
}

func (m *meta) dec() {
	if m.freq > 0 {
		m.freq--
	}
}

// entry pairs a cached value with its frequency metadata. live is false
// for a tombstoned entry: one whose key was explicitly deleted but whose
// ring slot hasn't cycled around to eviction yet, since the ring has no
// way to remove an arbitrary slot in place.
type entry[V any] struct {
	value V
	meta  meta
	live  bool
}

// fifoCache is a bounded, FIFO-ordered associative container: a ringBuffer
// of keys gives insertion order, a map gives O(1) lookup. It is the
// substrate S3FIFO composes three of (Small, Main, Ghost); it carries no
// eviction policy of its own beyond "oldest first".
//
// Invariant enforced by every method here: ring.len() == len(index) at
// every return, and the ring's key set equals the map's key set. Insert
// does not check capacity itself — callers (S3FIFO) must call evict first
// when isFull, since the ring overwrites silently on overflow and would
// otherwise leave a stale, unreachable entry in the map.
type fifoCache[K comparable, V any] struct {
	ring  *ringBuffer[K]
	index map[K]*entry[V]
}

func newFIFOCache[K comparable, V any](capacity int) *fifoCache[K, V] {
	return &fifoCache[K, V]{
		ring:  newRingBuffer[K](capacity),
		index: make(map[K]*entry[V], capacity),
	}
}

// insert appends k with a fresh (zero) frequency counter.
func (c *fifoCache[K, V]) insert(k K, v V) {
	c.insertWithMeta(k, v, meta{})
}

// insertWithMeta appends k, preserving a caller-supplied frequency
// counter. Used by Main-queue demotion, which pops an entry, decrements its
// counter, and reinserts it at the tail without resetting the lap count.
func (c *fifoCache[K, V]) insertWithMeta(k K, v V, m meta) {
	c.index[k] = &entry[V]{value: v, meta: m, live: true}
	c.ring.pushBack(k)
}

// find looks up k, incrementing its frequency counter on hit — this is the
// reuse signal the eviction state machine depends on, so find is always
// mutating even though it's conceptually a read. A tombstoned entry is
// reported as absent.
func (c *fifoCache[K, V]) find(k K) (*entry[V], bool) {
	e, ok := c.index[k]
	if !ok || !e.live {
		return nil, false
	}
	e.meta.inc()
	return e, true
}

// update replaces k's value in place without touching its frequency
// counter or ring position. No-op if k is absent or tombstoned — a
// tombstoned slot is resurrected through insert, not update, since a
// fresh admission should restart its frequency counter.
func (c *fifoCache[K, V]) update(k K, v V) {
	if e, ok := c.index[k]; ok && e.live {
		e.value = v
	}
}

// delete tombstones k in place: find and update immediately stop seeing
// it, but its ring slot stays put until evict naturally pops it. Reports
// whether a live entry was found and tombstoned.
func (c *fifoCache[K, V]) delete(k K) bool {
	e, ok := c.index[k]
	if !ok || !e.live {
		return false
	}
	e.live = false
	return true
}

// revive resurrects a tombstoned k in place, starting a fresh (zero)
// frequency counter, without touching its ring position. The ring has no
// way to remove an arbitrary slot, so a second pushBack for the same key
// would leave two ring entries mapped through one index slot; evict would
// then delete the live entry's map slot when the stale tombstone's ring
// position finally comes around. Reviving in place keeps ring.len() ==
// len(index) intact and avoids that. Reports whether a tombstoned entry
// was found and revived; false if k is absent or already live.
func (c *fifoCache[K, V]) revive(k K, v V) bool {
	e, ok := c.index[k]
	if !ok || e.live {
		return false
	}
	e.value = v
	e.meta = meta{}
	e.live = true
	return true
}

// evict pops the oldest key from the ring and removes its map entry,
// returning both. ok is false if the cache is empty.
func (c *fifoCache[K, V]) evict() (K, *entry[V], bool) {
	k, ok := c.ring.popFront()
	if !ok {
		var zero K
		return zero, nil, false
	}
	e := c.index[k]
	delete(c.index, k)
	return k, e, true
}

func (c *fifoCache[K, V]) len() int     { return c.ring.len() }
func (c *fifoCache[K, V]) empty() bool  { return c.ring.isEmpty() }
func (c *fifoCache[K, V]) isFull() bool { return c.ring.isFull() }
