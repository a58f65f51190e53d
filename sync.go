package s3fifo

import "sync"

// Sync wraps an S3FIFO behind a sync.RWMutex, turning the single-threaded
// core (spec.md §5) into a safe-for-concurrent-use cache. Get takes the
// write lock rather than a read lock: S3FIFO.Get mutates the hit entry's
// frequency counter, so a concurrent reader is not actually read-only at
// the engine level, matching the teacher's own in-core mutex usage.
type Sync[K comparable, V any] struct {
	mu    sync.RWMutex
	inner *S3FIFO[K, V]
}

// NewSync wraps a freshly constructed S3FIFO of the given capacity.
func NewSync[K comparable, V any](capacity int, opts ...Option) *Sync[K, V] {
	return &Sync[K, V]{inner: New[K, V](capacity, opts...)}
}

// WrapSync wraps an already-constructed S3FIFO. Once wrapped, the caller
// must not use inner directly — all access must go through the Sync.
func WrapSync[K comparable, V any](inner *S3FIFO[K, V]) *Sync[K, V] {
	return &Sync[K, V]{inner: inner}
}

func (s *Sync[K, V]) Get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Get(k)
}

func (s *Sync[K, V]) GetCopy(k K) (V, bool) {
	return s.Get(k)
}

func (s *Sync[K, V]) Put(k K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Put(k, v)
}

// Delete tombstones k if present.
func (s *Sync[K, V]) Delete(k K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.Delete(k)
}

func (s *Sync[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.Len()
}

func (s *Sync[K, V]) IsFull() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.IsFull()
}
