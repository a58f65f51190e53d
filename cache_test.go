package s3fifo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCache_MemoryOnlySetGet(t *testing.T) {
	ctx := context.Background()
	c, err := NewCache[string, int](ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "a", 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := c.Get(ctx, "a")
	if err != nil || !ok || v != 1 {
		t.Fatalf("Get = %d, %v, %v; want 1, true, nil", v, ok, err)
	}
}

func TestCache_GetMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewCache[string, int](ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	_, ok, err := c.Get(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("Get = %v, %v; want false, nil", ok, err)
	}
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c, err := NewCache[string, int](ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "a", 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	c.Delete(ctx, "a")
	if _, ok, err := c.Get(ctx, "a"); err != nil || ok {
		t.Fatalf("Get after delete = %v, %v; want false, nil", ok, err)
	}
}

func TestCache_LenReflectsMemoryTier(t *testing.T) {
	ctx := context.Background()
	c, err := NewCache[string, int](ctx, WithSize(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	// With size 10 and the default 0.1 ratio, Small holds one entry, so
	// setting "b" evicts the never-read "a" to Ghost, which Len excludes.
	c.Set(ctx, "a", 1, 0)
	c.Set(ctx, "b", 2, 0)
	if got := c.Len(); got != 1 {
		t.Fatalf("Len = %d; want 1", got)
	}
}

func TestCache_LocalPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	cacheID := fmt.Sprintf("s3fifo-test-%d", time.Now().UnixNano())
	c, err := NewCache[string, string](ctx, WithLocalStore(cacheID))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "a", "value", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Force a memory miss by opening a fresh Cache on the same store, whose
	// memory tier is empty, then confirm the value survives in the
	// persistence tier and gets promoted back into memory on read.
	c2, err := NewCache[string, string](ctx, WithLocalStore(cacheID))
	if err != nil {
		t.Fatalf("New (second handle): %v", err)
	}
	defer c2.Close()

	v, ok, err := c2.Get(ctx, "a")
	if err != nil || !ok || v != "value" {
		t.Fatalf("Get from persistence = %q, %v, %v; want value, true, nil", v, ok, err)
	}
	if c2.Len() != 1 {
		t.Fatalf("Len after persistence promotion = %d; want 1", c2.Len())
	}
}

func TestCache_TTLExpiryIsPersistenceOnly(t *testing.T) {
	ctx := context.Background()
	cacheID := fmt.Sprintf("s3fifo-test-ttl-%d", time.Now().UnixNano())
	c, err := NewCache[string, int](ctx, WithLocalStore(cacheID), WithTTL(time.Nanosecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "a", 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := c.Get(ctx, "a"); err != nil || !ok || v != 1 {
		t.Fatalf("Get immediately after Set = %d, %v, %v; want 1, true, nil (memory tier ignores TTL)", v, ok, err)
	}
}

func TestCache_MetricsWiring(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "cachetest")

	c, err := NewCache[string, int](ctx, WithMetrics(m))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set(ctx, "a", 1, 0)
	c.Get(ctx, "a")
	c.Get(ctx, "missing")

	if got := testCounterValue(t, m.Hit); got != 1 {
		t.Errorf("Hit = %v; want 1", got)
	}
	if got := testCounterValue(t, m.Miss); got != 1 {
		t.Errorf("Miss = %v; want 1", got)
	}
}

func TestCache_WarmupLoadsFromLocalStore(t *testing.T) {
	ctx := context.Background()
	cacheID := fmt.Sprintf("s3fifo-test-warmup-%d", time.Now().UnixNano())

	seed, err := NewCache[string, int](ctx, WithLocalStore(cacheID))
	if err != nil {
		t.Fatalf("New (seed): %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := seed.Set(ctx, fmt.Sprintf("k%d", i), i, 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	seed.Close()

	c, err := NewCache[string, int](ctx, WithLocalStore(cacheID), WithWarmup(5))
	if err != nil {
		t.Fatalf("New (warmup): %v", err)
	}
	defer c.Close()

	// warmup runs in a background goroutine; give it a moment to complete
	// before asserting on memory contents.
	deadline := time.Now().Add(2 * time.Second)
	for c.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if c.Len() == 0 {
		t.Fatal("warmup did not load any entries into memory within the deadline")
	}
}

func TestCache_CloseIsIdempotentForMemoryOnly(t *testing.T) {
	ctx := context.Background()
	c, err := NewCache[string, int](ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close (memory-only) should not error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close (memory-only) should not error: %v", err)
	}
}
