package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/wrenfield-dev/s3fifo/compress"
)

const maxValkeyKeyLength = 512

// Valkey persists entries in a Valkey (or Redis-protocol-compatible)
// server, using the server's native key TTL instead of tracking expiry
// itself — Cleanup is therefore a no-op here.
type Valkey[K comparable, V any] struct {
	client     valkey.Client
	prefix     string
	compressor compress.Compressor
	ext        string
}

// NewValkey dials addr ("host:port", defaulting to "localhost:6379") and
// pings it before returning, so construction failures surface immediately
// rather than on the first cache miss.
func NewValkey[K comparable, V any](ctx context.Context, cacheID, addr string, c ...compress.Compressor) (*Valkey[K, V], error) {
	if cacheID == "" {
		return nil, errors.New("persist: cacheID cannot be empty")
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	comp := compress.None()
	if len(c) > 0 && c[0] != nil {
		comp = c[0]
	}

	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping failed: %w", err)
	}

	return &Valkey[K, V]{
		client:     client,
		prefix:     cacheID + ":",
		compressor: comp,
		ext:        comp.Extension(),
	}, nil
}

// ValidateKey rejects keys too long for a Valkey key name.
func (*Valkey[K, V]) ValidateKey(key K) error {
	k := fmt.Sprintf("%v", key)
	if k == "" {
		return errors.New("persist: key cannot be empty")
	}
	if len(k) > maxValkeyKeyLength {
		return fmt.Errorf("persist: key too long: %d bytes (max %d)", len(k), maxValkeyKeyLength)
	}
	return nil
}

func (s *Valkey[K, V]) makeKey(key K) string {
	return s.prefix + fmt.Sprintf("%v", key) + s.ext
}

// Location returns the Valkey key name for key.
func (s *Valkey[K, V]) Location(key K) string {
	return s.makeKey(key)
}

// Get fetches the value and its remaining TTL in a single pipelined round
// trip.
func (s *Valkey[K, V]) Get(ctx context.Context, key K) (V, time.Time, bool, error) {
	var zero V
	k := s.makeKey(key)

	resps := s.client.DoMulti(ctx,
		s.client.B().Get().Key(k).Build(),
		s.client.B().Pttl().Key(k).Build(),
	)

	data, err := resps[0].AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return zero, time.Time{}, false, nil
		}
		return zero, time.Time{}, false, fmt.Errorf("valkey get: %w", err)
	}

	jsonData, err := s.compressor.Decode(data)
	if err != nil {
		return zero, time.Time{}, false, fmt.Errorf("decompress: %w", err)
	}
	var v V
	if err := json.Unmarshal(jsonData, &v); err != nil {
		return zero, time.Time{}, false, fmt.Errorf("unmarshal value: %w", err)
	}

	var exp time.Time
	if ms, err := resps[1].AsInt64(); err == nil && ms > 0 {
		exp = time.Now().Add(time.Duration(ms) * time.Millisecond)
	}
	return v, exp, true, nil
}

// Set stores value, using PX to set Valkey's native TTL when expiry is
// non-zero. An already-past expiry is treated as a no-op rather than an
// error.
func (s *Valkey[K, V]) Set(ctx context.Context, key K, value V, expiry time.Time) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	data, err := s.compressor.Encode(jsonData)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	k := s.makeKey(key)
	var cmd valkey.Completed
	if !expiry.IsZero() {
		ttl := time.Until(expiry)
		if ttl <= 0 {
			return nil
		}
		cmd = s.client.B().Set().Key(k).Value(string(data)).Px(ttl).Build()
	} else {
		cmd = s.client.B().Set().Key(k).Value(string(data)).Build()
	}

	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Valkey[K, V]) Delete(ctx context.Context, key K) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.makeKey(key)).Build()).Error(); err != nil {
		return fmt.Errorf("valkey delete: %w", err)
	}
	return nil
}

// Cleanup is a no-op: Valkey's own TTL already expires keys natively.
func (*Valkey[K, V]) Cleanup(_ context.Context, _ time.Duration) (int, error) {
	return 0, nil
}

// Flush scans for and deletes every key under this store's prefix.
func (s *Valkey[K, V]) Flush(ctx context.Context) (int, error) {
	return s.scanDelete(ctx, true)
}

// Len scans and counts every key under this store's prefix.
func (s *Valkey[K, V]) Len(ctx context.Context) (int, error) {
	return s.scanDelete(ctx, false)
}

// scanDelete walks the keyspace with this store's prefix pattern via SCAN,
// counting matches and optionally deleting each batch as it's found.
func (s *Valkey[K, V]) scanDelete(ctx context.Context, remove bool) (int, error) {
	n := 0
	pat := s.prefix + "*"
	var cur uint64

	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}

		scan, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cur).Match(pat).Count(100).Build()).AsScanEntry()
		if err != nil {
			return n, fmt.Errorf("scan keys: %w", err)
		}

		if remove && len(scan.Elements) > 0 {
			if c, err := s.client.Do(ctx, s.client.B().Del().Key(scan.Elements...).Build()).AsInt64(); err == nil {
				n += int(c)
			}
		} else {
			n += len(scan.Elements)
		}

		cur = scan.Cursor
		if cur == 0 {
			break
		}
	}
	return n, nil
}

// Close releases the underlying client connection.
func (s *Valkey[K, V]) Close() error {
	s.client.Close()
	return nil
}
