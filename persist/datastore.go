package persist

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ds "github.com/codeGROOVE-dev/ds9/pkg/datastore"

	"github.com/wrenfield-dev/s3fifo/compress"
)

const (
	datastoreKind      = "S3FIFOEntry"
	maxDatastoreKeyLen = 1500
)

// Datastore persists entries in Google Cloud Datastore. Values are
// compressed, then base64-encoded into a single indexed-off string
// property, since Datastore's native byte-string property has its own size
// and indexing quirks this sidesteps entirely.
type Datastore[K comparable, V any] struct {
	client     *ds.Client
	kind       string
	compressor compress.Compressor
	ext        string
}

type datastoreEntry struct {
	Expiry    time.Time `datastore:"expiry,omitempty,noindex"`
	UpdatedAt time.Time `datastore:"updated_at"`
	Value     string    `datastore:"value,noindex"`
}

// NewDatastore opens a Datastore client scoped to the database named
// cacheID (an empty project ID auto-detects the running project).
func NewDatastore[K comparable, V any](ctx context.Context, cacheID string, c ...compress.Compressor) (*Datastore[K, V], error) {
	comp := compress.None()
	if len(c) > 0 && c[0] != nil {
		comp = c[0]
	}

	client, err := ds.NewClientWithDatabase(ctx, "", cacheID)
	if err != nil {
		return nil, fmt.Errorf("create datastore client: %w", err)
	}

	return &Datastore[K, V]{
		client:     client,
		kind:       datastoreKind,
		compressor: comp,
		ext:        comp.Extension(),
	}, nil
}

// ValidateKey enforces Datastore's stricter key-name length limit.
func (*Datastore[K, V]) ValidateKey(key K) error {
	k := fmt.Sprintf("%v", key)
	if k == "" {
		return errors.New("persist: key cannot be empty")
	}
	if len(k) > maxDatastoreKeyLen {
		return fmt.Errorf("persist: key too long: %d bytes (max %d for datastore)", len(k), maxDatastoreKeyLen)
	}
	return nil
}

func (s *Datastore[K, V]) makeKey(key K) *ds.Key {
	return ds.NameKey(s.kind, fmt.Sprintf("%v%s", key, s.ext), nil)
}

// Location returns "kind/key-name" for diagnostics.
func (s *Datastore[K, V]) Location(key K) string {
	return fmt.Sprintf("%s/%v%s", s.kind, key, s.ext)
}

// Get fetches and decodes key's entity. A missing entity is a miss, not an
// error. Expired entries are reported as misses without being deleted —
// that's Cleanup's job, so a read path stays a single round trip.
func (s *Datastore[K, V]) Get(ctx context.Context, key K) (V, time.Time, bool, error) {
	var zero V
	var e datastoreEntry
	if err := s.client.Get(ctx, s.makeKey(key), &e); err != nil {
		if errors.Is(err, ds.ErrNoSuchEntity) {
			return zero, time.Time{}, false, nil
		}
		return zero, time.Time{}, false, fmt.Errorf("datastore get: %w", err)
	}

	if !e.Expiry.IsZero() && time.Now().After(e.Expiry) {
		return zero, time.Time{}, false, nil
	}

	raw, err := base64.StdEncoding.DecodeString(e.Value)
	if err != nil {
		return zero, time.Time{}, false, fmt.Errorf("decode base64: %w", err)
	}
	jsonData, err := s.compressor.Decode(raw)
	if err != nil {
		return zero, time.Time{}, false, fmt.Errorf("decompress: %w", err)
	}
	var value V
	if err := json.Unmarshal(jsonData, &value); err != nil {
		return zero, time.Time{}, false, fmt.Errorf("unmarshal value: %w", err)
	}
	return value, e.Expiry, true, nil
}

// Set upserts key's entity.
func (s *Datastore[K, V]) Set(ctx context.Context, key K, value V, expiry time.Time) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	data, err := s.compressor.Encode(jsonData)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	e := datastoreEntry{
		Value:     base64.StdEncoding.EncodeToString(data),
		Expiry:    expiry,
		UpdatedAt: time.Now(),
	}
	if _, err := s.client.Put(ctx, s.makeKey(key), &e); err != nil {
		return fmt.Errorf("datastore put: %w", err)
	}
	return nil
}

// Delete removes key's entity.
func (s *Datastore[K, V]) Delete(ctx context.Context, key K) error {
	if err := s.client.Delete(ctx, s.makeKey(key)); err != nil {
		return fmt.Errorf("datastore delete: %w", err)
	}
	return nil
}

// Cleanup deletes entities whose expiry precedes time.Now()-maxAge. With
// native Datastore TTL policies configured on the kind, this query should
// routinely find nothing — it exists as a safety net, not the primary
// expiry mechanism.
func (s *Datastore[K, V]) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	q := ds.NewQuery(s.kind).
		Filter("expiry >", time.Time{}).
		Filter("expiry <", cutoff).
		KeysOnly()

	keys, err := s.client.AllKeys(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("query expired keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.client.DeleteMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("delete expired entries: %w", err)
	}
	return len(keys), nil
}

// Flush deletes every entity of this store's kind.
func (s *Datastore[K, V]) Flush(ctx context.Context) (int, error) {
	q := ds.NewQuery(s.kind).KeysOnly()
	keys, err := s.client.AllKeys(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("query all keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.client.DeleteMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("delete all entries: %w", err)
	}
	return len(keys), nil
}

// Len counts entities of this store's kind.
func (s *Datastore[K, V]) Len(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, ds.NewQuery(s.kind))
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Close releases the underlying Datastore client.
func (s *Datastore[K, V]) Close() error {
	return s.client.Close()
}
