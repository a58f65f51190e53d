package persist

import (
	"context"
	"os"

	"github.com/wrenfield-dev/s3fifo/compress"
)

// NewCloudRun picks the best persistence backend for the environment it's
// running in: under Cloud Run/Knative (K_SERVICE set) it tries Datastore
// first, falling back to LocalFS if Datastore construction fails; outside
// Cloud Run it goes straight to LocalFS.
func NewCloudRun[K comparable, V any](ctx context.Context, cacheID string, c ...compress.Compressor) (Store[K, V], error) {
	if os.Getenv("K_SERVICE") != "" {
		if store, err := NewDatastore[K, V](ctx, cacheID, c...); err == nil {
			return store, nil
		}
	}
	return NewLocalFS[K, V](cacheID, "", c...)
}
