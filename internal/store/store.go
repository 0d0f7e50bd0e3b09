// Package store implements the Key-Value Store Adapter (spec.md §4.1): the
// typed read/write/transaction primitives the rest of the core needs over a
// string-keyed store with sets and multi-command atomic batches. The
// production implementation is backed by Redis (github.com/redis/go-redis/v9);
// internal/storetest provides an in-memory Store for tests that must not
// require a live server.
package store

import "context"

// Store is the full contract spec.md §4.1 requires. It must be safe for
// concurrent use — the replicator (sole writer) and the verifier (readers)
// share one instance (spec.md §5).
type Store interface {
	// Get returns the value at key and whether it was present. A missing
	// key is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error

	SetAdd(ctx context.Context, key, member string) error
	SetRemove(ctx context.Context, key, member string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	SetIsMember(ctx context.Context, key, member string) (bool, error)
	SetCard(ctx context.Context, key string) (int64, error)

	// NewBatch returns a fresh command builder. Batches are not safe to
	// reuse across goroutines; build one per logical unit of work.
	NewBatch() *Batch
	// Commit applies every op recorded on b atomically: either all of them
	// take effect or none do. A batch that fails partway must leave no
	// observable effect (spec.md P4).
	Commit(ctx context.Context, b *Batch) error

	// Flush removes everything from the store. For tests only.
	Flush(ctx context.Context) error
}
