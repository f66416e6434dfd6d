package ports

import "context"

// KeyValueStore is the durable home of the refill target. Get returns
// ErrNotFound when the key has never been written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
