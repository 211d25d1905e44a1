package credentials

import "context"

// KeyValue is the durable key-value storage behind the credential store.
// Get returns errors.ErrKeyNotFound when the key is absent.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
