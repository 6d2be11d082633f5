package gateway

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value was ever written for the key.
var ErrKeyNotFound = errors.New("key not found")

// Gateway is the durable key-value contract the store persists through.
// Get returns the last fully-written value for a key or ErrKeyNotFound;
// partially-written values are never visible.
type Gateway interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
