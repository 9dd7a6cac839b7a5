// Package metadata persists small key/value records in the local database:
// the session credential and the logged-in username.
package metadata

import (
	"context"
)

// Repository is a key/value store over the metadata table. Get returns
// (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
