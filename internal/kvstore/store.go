// Package kvstore is the generic TTL key-value store shared by the session
// store, the profile cache and the OTP codes.  Redis is the production
// backend; Memory serves tests and single-process development runs.
package kvstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when the key is absent or expired.
	ErrNotFound = errors.New("kvstore: key not found")
	// ErrUnavailable wraps transport failures of the backing store.
	ErrUnavailable = errors.New("kvstore: store unavailable")
)

// Store is a key-value store whose entries expire on their own.
// Single-key operations are atomic.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching a glob pattern such as "profile:*".
	DeletePattern(ctx context.Context, pattern string) error
	// CompareAndSwap writes value only while key still holds old.  It reports
	// false, without error, when the key is absent or holds something else.
	CompareAndSwap(ctx context.Context, key, old, value string, ttl time.Duration) (bool, error)
	Ping(ctx context.Context) error
}
