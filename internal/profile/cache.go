// Package profile caches a denormalized, read-optimized snapshot of each
// principal.  Entries are overwritten on login and deleted whenever the
// underlying principal changes.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/config"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/kvstore"
)

// Snapshot is what GET /auth/profile returns.  It never carries secrets.
type Snapshot struct {
	ID            uint64     `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	DisplayName   string     `json:"display_name"`
	Phone         string     `json:"phone,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	SessionID     string     `json:"session_id,omitempty"`
}

type Cache struct {
	kv      kvstore.Store
	enabled bool
	ttl     time.Duration
	prefix  string
}

func NewCache(kv kvstore.Store, cfg config.CacheConfig) *Cache {
	return &Cache{kv: kv, enabled: cfg.Enabled, ttl: cfg.TTL, prefix: cfg.Prefix}
}

func (c *Cache) key(id uint64) string { return c.prefix + ":" + strconv.FormatUint(id, 10) }

// Get returns nil, nil on a miss.
func (c *Cache) Get(ctx context.Context, id uint64) (*Snapshot, error) {
	if !c.enabled {
		return nil, nil
	}
	raw, err := c.kv.Get(ctx, c.key(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile cache: get: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// A corrupt entry is a miss; the next Put replaces it.
		return nil, nil
	}
	return &snap, nil
}

func (c *Cache) Put(ctx context.Context, snap Snapshot) error {
	if !c.enabled {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("profile cache: marshal: %w", err)
	}
	if err := c.kv.Set(ctx, c.key(snap.ID), string(raw), c.ttl); err != nil {
		return fmt.Errorf("profile cache: put: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, id uint64) error {
	if err := c.kv.Delete(ctx, c.key(id)); err != nil {
		return fmt.Errorf("profile cache: invalidate: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached snapshot under the configured prefix.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if err := c.kv.DeletePattern(ctx, c.prefix+":*"); err != nil {
		return fmt.Errorf("profile cache: invalidate all: %w", err)
	}
	return nil
}
