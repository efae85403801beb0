package profile

import (
	"context"
	"testing"
	"time"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/config"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/kvstore"
)

func testConfig() config.CacheConfig {
	return config.CacheConfig{Enabled: true, TTL: time.Hour, Prefix: "profile"}
}

func TestPutGetInvalidate(t *testing.T) {
	c := NewCache(kvstore.NewMemory(), testConfig())
	ctx := context.Background()

	if err := c.Put(ctx, Snapshot{ID: 1, Email: "u@x.com", Role: "STUDENT"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := c.Get(ctx, 1)
	if err != nil || got == nil || got.Email != "u@x.com" {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if err := c.Invalidate(ctx, 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if got, _ := c.Get(ctx, 1); got != nil {
		t.Fatalf("expected miss after invalidate, got %+v", got)
	}
}

func TestInvalidateAllKeepsOtherKeys(t *testing.T) {
	kv := kvstore.NewMemory()
	c := NewCache(kv, testConfig())
	ctx := context.Background()

	_ = c.Put(ctx, Snapshot{ID: 1})
	_ = c.Put(ctx, Snapshot{ID: 2})
	_ = kv.Set(ctx, "session:1", "x", time.Hour)

	if err := c.InvalidateAll(ctx); err != nil {
		t.Fatalf("invalidate all: %v", err)
	}
	if kv.Len() != 1 {
		t.Fatalf("Len = %d, want only the session key left", kv.Len())
	}
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	kv := kvstore.NewMemory()
	c := NewCache(kv, cfg)
	ctx := context.Background()

	_ = c.Put(ctx, Snapshot{ID: 1})
	if got, err := c.Get(ctx, 1); got != nil || err != nil {
		t.Fatalf("disabled cache returned %+v, %v", got, err)
	}
	if kv.Len() != 0 {
		t.Fatal("disabled cache must not write")
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	kv := kvstore.NewMemory()
	c := NewCache(kv, testConfig())
	ctx := context.Background()
	_ = kv.Set(ctx, "profile:4", "{not json", time.Hour)

	got, err := c.Get(ctx, 4)
	if got != nil || err != nil {
		t.Fatalf("got %+v, %v; want miss", got, err)
	}
}
