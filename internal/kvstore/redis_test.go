package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), mr
}

func TestRedisSetGetExpire(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()

	if err := store.Set(ctx, "session:1", "abc", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "session:1")
	if err != nil || got != "abc" {
		t.Fatalf("get = %q, %v; want abc", got, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "session:1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after ttl, got %v", err)
	}
}

func TestRedisDeletePattern(t *testing.T) {
	store, _ := newTestRedis(t)
	ctx := context.Background()

	for _, k := range []string{"profile:1", "profile:2", "session:1"} {
		if err := store.Set(ctx, k, "v", time.Hour); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := store.DeletePattern(ctx, "profile:*"); err != nil {
		t.Fatalf("delete pattern: %v", err)
	}
	if _, err := store.Get(ctx, "profile:1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("profile:1 should be gone, got %v", err)
	}
	if v, err := store.Get(ctx, "session:1"); err != nil || v != "v" {
		t.Fatalf("session:1 should survive, got %q %v", v, err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	store, mr := newTestRedis(t)
	mr.Close()

	_, err := store.Get(context.Background(), "session:1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := store.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ping: expected ErrUnavailable, got %v", err)
	}
}

func TestRedisRejectsNonPositiveTTL(t *testing.T) {
	store, _ := newTestRedis(t)
	if err := store.Set(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestRedisCompareAndSwap(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()

	if ok, err := store.CompareAndSwap(ctx, "session:1", "a", "b", time.Minute); err != nil || ok {
		t.Fatalf("absent key: ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "session:1", "a", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ok, err := store.CompareAndSwap(ctx, "session:1", "other", "b", time.Minute); err != nil || ok {
		t.Fatalf("mismatch: ok=%v err=%v", ok, err)
	}
	if ok, err := store.CompareAndSwap(ctx, "session:1", "a", "b", 30*time.Second); err != nil || !ok {
		t.Fatalf("match: ok=%v err=%v", ok, err)
	}
	if got, _ := store.Get(ctx, "session:1"); got != "b" {
		t.Fatalf("value = %q, want b", got)
	}
	if ttl := mr.TTL("session:1"); ttl <= 0 || ttl > 30*time.Second {
		t.Fatalf("ttl = %v, want (0, 30s]", ttl)
	}
}
