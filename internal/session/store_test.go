package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/kvstore"
)

func TestPutSessionOverwritesPrevious(t *testing.T) {
	s := NewStore(kvstore.NewMemory())
	ctx := context.Background()

	if _, err := s.PutSession(ctx, 1, "sid-a", "device A", time.Hour); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if _, err := s.PutSession(ctx, 1, "sid-b", "device B", time.Hour); err != nil {
		t.Fatalf("put b: %v", err)
	}
	rec, err := s.GetSession(ctx, 1)
	if err != nil || rec == nil {
		t.Fatalf("get: %v %v", rec, err)
	}
	if rec.SessionID != "sid-b" || rec.Device != "device B" {
		t.Fatalf("got %+v, want sid-b/device B", rec)
	}
}

func TestGetSessionAbsent(t *testing.T) {
	s := NewStore(kvstore.NewMemory())
	rec, err := s.GetSession(context.Background(), 42)
	if err != nil || rec != nil {
		t.Fatalf("want nil,nil got %v,%v", rec, err)
	}
}

func TestMatchRefresh(t *testing.T) {
	kv := kvstore.NewMemory()
	s := NewStore(kv)
	ctx := context.Background()

	if err := s.PutRefresh(ctx, 3, "token-1", time.Hour); err != nil {
		t.Fatalf("put refresh: %v", err)
	}
	if raw, _ := kv.Get(ctx, "refresh:3"); raw == "token-1" {
		t.Fatal("refresh token must not be stored in plaintext")
	}

	cases := []struct {
		token string
		want  bool
	}{
		{"token-1", true},
		{"token-2", false},
		{"", false},
	}
	for _, tc := range cases {
		ok, err := s.MatchRefresh(ctx, 3, tc.token)
		if err != nil {
			t.Fatalf("match %q: %v", tc.token, err)
		}
		if ok != tc.want {
			t.Errorf("MatchRefresh(%q) = %v, want %v", tc.token, ok, tc.want)
		}
	}

	if err := s.DeleteRefresh(ctx, 3); err != nil {
		t.Fatalf("delete refresh: %v", err)
	}
	if ok, _ := s.MatchRefresh(ctx, 3, "token-1"); ok {
		t.Fatal("deleted refresh record must not match")
	}
}

func TestEvictRemovesBothRecords(t *testing.T) {
	s := NewStore(kvstore.NewMemory())
	ctx := context.Background()
	_, _ = s.PutSession(ctx, 5, "sid", "dev", time.Hour)
	_ = s.PutRefresh(ctx, 5, "tok", time.Hour)

	if err := s.Evict(ctx, 5); err != nil {
		t.Fatalf("evict: %v", err)
	}
	if rec, _ := s.GetSession(ctx, 5); rec != nil {
		t.Fatal("session survived eviction")
	}
	if _, found, _ := s.GetRefresh(ctx, 5); found {
		t.Fatal("refresh survived eviction")
	}
}

func TestUpdateDeviceKeepsSessionID(t *testing.T) {
	s := NewStore(kvstore.NewMemory())
	ctx := context.Background()
	if _, err := s.PutSession(ctx, 9, "sid-9", "old agent", time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	rec, _ := s.GetSession(ctx, 9)

	updated, err := s.UpdateDevice(ctx, 9, *rec, "new agent")
	if err != nil || !updated {
		t.Fatalf("update device: updated=%v err=%v", updated, err)
	}
	got, _ := s.GetSession(ctx, 9)
	if got.SessionID != "sid-9" || got.Device != "new agent" {
		t.Fatalf("got %+v", got)
	}
}

func TestUpdateDeviceDoesNotRestoreReplacedSession(t *testing.T) {
	s := NewStore(kvstore.NewMemory())
	ctx := context.Background()
	_, _ = s.PutSession(ctx, 9, "sid-a", "device A", time.Hour)
	stale, _ := s.GetSession(ctx, 9)

	// A second login lands between the read and the device update.
	_, _ = s.PutSession(ctx, 9, "sid-b", "device B", time.Hour)

	updated, err := s.UpdateDevice(ctx, 9, *stale, "device A, new agent")
	if err != nil {
		t.Fatalf("update device: %v", err)
	}
	if updated {
		t.Fatal("update reported success against a replaced session")
	}
	got, _ := s.GetSession(ctx, 9)
	if got.SessionID != "sid-b" || got.Device != "device B" {
		t.Fatalf("live session = %+v, want sid-b/device B", got)
	}
}

func TestDeleteSessionKeepsRefreshRecord(t *testing.T) {
	s := NewStore(kvstore.NewMemory())
	ctx := context.Background()
	_, _ = s.PutSession(ctx, 4, "sid-4", "device", time.Hour)
	_ = s.PutRefresh(ctx, 4, "refresh-4", time.Hour)

	if err := s.DeleteSession(ctx, 4); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if rec, err := s.GetSession(ctx, 4); err != nil || rec != nil {
		t.Fatalf("session after delete = %v, %v", rec, err)
	}
	if _, found, _ := s.GetRefresh(ctx, 4); !found {
		t.Fatal("refresh record removed by DeleteSession")
	}
	if err := s.DeleteSession(ctx, 4); err != nil {
		t.Fatalf("deleting an absent session: %v", err)
	}
}

func TestStoreUnavailablePropagates(t *testing.T) {
	kv := kvstore.NewMemory()
	s := NewStore(kv)
	kv.SetUnavailable(true)

	if _, err := s.GetSession(context.Background(), 1); !errors.Is(err, kvstore.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if len(id) != 43 {
			t.Fatalf("len(id) = %d, want 43", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestClearCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookies(rec, CookieOptions{Secure: true})

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("got %d cookies, want 2", len(cookies))
	}
	for _, c := range cookies {
		if c.MaxAge >= 0 || !c.HttpOnly || !c.Secure {
			t.Errorf("cookie %s not cleared securely: %+v", c.Name, c)
		}
	}
}
