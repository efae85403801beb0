package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// authServer accepts exactly one access token at a time; /auth/refresh
// swaps it for the next one.
type authServer struct {
	mu        sync.Mutex
	valid     string
	generated int

	refreshes atomic.Int32
	protected atomic.Int32

	// refreshStatus overrides the refresh outcome when non-zero.
	refreshStatus int
	// refreshGate, when set, blocks refresh calls until closed.
	refreshGate chan struct{}
	// alwaysReject makes the protected endpoint answer 401 to everyone.
	alwaysReject bool
}

func (s *authServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/refresh":
		s.refreshes.Add(1)
		if s.refreshGate != nil {
			select {
			case <-s.refreshGate:
			case <-r.Context().Done():
				return
			}
		}
		if r.Header.Get("Authorization") != "Bearer refresh-1" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if s.refreshStatus != 0 {
			http.Error(w, `{"error":"unauthorized"}`, s.refreshStatus)
			return
		}
		s.mu.Lock()
		s.generated++
		s.valid = "access-" + string(rune('0'+s.generated))
		tok := s.valid
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + tok + `","expires_at":"2030-01-01T00:00:00Z"}`))
	case "/auth/login":
		http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "refresh-1", Path: "/auth", HttpOnly: true})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-0","expires_at":"2030-01-01T00:00:00Z","user":{"id":1,"email":"u@x.com","role":"STUDENT"}}`))
	case "/forbidden":
		w.WriteHeader(http.StatusForbidden)
	default:
		s.protected.Add(1)
		s.mu.Lock()
		ok := !s.alwaysReject && r.Header.Get("Authorization") == "Bearer "+s.valid
		s.mu.Unlock()
		if !ok {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}
}

type harness struct {
	srv     *authServer
	gw      *Gateway
	expired atomic.Int32
}

// newHarness logs in, then makes the server forget access-0 so the next
// protected call needs a refresh.
func newHarness(t *testing.T, srv *authServer) *harness {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	h := &harness{srv: srv}
	h.gw = New(ts.URL)
	h.gw.OnSessionExpired = func() { h.expired.Add(1) }
	if _, err := h.gw.Login(context.Background(), "u@x.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if h.gw.Credentials.Refresh() != "refresh-1" {
		t.Fatalf("refresh token not captured from cookie")
	}
	srv.mu.Lock()
	srv.valid = "stale-never-matches"
	srv.mu.Unlock()
	return h
}

func (h *harness) get(ctx context.Context, path string) (*http.Response, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, h.gw.BaseURL+path, nil)
	return h.gw.Do(req)
}

func TestRefreshAndRetry(t *testing.T) {
	h := newHarness(t, &authServer{})

	resp, err := h.get(context.Background(), "/courses")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	discard(resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	if got := h.gw.Credentials.Access(); got != "access-1" {
		t.Fatalf("access = %q, want access-1", got)
	}
	if n := h.srv.refreshes.Load(); n != 1 {
		t.Fatalf("refreshes = %d, want 1", n)
	}
}

func TestSingleFlightSuccess(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, &authServer{refreshGate: gate})

	const k = 12
	var wg sync.WaitGroup
	codes := make([]int, k)
	errs := make([]error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := h.get(context.Background(), "/courses")
			errs[i] = err
			if resp != nil {
				codes[i] = resp.StatusCode
				discard(resp)
			}
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i := 0; i < k; i++ {
		if errs[i] != nil || codes[i] != http.StatusOK {
			t.Fatalf("request %d: status %d err %v", i, codes[i], errs[i])
		}
	}
	if n := h.srv.refreshes.Load(); n != 1 {
		t.Fatalf("refreshes = %d, want exactly 1", n)
	}
}

func TestSingleFlightFailureRejectsAll(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, &authServer{refreshGate: gate, refreshStatus: http.StatusUnauthorized})

	const k = 8
	var wg sync.WaitGroup
	errs := make([]error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := h.get(context.Background(), "/courses")
			if resp != nil {
				discard(resp)
			}
			errs[i] = err
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("request %d: err %v, want ErrSessionExpired", i, err)
		}
	}
	if n := h.srv.refreshes.Load(); n != 1 {
		t.Fatalf("refreshes = %d, want 1", n)
	}
	if n := h.expired.Load(); n != 1 {
		t.Fatalf("OnSessionExpired called %d times, want 1", n)
	}
	if h.gw.Credentials.Access() != "" || h.gw.Credentials.Refresh() != "" {
		t.Fatal("credentials not cleared")
	}
}

func TestRetryOnlyOnce(t *testing.T) {
	h := newHarness(t, &authServer{alwaysReject: true})

	resp, err := h.get(context.Background(), "/courses")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	discard(resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want the retry's 401", resp.StatusCode)
	}
	if n := h.srv.protected.Load(); n != 2 {
		t.Fatalf("protected calls = %d, want 2", n)
	}
	if n := h.srv.refreshes.Load(); n != 1 {
		t.Fatalf("refreshes = %d, want 1", n)
	}
	if n := h.expired.Load(); n != 1 {
		t.Fatalf("OnSessionExpired called %d times, want 1", n)
	}
	if h.gw.Credentials.Access() != "" {
		t.Fatal("credentials not cleared after second 401")
	}
}

func TestMissingRefreshTokenEndsSession(t *testing.T) {
	h := newHarness(t, &authServer{alwaysReject: true})
	h.gw.Credentials.Set("stale-access", "")

	for i := 0; i < 2; i++ {
		if _, err := h.get(context.Background(), "/courses"); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("call %d: got %v, want ErrSessionExpired", i, err)
		}
	}
	if n := h.expired.Load(); n != 1 {
		t.Fatalf("OnSessionExpired called %d times, want 1", n)
	}
	if got := h.gw.Credentials.Access(); got != "" {
		t.Fatalf("access left = %q, want cleared", got)
	}
	if n := h.srv.protected.Load(); n != 2 {
		t.Fatalf("protected calls = %d, want 2", n)
	}
	if n := h.srv.refreshes.Load(); n != 0 {
		t.Fatalf("refreshes = %d, want 0 without a refresh token", n)
	}
}

func TestRefreshTimeoutRejectsQueue(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, &authServer{refreshGate: gate})
	t.Cleanup(func() { close(gate) })
	h.gw.RefreshTimeout = 50 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.get(context.Background(), "/courses")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("request %d: err %v, want ErrSessionExpired", i, err)
		}
	}
	timedOut := false
	for _, err := range errs {
		timedOut = timedOut || errors.Is(err, context.DeadlineExceeded)
	}
	if !timedOut {
		t.Fatalf("no error reports the refresh timeout: %v", errs)
	}
}

func TestFollowerMayStopWaiting(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, &authServer{refreshGate: gate})

	leader := make(chan error, 1)
	go func() {
		resp, err := h.get(context.Background(), "/courses")
		if resp != nil {
			discard(resp)
		}
		leader <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := h.get(ctx, "/courses"); err == nil {
		t.Fatal("follower with an expired context should give up")
	}

	close(gate)
	if err := <-leader; err != nil {
		t.Fatalf("leader: %v", err)
	}
	if n := h.srv.refreshes.Load(); n != 1 {
		t.Fatalf("refreshes = %d, want 1", n)
	}
}

func TestNon401PassesThrough(t *testing.T) {
	h := newHarness(t, &authServer{})
	resp, err := h.get(context.Background(), "/forbidden")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	discard(resp)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if n := h.srv.refreshes.Load(); n != 0 {
		t.Fatalf("refreshes = %d, want 0", n)
	}
}

func TestBodyMustBeReplayable(t *testing.T) {
	gw := New("http://127.0.0.1:1")
	req, _ := http.NewRequest(http.MethodPost, gw.BaseURL+"/x", nil)
	req.Body = io.NopCloser(strings.NewReader("x"))
	if _, err := gw.Do(req); !errors.Is(err, ErrBodyNotReplayable) {
		t.Fatalf("err %v, want ErrBodyNotReplayable", err)
	}
}

func TestGatewaysDoNotShareState(t *testing.T) {
	a, b := New("http://a"), New("http://b")
	a.Credentials.Set("x", "y")
	if b.Credentials.Access() != "" {
		t.Fatal("credentials leaked between gateways")
	}
}
