// Package client is the caller side of the auth API.  Gateway attaches the
// access token to outbound requests and, when the server answers 401,
// refreshes it once for all concurrent callers before retrying.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/profile"
)

var (
	// ErrSessionExpired means the session can no longer be refreshed; the
	// user has to log in again.
	ErrSessionExpired = errors.New("session expired")
	// ErrBodyNotReplayable is returned for requests whose body cannot be
	// sent a second time.
	ErrBodyNotReplayable = errors.New("request body is not replayable")
)

const (
	defaultRefreshPath    = "/auth/refresh"
	defaultRefreshTimeout = 10 * time.Second
)

// StatusError reports an unexpected status from the auth endpoints.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("auth api: %d %s", e.Code, e.Message)
}

// Gateway is safe for concurrent use.  Refresh coordination is per
// instance; two gateways never share a flight.
type Gateway struct {
	BaseURL     string
	HTTPClient  *http.Client
	Credentials Credentials

	// RefreshPath defaults to /auth/refresh.
	RefreshPath string
	// RefreshTimeout bounds the refresh call.  It is not tied to any
	// caller's context: one caller giving up must not fail the others.
	RefreshTimeout time.Duration
	// OnSessionExpired runs once per failed refresh and once per request
	// rejected again after a successful refresh.
	OnSessionExpired func()
	Logger           *slog.Logger

	flight singleflight.Group
}

// New returns a Gateway with in-memory credentials and default settings.
func New(baseURL string) *Gateway {
	return &Gateway{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		Credentials: &MemoryCredentials{},
	}
}

func (g *Gateway) httpClient() *http.Client {
	if g.HTTPClient != nil {
		return g.HTTPClient
	}
	return http.DefaultClient
}

func (g *Gateway) log() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Do sends req with the current access token.  Responses other than 401 are
// returned untouched.  On 401 the caller joins the shared refresh and the
// request is retried exactly once; the retry's response is returned whatever
// its status.  A request with a body must set GetBody (http.NewRequest does
// for in-memory readers).
func (g *Gateway) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, ErrBodyNotReplayable
	}

	used := g.Credentials.Access()
	resp, err := g.send(req, used)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	discard(resp)

	fresh, err := g.refresh(req.Context(), used)
	if err != nil {
		return nil, err
	}

	retry, err := replay(req)
	if err != nil {
		return nil, err
	}
	resp, err = g.send(retry, fresh)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		g.log().Info("request rejected after refresh, clearing credentials", "path", req.URL.Path)
		g.Credentials.Clear()
		g.expired()
	}
	return resp, nil
}

func (g *Gateway) send(req *http.Request, access string) (*http.Response, error) {
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	} else {
		req.Header.Del("Authorization")
	}
	return g.httpClient().Do(req)
}

func replay(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay body: %w", err)
		}
		retry.Body = body
	}
	return retry, nil
}

// refresh returns an access token newer than stale.  Concurrent callers
// holding the same stale token share one flight; a caller whose stale token
// was already replaced gets the current one without a network call.
func (g *Gateway) refresh(ctx context.Context, stale string) (string, error) {
	ch := g.flight.DoChan("refresh:"+stale, func() (any, error) {
		switch current := g.Credentials.Access(); {
		case current != "" && current != stale:
			return current, nil
		case current == "" && stale != "":
			// An earlier flight already failed and cleared the credentials.
			return "", ErrSessionExpired
		case current == "" && g.Credentials.Refresh() == "":
			// Nothing held locally, so there is no session to end.
			return "", ErrSessionExpired
		}
		return g.doRefresh()
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		// The flight keeps running for the others.
		return "", ctx.Err()
	}
}

type accessResp struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (g *Gateway) doRefresh() (string, error) {
	refresh := g.Credentials.Refresh()
	if refresh == "" {
		return "", g.endSession(errors.New("no refresh token"))
	}

	timeout := g.RefreshTimeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	path := g.RefreshPath
	if path == "" {
		path = defaultRefreshPath
	}
	access, err := g.callRefresh(ctx, path, refresh)
	if err != nil {
		return "", g.endSession(err)
	}
	g.Credentials.SetAccess(access)
	return access, nil
}

func (g *Gateway) callRefresh(ctx context.Context, path, refresh string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+refresh)
	resp, err := g.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer discard(resp)
	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}
	var body accessResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("refresh response without access token")
	}
	return body.AccessToken, nil
}

// endSession drops local credentials and notifies the user once per failed flight.
func (g *Gateway) endSession(cause error) error {
	g.log().Warn("token refresh failed", "error", cause)
	g.Credentials.Clear()
	g.expired()
	return fmt.Errorf("%w: %w", ErrSessionExpired, cause)
}

func (g *Gateway) expired() {
	if g.OnSessionExpired != nil {
		g.OnSessionExpired()
	}
}

// LoginResult is the decoded login response.
type LoginResult struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	User        profile.Snapshot `json:"user"`
}

// Login authenticates and stores both tokens.  The refresh token arrives
// only as a cookie; it is kept and later replayed as a bearer header.
func (g *Gateway) Login(ctx context.Context, email, password string) (LoginResult, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return LoginResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient().Do(req)
	if err != nil {
		return LoginResult{}, err
	}
	defer discard(resp)
	if resp.StatusCode != http.StatusOK {
		return LoginResult{}, statusError(resp)
	}

	var res LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return LoginResult{}, fmt.Errorf("decode login response: %w", err)
	}
	var refresh string
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			refresh = c.Value
		}
	}
	if res.AccessToken == "" || refresh == "" {
		return LoginResult{}, errors.New("login response without tokens")
	}
	g.Credentials.Set(res.AccessToken, refresh)
	return res, nil
}

// Logout revokes the session server-side and always forgets local tokens.
func (g *Gateway) Logout(ctx context.Context) error {
	defer g.Credentials.Clear()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/auth/logout", nil)
	if err != nil {
		return err
	}
	resp, err := g.Do(req)
	if err != nil {
		return err
	}
	defer discard(resp)
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&body)
	return &StatusError{Code: resp.StatusCode, Message: body.Error}
}

// discard drains and closes the body so the connection can be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
