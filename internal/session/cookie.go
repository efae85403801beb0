package session

import (
	"net/http"
	"time"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	// refreshCookiePath keeps the refresh token off every request except the
	// auth endpoints.
	refreshCookiePath = "/auth"
)

// CookieOptions defines how auth cookies are issued.
type CookieOptions struct {
	Secure bool
	Domain string
}

// SetAccessCookie issues the access token as an http-only cookie.
func SetAccessCookie(w http.ResponseWriter, token string, expiresAt time.Time, opts CookieOptions) {
	http.SetCookie(w, cookie(AccessCookie, token, "/", expiresAt, opts))
}

// SetRefreshCookie issues the refresh token; scripts can never read it.
func SetRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time, opts CookieOptions) {
	http.SetCookie(w, cookie(RefreshCookie, token, refreshCookiePath, expiresAt, opts))
}

// ClearCookies expires both auth cookies on the client.
func ClearCookies(w http.ResponseWriter, opts CookieOptions) {
	for _, c := range []*http.Cookie{
		cookie(AccessCookie, "", "/", time.Time{}, opts),
		cookie(RefreshCookie, "", refreshCookiePath, time.Time{}, opts),
	} {
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func cookie(name, value, path string, expiresAt time.Time, opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   opts.Domain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
