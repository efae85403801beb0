package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/profile"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/session"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/token"
)

// LoginInput is what a client presents at login.  Device is a free-text
// descriptor built from the user agent and network origin.
type LoginInput struct {
	Email    string
	Password string
	Device   string
}

// LoginResult never carries the password hash.
type LoginResult struct {
	Access  token.Token
	Refresh token.Token
	Profile profile.Snapshot
}

// Login authenticates a principal and starts its only session.  A live
// session from an earlier login is evicted, not rejected.
//
// Concurrent logins for one principal are not serialized: the evict and
// the insert are separate store writes and the last writer wins.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return LoginResult{}, ErrInvalidInput
	}

	p, err := s.principals.GetByEmail(ctx, email)
	if err != nil {
		s.metrics.Login("not_found")
		return LoginResult{}, principalErr(err)
	}
	if !p.CheckPassword(in.Password) {
		s.metrics.Login("invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}
	if !p.EmailVerified {
		s.metrics.Login("unverified")
		return LoginResult{}, ErrUnverified
	}
	if p.IsBanned {
		s.metrics.Login("banned")
		return LoginResult{}, ErrBanned
	}

	sid, err := session.NewID()
	if err != nil {
		return LoginResult{}, err
	}

	prev, err := s.sessions.GetSession(ctx, p.ID)
	if err != nil {
		return LoginResult{}, storeErr(err)
	}
	if prev != nil {
		if err := s.sessions.Evict(ctx, p.ID); err != nil {
			return LoginResult{}, storeErr(err)
		}
		s.metrics.Eviction()
		s.log.Info("previous session evicted by new login",
			"principal_id", p.ID, "evicted_device", prev.Device, "new_device", in.Device)
	}

	access, err := s.tokens.IssueAccess(p.ID, p.Role, sid)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, err := s.tokens.IssueRefresh(p.ID, sid)
	if err != nil {
		return LoginResult{}, err
	}

	ttl := s.SessionTTL()
	if _, err := s.sessions.PutSession(ctx, p.ID, sid, in.Device, ttl); err != nil {
		return LoginResult{}, storeErr(err)
	}
	if err := s.sessions.PutRefresh(ctx, p.ID, refresh.Raw, ttl); err != nil {
		return LoginResult{}, storeErr(err)
	}

	now := s.now().UTC()
	p.LastLogin = &now
	snap := snapshotOf(p, sid)
	if err := s.profiles.Put(ctx, snap); err != nil {
		s.log.Warn("profile cache populate failed", "principal_id", p.ID, "error", err)
	}
	if err := s.principals.UpdateLastLogin(ctx, p.ID, now); err != nil {
		s.log.Warn("last login not recorded", "principal_id", p.ID, "error", err)
	}

	s.metrics.Login("success")
	s.log.Info("login", "principal_id", p.ID, "device", in.Device)
	return LoginResult{Access: access, Refresh: refresh, Profile: snap}, nil
}

// Logout revokes the principal's session.  Calling it without an active
// session is not an error.
func (s *AuthService) Logout(ctx context.Context, principalID uint64) error {
	if err := s.sessions.Evict(ctx, principalID); err != nil {
		return storeErr(err)
	}
	s.invalidateProfile(ctx, principalID)
	s.log.Info("logout", "principal_id", principalID)
	return nil
}

// Refresh exchanges a valid refresh token for a new access token bound to
// the same session.  The refresh token itself is not rotated; only login
// rotates it.  Store failures fail closed.
func (s *AuthService) Refresh(ctx context.Context, raw, device string) (token.Token, error) {
	claims, err := s.tokens.Verify(raw, token.Refresh)
	if err != nil {
		s.metrics.Refresh("invalid_token")
		s.log.Debug("refresh rejected", "reason", "invalid_token", "error", err)
		return token.Token{}, ErrInvalidToken
	}
	pid, err := claims.PrincipalID()
	if err != nil {
		s.metrics.Refresh("invalid_token")
		s.log.Debug("refresh rejected", "reason", "invalid_subject", "error", err)
		return token.Token{}, ErrInvalidToken
	}

	rec, err := s.sessions.GetSession(ctx, pid)
	if err != nil {
		s.metrics.Refresh("store_unavailable")
		s.log.Warn("refresh rejected", "reason", "store_unavailable", "principal_id", pid, "error", err)
		return token.Token{}, ErrSessionExpired
	}
	if rec == nil {
		s.metrics.Refresh("expired")
		s.log.Info("refresh rejected", "reason", "no_session", "principal_id", pid)
		return token.Token{}, ErrSessionExpired
	}
	if claims.SessionID != "" && claims.SessionID != rec.SessionID {
		s.metrics.Refresh("superseded")
		s.log.Info("refresh rejected", "reason", "session_id_mismatch", "principal_id", pid)
		return token.Token{}, ErrSessionSuperseded
	}

	ok, err := s.sessions.MatchRefresh(ctx, pid, raw)
	if err != nil {
		s.metrics.Refresh("store_unavailable")
		s.log.Warn("refresh rejected", "reason", "store_unavailable", "principal_id", pid, "error", err)
		return token.Token{}, ErrSessionExpired
	}
	if !ok {
		s.metrics.Refresh("superseded")
		s.log.Info("refresh rejected", "reason", "refresh_record_mismatch", "principal_id", pid)
		return token.Token{}, ErrSessionSuperseded
	}

	if device != "" && device != rec.Device {
		updated, err := s.sessions.UpdateDevice(ctx, pid, *rec, device)
		switch {
		case err != nil:
			s.log.Warn("device descriptor not updated", "principal_id", pid, "error", err)
		case !updated:
			s.metrics.Refresh("superseded")
			s.log.Info("refresh rejected", "reason", "session_replaced", "principal_id", pid)
			return token.Token{}, ErrSessionSuperseded
		}
	}

	snap, err := s.GetProfile(ctx, pid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.Refresh("expired")
			return token.Token{}, ErrSessionExpired
		}
		return token.Token{}, err
	}

	access, err := s.tokens.IssueAccess(pid, snap.Role, rec.SessionID)
	if err != nil {
		return token.Token{}, err
	}
	s.metrics.Refresh("success")
	return access, nil
}
