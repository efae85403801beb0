package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/profile"
)

// PersonalInfo is the editable part of a profile.
type PersonalInfo struct {
	DisplayName string
	Phone       string
}

// GetProfile serves the cached snapshot when present and otherwise loads the
// principal, caches it and returns it.  An unreachable cache falls through to
// the durable store.
func (s *AuthService) GetProfile(ctx context.Context, principalID uint64) (profile.Snapshot, error) {
	cached, err := s.profiles.Get(ctx, principalID)
	switch {
	case err != nil:
		s.metrics.ProfileCache("error")
		s.log.Warn("profile cache read failed, loading from store", "principal_id", principalID, "error", err)
	case cached != nil:
		s.metrics.ProfileCache("hit")
		return *cached, nil
	default:
		s.metrics.ProfileCache("miss")
	}

	p, err := s.principals.GetByID(ctx, principalID)
	if err != nil {
		return profile.Snapshot{}, principalErr(err)
	}

	var sid string
	if rec, err := s.sessions.GetSession(ctx, principalID); err == nil && rec != nil {
		sid = rec.SessionID
	}
	snap := snapshotOf(p, sid)
	if err := s.profiles.Put(ctx, snap); err != nil {
		s.log.Warn("profile cache populate failed", "principal_id", principalID, "error", err)
	}
	return snap, nil
}

// UpdatePersonalInfo writes the durable record and drops the cached snapshot
// before returning, so the next read reflects the change.
func (s *AuthService) UpdatePersonalInfo(ctx context.Context, principalID uint64, in PersonalInfo) (profile.Snapshot, error) {
	name := strings.TrimSpace(in.DisplayName)
	phone := strings.TrimSpace(in.Phone)
	if name == "" || utf8.RuneCountInString(name) > 100 || len(phone) > 32 {
		return profile.Snapshot{}, ErrInvalidInput
	}

	if err := s.principals.UpdatePersonalInfo(ctx, principalID, name, phone); err != nil {
		return profile.Snapshot{}, principalErr(err)
	}
	s.invalidateProfile(ctx, principalID)
	return s.GetProfile(ctx, principalID)
}

// invalidateProfile is best effort: a missed invalidation is bounded by the cache TTL.
func (s *AuthService) invalidateProfile(ctx context.Context, principalID uint64) {
	if err := s.profiles.Invalidate(ctx, principalID); err != nil {
		s.log.Warn("profile cache invalidation failed", "principal_id", principalID, "error", err)
	}
}

// FlushProfiles drops every cached snapshot.  Used by operators after a bulk
// change to principal records.
func (s *AuthService) FlushProfiles(ctx context.Context) error {
	if err := s.profiles.InvalidateAll(ctx); err != nil {
		return storeErr(err)
	}
	s.log.Info("profile cache flushed")
	return nil
}
