// Package session holds the server-side proof that a principal is logged in:
// one session record and one refresh-token record per principal, both kept in
// the TTL store.  Writing a new record overwrites the previous one, which is
// how a second login evicts the first.
package session

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/kvstore"
)

// Record is the live session of a principal.
type Record struct {
	SessionID string    `json:"session_id"`
	Device    string    `json:"device"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// raw is the stored encoding this record was read from.
	raw string
}

// Store reads and writes session and refresh records.
type Store struct {
	kv  kvstore.Store
	now func() time.Time
}

func NewStore(kv kvstore.Store) *Store {
	return &Store{kv: kv, now: time.Now}
}

// WithClock swaps the time source used for record timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func sessionKey(principalID uint64) string { return "session:" + strconv.FormatUint(principalID, 10) }
func refreshKey(principalID uint64) string { return "refresh:" + strconv.FormatUint(principalID, 10) }

// PutSession upserts the session record, replacing any previous one.
func (s *Store) PutSession(ctx context.Context, principalID uint64, sessionID, device string, ttl time.Duration) (Record, error) {
	now := s.now().UTC()
	rec := Record{SessionID: sessionID, Device: device, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	raw, err := encode(rec)
	if err != nil {
		return Record{}, err
	}
	if err := s.kv.Set(ctx, sessionKey(principalID), raw, ttl); err != nil {
		return Record{}, fmt.Errorf("session: put: %w", err)
	}
	rec.raw = raw
	return rec, nil
}

// UpdateDevice rewrites the device descriptor of rec while keeping the
// remaining TTL.  The write only lands if rec is still the stored record, so
// a login that replaced it in the meantime is never overwritten; updated is
// false in that case.
func (s *Store) UpdateDevice(ctx context.Context, principalID uint64, rec Record, device string) (updated bool, err error) {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return false, nil
	}
	old := rec.raw
	if old == "" {
		if old, err = encode(rec); err != nil {
			return false, err
		}
	}
	rec.Device = device
	raw, err := encode(rec)
	if err != nil {
		return false, err
	}
	ok, err := s.kv.CompareAndSwap(ctx, sessionKey(principalID), old, raw, ttl)
	if err != nil {
		return false, fmt.Errorf("session: update device: %w", err)
	}
	return ok, nil
}

func encode(rec Record) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("session: marshal: %w", err)
	}
	return string(raw), nil
}

// GetSession returns nil, nil when the principal has no live session.
func (s *Store) GetSession(ctx context.Context, principalID uint64) (*Record, error) {
	raw, err := s.kv.Get(ctx, sessionKey(principalID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	rec.raw = raw
	return &rec, nil
}

// DeleteSession removes only the session record; the refresh record is left
// to expire or to be rejected by the missing session.
func (s *Store) DeleteSession(ctx context.Context, principalID uint64) error {
	if err := s.kv.Delete(ctx, sessionKey(principalID)); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// PutRefresh stores the digest of the principal's current refresh token.
func (s *Store) PutRefresh(ctx context.Context, principalID uint64, refreshToken string, ttl time.Duration) error {
	if err := s.kv.Set(ctx, refreshKey(principalID), Digest(refreshToken), ttl); err != nil {
		return fmt.Errorf("session: put refresh: %w", err)
	}
	return nil
}

// GetRefresh returns the stored digest; found is false when no record exists.
func (s *Store) GetRefresh(ctx context.Context, principalID uint64) (digest string, found bool, err error) {
	v, err := s.kv.Get(ctx, refreshKey(principalID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: get refresh: %w", err)
	}
	return v, true, nil
}

// MatchRefresh reports whether token is the principal's current refresh token.
func (s *Store) MatchRefresh(ctx context.Context, principalID uint64, token string) (bool, error) {
	stored, found, err := s.GetRefresh(ctx, principalID)
	if err != nil || !found {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(Digest(token))) == 1, nil
}

func (s *Store) DeleteRefresh(ctx context.Context, principalID uint64) error {
	if err := s.kv.Delete(ctx, refreshKey(principalID)); err != nil {
		return fmt.Errorf("session: delete refresh: %w", err)
	}
	return nil
}

// Evict removes both records of a principal in one call.
func (s *Store) Evict(ctx context.Context, principalID uint64) error {
	if err := s.kv.Delete(ctx, sessionKey(principalID), refreshKey(principalID)); err != nil {
		return fmt.Errorf("session: evict: %w", err)
	}
	return nil
}

// Digest is the SHA-256 hex digest under which refresh tokens are stored.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
