// Package service is the session authority: it registers principals, logs
// them in under a single-active-session policy, refreshes access tokens,
// revokes sessions and serves cached profiles.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/kvstore"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/metrics"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/model"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/profile"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/queue"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/repository"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/session"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/token"
)

// PrincipalStore is the durable principal collaborator.
type PrincipalStore interface {
	Create(ctx context.Context, p model.Principal) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Principal, error)
	GetByEmail(ctx context.Context, email string) (model.Principal, error)
	MarkEmailVerified(ctx context.Context, id uint64) error
	UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error
	UpdatePersonalInfo(ctx context.Context, id uint64, displayName, phone string) error
}

// Deps are the collaborators of AuthService.  Metrics may be nil.
type Deps struct {
	Principals PrincipalStore
	Sessions   *session.Store
	Profiles   *profile.Cache
	Tokens     *token.Issuer
	KV         kvstore.Store
	Notifier   Notifier
	Metrics    *metrics.Collectors
	Logger     *slog.Logger
}

// Options tune lifetimes and hashing.
type Options struct {
	OTPTTL     time.Duration
	BcryptCost int
}

type AuthService struct {
	principals PrincipalStore
	sessions   *session.Store
	profiles   *profile.Cache
	tokens     *token.Issuer
	kv         kvstore.Store
	notifier   Notifier
	metrics    *metrics.Collectors
	log        *slog.Logger

	otpTTL     time.Duration
	bcryptCost int
	now        func() time.Time

	// pending tracks fire-and-forget notifications so shutdown can drain them.
	pending sync.WaitGroup
}

func NewAuthService(d Deps, o Options) *AuthService {
	if o.OTPTTL <= 0 {
		o.OTPTTL = 10 * time.Minute
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = 10
	}
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		principals: d.Principals,
		sessions:   d.Sessions,
		profiles:   d.Profiles,
		tokens:     d.Tokens,
		kv:         d.KV,
		notifier:   d.Notifier,
		metrics:    d.Metrics,
		log:        log.With("component", "session-authority"),
		otpTTL:     o.OTPTTL,
		bcryptCost: o.BcryptCost,
		now:        time.Now,
	}
}

// WithClock swaps the time source used for login timestamps.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// SessionTTL is the lifetime shared by the session and refresh records.
func (s *AuthService) SessionTTL() time.Duration { return s.tokens.RefreshTTL() }

// Drain waits for in-flight notifications or until ctx ends.
func (s *AuthService) Drain(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// dispatch publishes ev without making the caller wait for the broker.
func (s *AuthService) dispatch(ev queue.NotificationEvent) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.Publish(ctx, ev); err != nil {
			s.log.Warn("notification not published", "kind", ev.Kind, "principal_id", ev.PrincipalID, "error", err)
		}
	}()
}

// principalErr translates repository failures into service errors.
func principalErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrEmailExists):
		return ErrEmailExists
	default:
		return err
	}
}

// storeErr marks TTL-store transport failures.
func storeErr(err error) error {
	if errors.Is(err, kvstore.ErrUnavailable) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return err
}

func snapshotOf(p model.Principal, sessionID string) profile.Snapshot {
	return profile.Snapshot{
		ID:            p.ID,
		Email:         p.Email,
		Role:          p.Role,
		DisplayName:   p.DisplayName,
		Phone:         p.Phone,
		EmailVerified: p.EmailVerified,
		LastLogin:     p.LastLogin,
		SessionID:     sessionID,
	}
}
