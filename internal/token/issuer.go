// Package token mints and verifies the two credential classes: short-lived
// access tokens and long-lived refresh tokens.  Each class has its own HMAC
// key so a leaked refresh secret cannot mint access tokens and vice versa.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Class selects the key and the expected "typ" claim.
type Class string

const (
	Access  Class = "access"
	Refresh Class = "refresh"
)

// ErrInvalidToken covers bad signatures, wrong algorithms, expiry and class
// mismatches alike.  The underlying jwt error stays wrapped for logging.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of both token classes.  Role is empty on refresh tokens.
type Claims struct {
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sid,omitempty"`
	Type      Class  `json:"typ"`
	jwt.RegisteredClaims
}

// PrincipalID parses the subject claim.
func (c Claims) PrincipalID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	return id, nil
}

// Token is a signed credential along with its expiry.
type Token struct {
	Raw       string
	ExpiresAt time.Time
}

// Config carries the signing material and lifetimes.
type Config struct {
	Issuer        string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type Issuer struct {
	issuer     string
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: both access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "auth"
	}
	return &Issuer{
		issuer:     cfg.Issuer,
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock swaps the time source for both signing and verification.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccess signs a short-lived token carrying {sub, role, sid}.
func (i *Issuer) IssueAccess(principalID uint64, role, sessionID string) (Token, error) {
	return i.sign(Access, principalID, role, sessionID)
}

// IssueRefresh signs a long-lived token carrying {sub, sid}.
func (i *Issuer) IssueRefresh(principalID uint64, sessionID string) (Token, error) {
	return i.sign(Refresh, principalID, "", sessionID)
}

func (i *Issuer) sign(class Class, principalID uint64, role, sessionID string) (Token, error) {
	key, ttl := i.keyFor(class)
	now := i.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Role:      role,
		SessionID: sessionID,
		Type:      class,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatUint(principalID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return Token{}, fmt.Errorf("token: sign %s: %w", class, err)
	}
	return Token{Raw: signed, ExpiresAt: exp}, nil
}

// Verify checks signature, algorithm, issuer, expiry and class.
func (i *Issuer) Verify(raw string, class Class) (Claims, error) {
	key, _ := i.keyFor(class)
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Type != class {
		return Claims{}, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, class, claims.Type)
	}
	if _, err := claims.PrincipalID(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func (i *Issuer) keyFor(class Class) ([]byte, time.Duration) {
	if class == Refresh {
		return i.refreshKey, i.refreshTTL
	}
	return i.accessKey, i.accessTTL
}
