// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/model"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/repository"
	"github.com/Adityakbr01/sheryians-Clone-FullStack-sub000/internal/utils"
)

// Principals is an in-memory principal store with the same error contract
// as repository.PrincipalRepo.
type Principals struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.Principal
}

func NewPrincipals() *Principals {
	return &Principals{byID: map[uint64]model.Principal{}}
}

func (f *Principals) Create(_ context.Context, p model.Principal) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == p.Email {
			return 0, repository.ErrEmailExists
		}
	}
	f.nextID++
	p.ID = f.nextID
	f.byID[p.ID] = p
	return p.ID, nil
}

func (f *Principals) GetByID(_ context.Context, id uint64) (model.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return model.Principal{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *Principals) GetByEmail(_ context.Context, email string) (model.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return model.Principal{}, repository.ErrNotFound
}

// Update edits a stored principal in place, bypassing any cache.
func (f *Principals) Update(id uint64, fn func(*model.Principal)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&p)
	f.byID[id] = p
	return nil
}

func (f *Principals) MarkEmailVerified(_ context.Context, id uint64) error {
	return f.Update(id, func(p *model.Principal) { p.EmailVerified = true })
}

func (f *Principals) UpdateLastLogin(_ context.Context, id uint64, at time.Time) error {
	return f.Update(id, func(p *model.Principal) { p.LastLogin = &at })
}

func (f *Principals) UpdatePersonalInfo(_ context.Context, id uint64, name, phone string) error {
	return f.Update(id, func(p *model.Principal) {
		p.DisplayName = name
		p.Phone = phone
	})
}

// Seed stores a verified principal with the given password and returns its id.
func (f *Principals) Seed(t testing.TB, email, password, role string) uint64 {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	id, err := f.Create(context.Background(), model.Principal{
		Email: email, PasswordHash: hash, Role: role, DisplayName: "Test User", EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
	return id
}

// Clock is a settable time source.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{t: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
