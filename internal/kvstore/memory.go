package kvstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"
)

type memEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Store.  Expired entries are dropped lazily on read
// and during pattern deletes; there is no background sweeper.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
	down    bool
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memEntry), now: time.Now}
}

// WithClock swaps the time source, letting tests expire entries without sleeping.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
	return m
}

// SetUnavailable makes every operation fail with ErrUnavailable until reset.
func (m *Memory) SetUnavailable(down bool) {
	m.mu.Lock()
	m.down = down
	m.mu.Unlock()
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return "", unavailable("get", key, errMemoryDown)
	}
	e, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return "", ErrNotFound
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("kvstore: set %s: ttl must be positive", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return unavailable("set", key, errMemoryDown)
	}
	m.entries[key] = memEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return unavailable("del", "", errMemoryDown)
	}
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *Memory) CompareAndSwap(_ context.Context, key, old, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, fmt.Errorf("kvstore: cas %s: ttl must be positive", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return false, unavailable("cas", key, errMemoryDown)
	}
	now := m.now()
	e, ok := m.entries[key]
	if !ok || !now.Before(e.expiresAt) || e.value != old {
		return false, nil
	}
	m.entries[key] = memEntry{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

func (m *Memory) DeletePattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return unavailable("scan", pattern, errMemoryDown)
	}
	now := m.now()
	for k, e := range m.entries {
		if ok, _ := path.Match(pattern, k); ok || !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *Memory) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return unavailable("ping", "", errMemoryDown)
	}
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for _, e := range m.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

var errMemoryDown = errors.New("memory store marked down")
