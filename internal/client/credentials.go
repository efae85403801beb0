package client

import "sync"

// Credentials holds the tokens a Gateway sends.  Implementations must be
// safe for concurrent use.
type Credentials interface {
	Access() string
	Refresh() string
	Set(access, refresh string)
	SetAccess(access string)
	Clear()
}

// MemoryCredentials keeps tokens in process memory only.
type MemoryCredentials struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func (m *MemoryCredentials) Access() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access
}

func (m *MemoryCredentials) Refresh() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh
}

func (m *MemoryCredentials) Set(access, refresh string) {
	m.mu.Lock()
	m.access, m.refresh = access, refresh
	m.mu.Unlock()
}

func (m *MemoryCredentials) SetAccess(access string) {
	m.mu.Lock()
	m.access = access
	m.mu.Unlock()
}

func (m *MemoryCredentials) Clear() {
	m.mu.Lock()
	m.access, m.refresh = "", ""
	m.mu.Unlock()
}
