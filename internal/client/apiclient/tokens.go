package apiclient

import "sync"

// TokenStore holds the current token pair. Implementations must be safe for
// concurrent use.
type TokenStore interface {
	Access() string
	Refresh() string
	Set(access, refresh string) error
	Clear() error
}

// MemoryTokens keeps tokens in memory only.
type MemoryTokens struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func (m *MemoryTokens) Access() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access
}

func (m *MemoryTokens) Refresh() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh
}

func (m *MemoryTokens) Set(access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
	return nil
}

func (m *MemoryTokens) Clear() error {
	return m.Set("", "")
}
