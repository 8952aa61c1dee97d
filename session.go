package sidegate

import "sync"

// sessionManager owns the single authoritative session slot. The lock is
// held only for the read or replace, never across a network call, so the
// slot is cheap to consult from every operation.
//
// Invalidation affects future acquirers only: a caller holding a handle
// acquired earlier keeps using it until the underlying credential is
// revoked remotely.
type sessionManager struct {
	mu      sync.Mutex
	current *Session
}

func newSessionManager() *sessionManager {
	return &sessionManager{}
}

// Install replaces the current session unconditionally.
func (m *sessionManager) Install(s *Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

// Acquire returns the current session or ErrNotLoggedIn.
func (m *sessionManager) Acquire() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNotLoggedIn
	}
	return m.current, nil
}

// Invalidate clears the slot. Calling it on an empty slot is a no-op.
func (m *sessionManager) Invalidate() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}
