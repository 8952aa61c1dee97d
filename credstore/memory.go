package credstore

import (
	"sync"

	sidegate "github.com/sidegate/sidegate"
)

// Memory is a process-local sidegate.CredentialStore.
type Memory struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemory returns an empty in-memory credential store.
func NewMemory() *Memory {
	return &Memory{secrets: make(map[string]string)}
}

// Set stores or replaces the secret for an account.
func (m *Memory) Set(accountID, secret string) error {
	m.mu.Lock()
	m.secrets[accountID] = secret
	m.mu.Unlock()
	return nil
}

// Get reads the secret for an account.
func (m *Memory) Get(accountID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	secret, ok := m.secrets[accountID]
	if !ok {
		return "", sidegate.ErrCredentialNotFound
	}
	return secret, nil
}

// Delete removes the secret for an account.
func (m *Memory) Delete(accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.secrets[accountID]; !ok {
		return sidegate.ErrCredentialNotFound
	}
	delete(m.secrets, accountID)
	return nil
}
