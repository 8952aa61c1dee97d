package credstore

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	sidegate "github.com/sidegate/sidegate"
)

// Keyring is a sidegate.CredentialStore backed by the platform
// credential manager (Keychain, Secret Service, wincred, or an
// encrypted file fallback, in keyring's default resolution order).
type Keyring struct {
	ring keyring.Keyring
}

// OpenKeyring opens the platform keyring under the given service name.
// An empty service name defaults to "sidegate".
func OpenKeyring(service string) (*Keyring, error) {
	if service == "" {
		service = "sidegate"
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: service,
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return &Keyring{ring: ring}, nil
}

// NewKeyring wraps an already-open keyring. Tests use it with
// keyring.NewArrayKeyring.
func NewKeyring(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

// Set stores or replaces the secret for an account.
func (k *Keyring) Set(accountID, secret string) error {
	err := k.ring.Set(keyring.Item{
		Key:   accountID,
		Data:  []byte(secret),
		Label: "sidegate credentials for " + accountID,
	})
	if err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// Get reads the secret for an account. Absent accounts return
// sidegate.ErrCredentialNotFound.
func (k *Keyring) Get(accountID string) (string, error) {
	item, err := k.ring.Get(accountID)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", sidegate.ErrCredentialNotFound
		}
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes the secret for an account. Deleting an absent account
// returns sidegate.ErrCredentialNotFound so callers can tell the two
// outcomes apart.
func (k *Keyring) Delete(accountID string) error {
	err := k.ring.Remove(accountID)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return sidegate.ErrCredentialNotFound
		}
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
