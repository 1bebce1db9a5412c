package auth

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "daycaresync"
	keyringPrefix  = "procare_token_"
)

// KeyringStore caches the bearer token in the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed token store, probing once for
// keychain availability.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// StoreToken saves the token to the keychain
func (k *KeyringStore) StoreToken(username, token string) error {
	if username == "" || token == "" {
		return ErrInvalidAccount
	}
	if err := keyring.Set(keyringService, keyringPrefix+username, token); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// RetrieveToken reads the token from the keychain
func (k *KeyringStore) RetrieveToken(username string) (string, error) {
	if username == "" {
		return "", ErrInvalidAccount
	}
	token, err := keyring.Get(keyringService, keyringPrefix+username)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read from keyring: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token from the keychain
func (k *KeyringStore) DeleteToken(username string) error {
	if username == "" {
		return ErrInvalidAccount
	}
	err := keyring.Delete(keyringService, keyringPrefix+username)
	if err != nil {
		if err == keyring.ErrNotFound {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}
