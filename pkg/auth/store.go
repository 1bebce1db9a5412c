package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// TokenStore caches a bearer token between runs, keyed by account username
type TokenStore interface {
	StoreToken(username, token string) error
	RetrieveToken(username string) (string, error)
	DeleteToken(username string) error
}

// StoreChain tries multiple token stores in order: system keychain first,
// encrypted file second, environment last.
type StoreChain struct {
	stores []TokenStore
}

// NewStoreChain builds the default store chain. Stores that cannot
// initialize on this platform are skipped.
func NewStoreChain() (*StoreChain, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := configDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	if encStore, err := NewEncryptedFileStore(filepath.Join(configDir, "token.enc")); err == nil {
		stores = append(stores, encStore)
	}

	stores = append(stores, NewEnvironmentStore())

	return &StoreChain{stores: stores}, nil
}

// StoreToken saves the token to the first store that accepts it
func (c *StoreChain) StoreToken(username, token string) error {
	if username == "" || token == "" {
		return ErrInvalidAccount
	}

	var lastErr error
	for _, store := range c.stores {
		if err := store.StoreToken(username, token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// RetrieveToken returns the token from the first store that has one
func (c *StoreChain) RetrieveToken(username string) (string, error) {
	for _, store := range c.stores {
		if token, err := store.RetrieveToken(username); err == nil && token != "" {
			return token, nil
		}
	}
	return "", ErrTokenNotFound
}

// DeleteToken removes the token from every store that has it
func (c *StoreChain) DeleteToken(username string) error {
	var deleted bool
	for _, store := range c.stores {
		if err := store.DeleteToken(username); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return ErrTokenNotFound
	}
	return nil
}

// configDir returns the platform config directory for the tool
func configDir() (string, error) {
	var dir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support", "daycaresync")
	case "windows":
		dir = filepath.Join(os.Getenv("APPDATA"), "daycaresync")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "daycaresync")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dir = filepath.Join(home, ".config", "daycaresync")
		}
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return dir, nil
}
