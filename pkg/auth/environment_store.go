package auth

import "os"

const tokenEnvVar = "DAYCARESYNC_AUTH_TOKEN"

// EnvironmentStore reads a token from the environment. Read-only: useful for
// one-off runs and CI without touching the keychain or disk.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// StoreToken is not supported for environment variables
func (e *EnvironmentStore) StoreToken(string, string) error {
	return ErrStoreUnavailable
}

// RetrieveToken reads the token from DAYCARESYNC_AUTH_TOKEN
func (e *EnvironmentStore) RetrieveToken(string) (string, error) {
	token := os.Getenv(tokenEnvVar)
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// DeleteToken is not supported for environment variables
func (e *EnvironmentStore) DeleteToken(string) error {
	return ErrStoreUnavailable
}
