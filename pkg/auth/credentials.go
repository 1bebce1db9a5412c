package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Credentials is the on-disk credentials file, nested under a "daycare" key.
type Credentials struct {
	Daycare Account `yaml:"daycare"`
}

// Account holds the login pair and, once a run has authenticated, the cached
// bearer token for reuse across runs.
type Account struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password,omitempty"`
	AuthToken string `yaml:"auth_token,omitempty"`
}

// Errors
var (
	ErrTokenNotFound    = errors.New("cached token not found")
	ErrInvalidAccount   = errors.New("invalid account")
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// LoadCredentials reads the credentials file
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if creds.Daycare.Username == "" && creds.Daycare.AuthToken == "" {
		return nil, fmt.Errorf("credentials file %s has neither username nor cached token", path)
	}

	return &creds, nil
}

// Save writes the credentials file with owner-only permissions
func (c *Credentials) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// MaskToken masks all but the first and last 4 characters of a token for
// display.
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
