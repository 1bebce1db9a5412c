package auth

import (
	"context"

	"daycaresync/pkg/errors"
)

// TokenAcquirer turns a username/password pair into a bearer token. The
// pipeline only depends on this capability, not on any particular automation
// mechanism: the browser flow, a cached token, and test stubs are all
// interchangeable.
type TokenAcquirer interface {
	AcquireToken(ctx context.Context, username, password string) (string, error)
}

// StaticAcquirer returns a pre-supplied token, ignoring the credentials.
// Used when a cached token is available from a previous run.
type StaticAcquirer struct {
	Token string
}

// AcquireToken returns the static token
func (s *StaticAcquirer) AcquireToken(context.Context, string, string) (string, error) {
	if s.Token == "" {
		return "", errors.New(errors.ErrorTypeAuth, "no cached token available")
	}
	return s.Token, nil
}
