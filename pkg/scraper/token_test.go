package scraper

import (
	"context"
	"path/filepath"
	"testing"

	"daycaresync/pkg/auth"
	"daycaresync/pkg/config"
	"daycaresync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory TokenStore so token resolution tests never
// touch the system keychain or the environment.
type memoryStore struct {
	tokens map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tokens: make(map[string]string)}
}

func (m *memoryStore) StoreToken(username, token string) error {
	m.tokens[username] = token
	return nil
}

func (m *memoryStore) RetrieveToken(username string) (string, error) {
	token, ok := m.tokens[username]
	if !ok {
		return "", auth.ErrTokenNotFound
	}
	return token, nil
}

func (m *memoryStore) DeleteToken(username string) error {
	if _, ok := m.tokens[username]; !ok {
		return auth.ErrTokenNotFound
	}
	delete(m.tokens, username)
	return nil
}

func writeCredentials(t *testing.T, account auth.Account) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.yml")
	creds := &auth.Credentials{Daycare: account}
	require.NoError(t, creds.Save(path))
	return path
}

func tokenTestConfig(credsPath string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Procare.CredentialsFile = credsPath
	return cfg
}

func TestResolveTokenUsesCachedToken(t *testing.T) {
	path := writeCredentials(t, auth.Account{
		Username:  "parent@example.com",
		AuthToken: "tok-cached",
	})

	// The acquirer must never run when a token is already on file
	acquirer := &auth.StaticAcquirer{Token: "tok-fresh"}

	token, err := ResolveToken(context.Background(), tokenTestConfig(path), acquirer, newMemoryStore(), logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "tok-cached", token)
}

func TestResolveTokenUsesStoredToken(t *testing.T) {
	path := writeCredentials(t, auth.Account{
		Username: "parent@example.com",
		Password: "hunter2",
	})

	store := newMemoryStore()
	require.NoError(t, store.StoreToken("parent@example.com", "tok-stored"))

	token, err := ResolveToken(context.Background(), tokenTestConfig(path), &auth.StaticAcquirer{Token: "tok-fresh"}, store, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "tok-stored", token)
}

func TestResolveTokenAcquiresAndPersists(t *testing.T) {
	path := writeCredentials(t, auth.Account{
		Username: "parent@example.com",
		Password: "hunter2",
	})

	store := newMemoryStore()
	acquirer := &auth.StaticAcquirer{Token: "tok-fresh"}

	token, err := ResolveToken(context.Background(), tokenTestConfig(path), acquirer, store, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "tok-fresh", token)

	// The fresh token is written back for the next run, to both places
	creds, err := auth.LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-fresh", creds.Daycare.AuthToken)

	stored, err := store.RetrieveToken("parent@example.com")
	require.NoError(t, err)
	assert.Equal(t, "tok-fresh", stored)
}

func TestResolveTokenNilStore(t *testing.T) {
	path := writeCredentials(t, auth.Account{
		Username: "parent@example.com",
		Password: "hunter2",
	})

	token, err := ResolveToken(context.Background(), tokenTestConfig(path), &auth.StaticAcquirer{Token: "tok-fresh"}, nil, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "tok-fresh", token)
}

func TestResolveTokenNoCredentials(t *testing.T) {
	cfg := tokenTestConfig(filepath.Join(t.TempDir(), "nope.yml"))
	_, err := ResolveToken(context.Background(), cfg, &auth.StaticAcquirer{}, newMemoryStore(), logger.NewTestLogger())
	require.Error(t, err)
}

func TestResolveTokenMissingPassword(t *testing.T) {
	path := writeCredentials(t, auth.Account{Username: "parent@example.com"})

	_, err := ResolveToken(context.Background(), tokenTestConfig(path), &auth.StaticAcquirer{Token: "x"}, newMemoryStore(), logger.NewTestLogger())
	assert.ErrorIs(t, err, auth.ErrInvalidAccount)
}
