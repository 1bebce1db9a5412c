package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCredentials(t *testing.T) {
	content := `daycare:
  username: parent@example.com
  password: hunter2
`
	path := filepath.Join(t.TempDir(), "credentials.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "parent@example.com", creds.Daycare.Username)
	assert.Equal(t, "hunter2", creds.Daycare.Password)
	assert.Empty(t, creds.Daycare.AuthToken)
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadCredentialsEmptyAccount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yml")
	require.NoError(t, os.WriteFile(path, []byte("daycare: {}\n"), 0600))

	_, err := LoadCredentials(path)
	require.Error(t, err)
}

func TestCredentialsSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.yml")
	creds := &Credentials{Daycare: Account{
		Username:  "parent@example.com",
		Password:  "hunter2",
		AuthToken: "tok-abc123",
	}}

	require.NoError(t, creds.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, creds.Daycare, loaded.Daycare)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "********", MaskToken(""))
	assert.Equal(t, "********", MaskToken("short"))
	assert.Equal(t, "abcd...wxyz", MaskToken("abcdefgh-long-token-wxyz"))
}
