package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionValue(t *testing.T, token string) string {
	t.Helper()
	inner, err := json.Marshal(map[string]interface{}{
		"data": map[string]string{"auth_token": token},
	})
	require.NoError(t, err)

	outer, err := json.Marshal(map[string]string{"currentUser": string(inner)})
	require.NoError(t, err)
	return string(outer)
}

func TestParseSessionToken(t *testing.T) {
	token, err := ParseSessionToken(sessionValue(t, "tok-abc123"))
	require.NoError(t, err)
	assert.Equal(t, "tok-abc123", token)
}

func TestParseSessionTokenErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not JSON", "undefined"},
		{"no current user", `{"somethingElse":"x"}`},
		{"current user not JSON", `{"currentUser":"not json"}`},
		{"no token", `{"currentUser":"{\"data\":{}}"}`},
		{"empty token", sessionValue(t, "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSessionToken(tt.raw)
			require.Error(t, err)
		})
	}
}
