package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndAuthenticate(t *testing.T) {
	token, err := GenerateAccessToken(42, "secret", time.Hour)
	require.NoError(t, err)

	userID, err := Authenticate(token, "secret")
	require.NoError(t, err)
	require.Equal(t, int32(42), userID)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(42, "secret", time.Hour)
	require.NoError(t, err)

	_, err = Authenticate(token, "other-secret")
	require.Error(t, err)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	token, err := GenerateAccessToken(42, "secret", -time.Hour)
	require.NoError(t, err)

	_, err = Authenticate(token, "secret")
	require.Error(t, err)
}

func TestAuthenticateGarbage(t *testing.T) {
	_, err := Authenticate("not-a-token", "secret")
	require.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc")
	require.True(t, ok)
	require.Equal(t, "abc", token)

	_, ok = bearerToken("")
	require.False(t, ok)
	_, ok = bearerToken("Basic abc")
	require.False(t, ok)
	_, ok = bearerToken("Bearer ")
	require.False(t, ok)
}
