package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioledger/backend/src/config"
)

const testSecret = "test-secret-0123456789-0123456789-0123456789"

func TestMain(m *testing.M) {
	config.Cfg = &config.AppConfig{AccessTokenExpiry: time.Hour}
	m.Run()
}

func TestHashAndComparePassword(t *testing.T) {
	auth := NewAuthService(testSecret)

	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	require.NoError(t, auth.CompareHashAndPassword(hash, "correct horse battery staple"))
	require.Error(t, auth.CompareHashAndPassword(hash, "wrong password"))
}

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthService(testSecret)

	token, err := auth.GenerateToken("42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", userID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAuthService(testSecret).GenerateToken("42")
	require.NoError(t, err)

	_, err = NewAuthService("another-secret-that-is-long-enough-too").ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := NewAuthService(testSecret)

	_, err := auth.ValidateToken("not.a.token")
	require.Error(t, err)

	_, err = auth.ValidateToken("")
	require.Error(t, err)
}
