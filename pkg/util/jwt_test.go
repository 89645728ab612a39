package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateTokenPair(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "shopper@example.com", "CUSTOMER", testSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, tokens)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tokens.ExpiresAt, 5*time.Second)
}

func TestValidateToken(t *testing.T) {
	tokens, err := GenerateTokenPair(123, "shopper@example.com", "CUSTOMER", testSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "Valid access token", token: tokens.AccessToken, secret: testSecret},
		{name: "Valid refresh token", token: tokens.RefreshToken, secret: testSecret},
		{name: "Wrong secret", token: tokens.AccessToken, secret: "wrong-secret", wantErr: ErrInvalidToken},
		{name: "Malformed token", token: "invalid.token.format", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "Empty token", token: "", secret: testSecret, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(123), claims.UserID)
			assert.Equal(t, "shopper@example.com", claims.Email)
			assert.Equal(t, "CUSTOMER", claims.Role)
			assert.Equal(t, "123", claims.Subject)
		})
	}
}

func TestTypedValidation(t *testing.T) {
	tokens, err := GenerateTokenPair(7, "admin@example.com", "ADMIN", testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = ValidateAccessToken(tokens.AccessToken, testSecret)
	assert.NoError(t, err)
	_, err = ValidateAccessToken(tokens.RefreshToken, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateRefreshToken(tokens.RefreshToken, testSecret)
	assert.NoError(t, err)
	_, err = ValidateRefreshToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "shopper@example.com", "CUSTOMER", testSecret, time.Nanosecond, time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestRemainingTTL(t *testing.T) {
	tokens, err := GenerateTokenPair(1, "shopper@example.com", "CUSTOMER", testSecret, time.Hour, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)

	ttl := claims.RemainingTTL()
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "unexpected ttl %s", ttl)
	assert.Zero(t, (&Claims{}).RemainingTTL())
}
