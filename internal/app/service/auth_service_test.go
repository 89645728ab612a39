package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBlacklist struct {
	tokens map[string]time.Duration
}

func (b *recordingBlacklist) BlacklistToken(_ context.Context, token string, expiry time.Duration) error {
	if b.tokens == nil {
		b.tokens = make(map[string]time.Duration)
	}
	b.tokens[token] = expiry
	return nil
}

func signupInput(email string) SignupInput {
	return SignupInput{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     email,
		Password:  "s3cret-pass",
		Mobile:    "9999999999",
	}
}

func TestAuthService_Signup(t *testing.T) {
	env := newTestEnv(t)
	auth := env.authService(nil)

	user, tokens, err := auth.Signup(signupInput("  Asha@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, model.RoleCustomer, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	require.NotNil(t, tokens)

	claims, err := util.ValidateAccessToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "CUSTOMER", claims.Role)

	cart, err := env.carts.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalPrice.IsZero())
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	auth := env.authService(nil)

	_, _, err := auth.Signup(signupInput("dup@example.com"))
	require.NoError(t, err)

	_, _, err = auth.Signup(signupInput("DUP@example.com"))
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_Signin(t *testing.T) {
	env := newTestEnv(t)
	auth := env.authService(nil)

	_, _, err := auth.Signup(signupInput("signin@example.com"))
	require.NoError(t, err)

	user, tokens, err := auth.Signin("signin@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "signin@example.com", user.Email)
	assert.NotEmpty(t, tokens.RefreshToken)

	_, _, err = auth.Signin("signin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Signin("nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	env := newTestEnv(t)
	auth := env.authService(nil)

	user, tokens, err := auth.Signup(signupInput("refresh@example.com"))
	require.NoError(t, err)

	pair, err := auth.Refresh(tokens.RefreshToken)
	require.NoError(t, err)
	claims, err := util.ValidateAccessToken(pair.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = auth.Refresh(tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	blacklist := &recordingBlacklist{}
	auth := env.authService(blacklist)

	_, tokens, err := auth.Signup(signupInput("logout@example.com"))
	require.NoError(t, err)

	require.NoError(t, auth.Logout(context.Background(), tokens.AccessToken))
	expiry, ok := blacklist.tokens[tokens.AccessToken]
	require.True(t, ok)
	assert.Greater(t, expiry, 50*time.Minute)

	// Without a blacklist logout is accepted and does nothing.
	assert.NoError(t, env.authService(nil).Logout(context.Background(), tokens.AccessToken))
}

func TestAuthService_GetProfile(t *testing.T) {
	env := newTestEnv(t)
	auth := env.authService(nil)

	user, _, err := auth.Signup(signupInput("profile@example.com"))
	require.NoError(t, err)
	_, err = NewAddressService(env.addresses).CreateAddress(user.ID, testShipping())
	require.NoError(t, err)

	profile, err := auth.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Len(t, profile.Addresses, 1)

	_, err = auth.GetProfile(user.ID + 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
