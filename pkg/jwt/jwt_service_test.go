package jwt

import (
	"testing"
	"time"

	"recipe-share/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateEmailToken("user-1", "cook@example.com", domain.TokenPurposeVerifyEmail, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateEmailToken(token, domain.TokenPurposeVerifyEmail)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "cook@example.com", claims.Email)
}

func TestEmailToken_Rejections(t *testing.T) {
	svc := NewJWTService("test-secret")

	t.Run("wrong purpose", func(t *testing.T) {
		token, err := svc.GenerateEmailToken("user-1", "cook@example.com", domain.TokenPurposeVerifyEmail, time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateEmailToken(token, domain.TokenPurposeResetPassword)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateEmailToken("user-1", "cook@example.com", domain.TokenPurposeResetPassword, -time.Minute)
		require.NoError(t, err)
		_, err = svc.ValidateEmailToken(token, domain.TokenPurposeResetPassword)
		assert.ErrorIs(t, err, domain.ErrTokenExpired)
	})

	t.Run("other secret", func(t *testing.T) {
		token, err := NewJWTService("another-secret").GenerateEmailToken("user-1", "cook@example.com", domain.TokenPurposeResetPassword, time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateEmailToken(token, domain.TokenPurposeResetPassword)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateEmailToken("not.a.jwt", domain.TokenPurposeResetPassword)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}
