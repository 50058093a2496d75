package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) TokenService {
	t.Helper()
	svc, err := NewTokenService(
		15*time.Minute,
		24*time.Hour,
		"placement-pipeline",
		"placement-portal",
		"test-secret-key-for-unit-tests",
		"test-service-token",
	)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	t.Run("RequiresSecretKey", func(t *testing.T) {
		_, err := NewTokenService(time.Minute, time.Hour, "iss", "aud", "", "svc")
		assert.Error(t, err)
	})

	t.Run("RequiresServiceToken", func(t *testing.T) {
		_, err := NewTokenService(time.Minute, time.Hour, "iss", "aud", "secret", "")
		assert.Error(t, err)
	})
}

func TestStudentTokens(t *testing.T) {
	svc := newTestTokenService(t)

	t.Run("GenerateAndValidate", func(t *testing.T) {
		access, refresh, err := svc.GenerateStudentTokens(42)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.NotEqual(t, access, refresh)

		claims, err := svc.ValidateStudentToken(access)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.StudentID)
		assert.Equal(t, "access", claims.TokenType)
		assert.NotEmpty(t, claims.TokenID)

		refreshClaims, err := svc.ValidateStudentToken(refresh)
		require.NoError(t, err)
		assert.Equal(t, "refresh", refreshClaims.TokenType)
	})

	t.Run("StaffTokenRejectedAsStudentToken", func(t *testing.T) {
		access, _, err := svc.GenerateStaffTokens(7)
		require.NoError(t, err)

		_, err = svc.ValidateStudentToken(access)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("GarbageTokenRejected", func(t *testing.T) {
		_, err := svc.ValidateStudentToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("WrongKeyRejected", func(t *testing.T) {
		other, err := NewTokenService(time.Minute, time.Hour, "iss", "aud", "different-secret", "svc")
		require.NoError(t, err)

		access, _, err := other.GenerateStudentTokens(1)
		require.NoError(t, err)

		_, err = svc.ValidateStudentToken(access)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("ExpiredTokenRejected", func(t *testing.T) {
		expired, err := NewTokenService(-time.Minute, time.Hour, "iss", "aud", "test-secret-key-for-unit-tests", "svc")
		require.NoError(t, err)

		access, _, err := expired.GenerateStudentTokens(1)
		require.NoError(t, err)

		_, err = expired.ValidateStudentToken(access)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestStaffTokens(t *testing.T) {
	svc := newTestTokenService(t)

	access, _, err := svc.GenerateStaffTokens(9)
	require.NoError(t, err)

	claims, err := svc.ValidateStaffToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.StaffID)
	assert.Equal(t, "access", claims.TokenType)

	// Student tokens carry a different subject claim
	studentAccess, _, err := svc.GenerateStudentTokens(9)
	require.NoError(t, err)
	_, err = svc.ValidateStaffToken(studentAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateServiceToken(t *testing.T) {
	svc := newTestTokenService(t)

	assert.NoError(t, svc.ValidateServiceToken("test-service-token"))
	assert.ErrorIs(t, svc.ValidateServiceToken("wrong-token"), ErrTokenInvalid)
	assert.ErrorIs(t, svc.ValidateServiceToken(""), ErrTokenInvalid)
}

func TestRevokeToken(t *testing.T) {
	svc := newTestTokenService(t)

	access, _, err := svc.GenerateStudentTokens(3)
	require.NoError(t, err)

	// Valid before revocation
	_, err = svc.ValidateStudentToken(access)
	require.NoError(t, err)
	assert.False(t, svc.IsTokenRevoked(access))

	require.NoError(t, svc.RevokeToken(access))

	assert.True(t, svc.IsTokenRevoked(access))
	_, err = svc.ValidateStudentToken(access)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	t.Run("GarbageTokenRevocation", func(t *testing.T) {
		assert.ErrorIs(t, svc.RevokeToken("not-a-jwt"), ErrTokenInvalid)
		assert.True(t, svc.IsTokenRevoked("not-a-jwt"))
	})
}
