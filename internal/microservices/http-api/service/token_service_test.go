package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

func TestTokenService_IssueAndValidate(t *testing.T) {
	tokens := NewTokenService(testSecret, 15*time.Minute)

	signed, err := tokens.Issue("user-123", "testuser", "admin")
	require.NoError(t, err)

	claims, err := tokens.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenService_IssueRequiresUser(t *testing.T) {
	tokens := NewTokenService(testSecret, time.Minute)
	_, err := tokens.Issue("", "nobody", "user")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTokenService_Expired(t *testing.T) {
	svc := &tokenService{secret: []byte(testSecret), ttl: time.Minute, now: time.Now}
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	signed, err := svc.Issue("user-123", "testuser", "user")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	signed, err := NewTokenService(testSecret, time.Minute).Issue("user-123", "testuser", "user")
	require.NoError(t, err)

	_, err = NewTokenService("another-secret-key-that-is-long-enough", time.Minute).Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-123"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, time.Minute).Validate(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Garbage(t *testing.T) {
	_, err := NewTokenService(testSecret, time.Minute).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
