package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"

	userDomain "github.com/davicafu/imagelab/internal/user/domain"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func TestVerify_UserIDClaim(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "secret", jwt.MapClaims{"user_id": "ext-123"})

	uid, err := v.Verify(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, "ext-123", uid)
}

func TestVerify_SubFallback(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "secret", jwt.MapClaims{"sub": "ext-456"})

	uid, err := v.Verify(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, "ext-456", uid)
}

func TestVerify_WrongSecret(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "other-secret", jwt.MapClaims{"user_id": "ext-123"})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, userDomain.ErrInvalidToken)
}

func TestVerify_ExpiredToken(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "secret", jwt.MapClaims{
		"user_id": "ext-123",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, userDomain.ErrInvalidToken)
}

func TestVerify_NoUsableClaim(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "secret", jwt.MapClaims{"email": "a@b.c"})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, userDomain.ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	v := NewJWTVerifier("secret")
	_, err := v.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, userDomain.ErrInvalidToken)
}
