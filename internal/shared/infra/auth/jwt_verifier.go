package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt"

	userDomain "github.com/davicafu/imagelab/internal/user/domain"
)

// JWTVerifier valida tokens HMAC emitidos por el proveedor de identidad y
// extrae el uid externo. Implementa el port TokenVerifier.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verificación estática del port de dominio.
var _ userDomain.TokenVerifier = (*JWTVerifier)(nil)

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", userDomain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", userDomain.ErrInvalidToken
	}

	// El emisor histórico usa user_id; sub es el fallback estándar.
	if uid, ok := claims["user_id"].(string); ok && uid != "" {
		return uid, nil
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", userDomain.ErrInvalidToken
}
