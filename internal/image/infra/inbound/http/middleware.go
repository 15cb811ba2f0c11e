package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	userDomain "github.com/davicafu/imagelab/internal/user/domain"
)

const userKey = "authUser"

// AuthMiddleware valida el bearer token y resuelve el usuario interno.
// El usuario queda en el contexto de gin bajo userKey.
func AuthMiddleware(verifier userDomain.TokenVerifier, users userDomain.UserRepository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		externalUID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, userDomain.ErrAuthUnavailable) {
				log.Error("Authentication service not available", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication service unavailable"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := users.FindByExternalUID(c.Request.Context(), externalUID)
		if err != nil {
			if errors.Is(err, userDomain.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
				return
			}
			log.Error("Fallo al resolver usuario autenticado", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// currentUser recupera el usuario autenticado que dejó el middleware.
func currentUser(c *gin.Context) (*userDomain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*userDomain.User)
	return user, ok
}
