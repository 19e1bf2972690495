package middleware

import (
	"Bookstore/jwt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userIDKey   = "UserID"
	usernameKey = "Username"
	roleKey     = "Role"
)

// AuthMiddleware stores the caller identity when the request carries a valid bearer token.
// Requests without one pass through anonymous and are judged by Authorize.
func AuthMiddleware(tokens *jwt.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.Next()
			return
		}

		identity, err := tokens.VerifyToken(token)
		if err != nil {
			logger.Debug("rejected token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Next()
			return
		}

		c.Set(userIDKey, identity.UserID)
		c.Set(usernameKey, identity.Username)
		c.Set(roleKey, identity.Role)
		c.Next()
	}
}

// CurrentIdentity returns the identity AuthMiddleware stored for this request.
func CurrentIdentity(c *gin.Context) (jwt.Identity, bool) {
	userID, ok := c.Get(userIDKey)
	if !ok {
		return jwt.Identity{}, false
	}
	return jwt.Identity{
		UserID:   userID.(uint),
		Username: c.GetString(usernameKey),
		Role:     c.GetString(roleKey),
	}, true
}
