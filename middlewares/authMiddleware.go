package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecobhandu-be/logger"
	authUtils "ecobhandu-be/utils"
)

// TokenParser validates session tokens.
type TokenParser interface {
	Parse(token string) (*authUtils.Claims, error)
}

const authCookie = "auth_token"

// tokenFrom reads the token from "Authorization: Bearer <token>" or the
// auth_token cookie.
func tokenFrom(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := c.Cookie(authCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware rejects requests without a valid token and stores the
// caller's user_id and role in the context.
func AuthMiddleware(tokens TokenParser, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFrom(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			c.Abort()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			logger.FromGin(c, log).Debug("token validation failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through unchanged.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFrom(c); tokenString != "" {
			if claims, err := tokens.Parse(tokenString); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("role", claims.Role)
			}
		}
		c.Next()
	}
}
