package middleware

import (
	"net/http"
	"strings"

	"warehouse_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
// Tokens are issued by the external identity provider; this service only
// verifies them and extracts the actor identity for audit fields.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format. Use Bearer <token>"})
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
			c.Abort()
			return
		}

		// Set actor information in the context for downstream handlers
		c.Set("actorEmail", claims.Email)
		c.Set("actorName", claims.Name)

		c.Next()
	}
}

// ActorEmail returns the authenticated actor's email from the context,
// or the empty string when the request is unauthenticated.
func ActorEmail(c *gin.Context) string {
	email, exists := c.Get("actorEmail")
	if !exists {
		return ""
	}
	str, ok := email.(string)
	if !ok {
		return ""
	}
	return str
}
