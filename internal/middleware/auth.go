package middleware

import (
	"net/http"
	"strings"

	"anoa.com/softdesk/internal/metrics"
	"anoa.com/softdesk/pkg/response"
	"anoa.com/softdesk/pkg/token"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokens *token.Manager
}

func NewAuthMiddleware(tokens *token.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth accepts only access tokens. The subject is stored under
// response.UserIDKey.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			metrics.AuthAttemptsTotal.WithLabelValues("access", "failure").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		claims, err := m.tokens.Parse(tokenString, token.TypeAccess)
		if err != nil {
			metrics.AuthAttemptsTotal.WithLabelValues("access", "failure").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(response.UserIDKey, claims.Subject)
		c.Next()
	}
}
